package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"go-invoice-webapp/internal/models"
	"go-invoice-webapp/internal/services"

	"github.com/gin-gonic/gin"
)

// InvoiceStore is the persistence surface the invoice handlers need.
// The concrete implementation is repository.InvoiceRepository; tests
// substitute their own.
type InvoiceStore interface {
	CreateInvoice(request *models.InvoiceRequest) (*models.Invoice, error)
	GetInvoiceByNumber(invoiceNumber string) (*models.Invoice, error)
	GetInvoices(filter *models.InvoiceFilter) ([]models.Invoice, error)
	UpdateInvoice(invoiceNumber string, request *models.InvoiceRequest) (*models.Invoice, error)
	MarkInvoicePaid(invoiceNumber string) (*models.Invoice, error)
	DeleteInvoice(invoiceNumber string) error
	GetInvoiceStats() (*models.InvoiceStats, error)
}

type InvoiceHandler struct {
	store      InvoiceStore
	pdfService *services.PDFService
}

func NewInvoiceHandler(store InvoiceStore, pdfService *services.PDFService) *InvoiceHandler {
	return &InvoiceHandler{
		store:      store,
		pdfService: pdfService,
	}
}

// ListInvoices returns invoices as JSON, optionally filtered by status
// (all, draft, pending, paid).
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter models.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := filter.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid status filter",
			"details": err.Error(),
		})
		return
	}

	invoices, err := h.store.GetInvoices(&filter)
	if err != nil {
		log.Printf("ListInvoices: Error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"invoices":   invoices,
		"totalCount": len(invoices),
		"filter":     filter,
	})
}

// GetInvoice returns a single invoice with its addresses and items
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoiceNumber := c.Param("number")

	invoice, err := h.store.GetInvoiceByNumber(invoiceNumber)
	if err != nil {
		log.Printf("GetInvoice: Error fetching invoice %s: %v", invoiceNumber, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"invoice": invoice,
	})
}

// CreateInvoice creates a new invoice with its addresses and items
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var request models.InvoiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("CreateInvoice: Validation error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid input data",
			"details": err.Error(),
		})
		return
	}

	// Additional validation
	if err := request.Validate(); err != nil {
		log.Printf("CreateInvoice: Business validation error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	invoice, err := h.store.CreateInvoice(&request)
	if err != nil {
		log.Printf("CreateInvoice: Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create invoice",
			"details": err.Error(),
		})
		return
	}

	// The client navigates to /invoice/{number} with this
	c.Header("Location", fmt.Sprintf("/invoice/%s", invoice.InvoiceNumber))
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Invoice created successfully",
		"invoiceId":     invoice.InvoiceID,
		"invoiceNumber": invoice.InvoiceNumber,
		"invoice":       invoice,
	})
}

// UpdateInvoice updates an existing invoice aggregate
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	invoiceNumber := c.Param("number")

	var request models.InvoiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		log.Printf("UpdateInvoice: Validation error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid input data",
			"details": err.Error(),
		})
		return
	}

	if err := request.Validate(); err != nil {
		log.Printf("UpdateInvoice: Business validation error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	invoice, err := h.store.UpdateInvoice(invoiceNumber, &request)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("UpdateInvoice: Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update invoice",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Invoice updated successfully",
		"invoiceNumber": invoice.InvoiceNumber,
		"invoice":       invoice,
	})
}

// MarkInvoicePaid marks an invoice as paid. Repeating the action on a
// paid invoice is a no-op.
func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	invoiceNumber := c.Param("number")

	invoice, err := h.store.MarkInvoicePaid(invoiceNumber)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("MarkInvoicePaid: Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update invoice status",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Invoice status updated successfully",
		"invoiceNumber": invoice.InvoiceNumber,
		"status":        invoice.Status,
	})
}

// DeleteInvoice deletes an invoice with all of its addresses and items
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	invoiceNumber := c.Param("number")

	if err := h.store.DeleteInvoice(invoiceNumber); err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		log.Printf("DeleteInvoice: Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete invoice",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Invoice deleted successfully",
	})
}

// GetInvoiceStats returns invoice statistics
func (h *InvoiceHandler) GetInvoiceStats(c *gin.Context) {
	stats, err := h.store.GetInvoiceStats()
	if err != nil {
		log.Printf("GetInvoiceStats: Error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get invoice statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// DownloadInvoicePDF generates and downloads a PDF for an invoice
func (h *InvoiceHandler) DownloadInvoicePDF(c *gin.Context) {
	invoiceNumber := c.Param("number")

	invoice, err := h.store.GetInvoiceByNumber(invoiceNumber)
	if err != nil {
		log.Printf("DownloadInvoicePDF: Error fetching invoice %s: %v", invoiceNumber, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	pdfBytes, err := h.pdfService.GenerateInvoicePDF(invoice)
	if err != nil {
		log.Printf("DownloadInvoicePDF: Error generating PDF: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate PDF",
			"details": err.Error(),
		})
		return
	}

	// Validate PDF content - ensure it's actually a PDF
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		log.Printf("DownloadInvoicePDF: Invalid PDF content returned")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PDF generation failed"})
		return
	}

	filename := fmt.Sprintf("Invoice_%s.pdf", invoice.InvoiceNumber)
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// isNotFound matches the repository's not-found errors without forcing
// callers to depend on gorm.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}
