package services

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"go-invoice-webapp/internal/config"
	"go-invoice-webapp/internal/models"

	"github.com/jung-kurt/gofpdf"
)

type PDFService struct {
	invoiceConfig *config.InvoiceConfig
	barcodes      *BarcodeService
}

func NewPDFService(invoiceConfig *config.InvoiceConfig, barcodes *BarcodeService) *PDFService {
	return &PDFService{
		invoiceConfig: invoiceConfig,
		barcodes:      barcodes,
	}
}

// GenerateInvoicePDF renders an invoice with its addresses and items as
// a PDF document.
func (s *PDFService) GenerateInvoicePDF(invoice *models.Invoice) ([]byte, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice cannot be nil")
	}

	log.Printf("PDFService: Generating PDF for invoice %s", invoice.InvoiceNumber)

	currency := s.invoiceConfig.CurrencySymbol
	if currency == "" {
		currency = "£"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetMargins(20, 20, 20)

	// Header: invoice number and status
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(37, 99, 235)
	pdf.Cell(0, 15, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Cell(0, 8, "#"+invoice.InvoiceNumber)
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, invoice.Description)
	pdf.Ln(10)

	// Invoice metadata in table format
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(248, 249, 250)

	colWidth := 40.0

	pdf.CellFormat(colWidth, 8, "Invoice Date:", "1", 0, "", true, 0, "")
	pdf.CellFormat(colWidth, 8, invoice.IssueDate.String(), "1", 1, "", false, 0, "")

	pdf.CellFormat(colWidth, 8, "Payment Due:", "1", 0, "", true, 0, "")
	pdf.CellFormat(colWidth, 8, invoice.PaymentDue.String(), "1", 1, "", false, 0, "")

	pdf.CellFormat(colWidth, 8, "Status:", "1", 0, "", true, 0, "")
	pdf.CellFormat(colWidth, 8, strings.ToUpper(invoice.Status), "1", 1, "", false, 0, "")

	pdf.Ln(8)

	// Sender and client address blocks side by side
	startY := pdf.GetY()
	s.writeAddressBlock(pdf, 20, startY, "From:", addressLines(invoice.SenderAddress))

	billTo := []string{invoice.ClientName, invoice.ClientEmail}
	if invoice.ClientAddress != nil {
		billTo = append(billTo,
			invoice.ClientAddress.Street,
			invoice.ClientAddress.PostCode+" "+invoice.ClientAddress.City,
			invoice.ClientAddress.Country,
		)
	}
	s.writeAddressBlock(pdf, 110, startY, "Bill To:", billTo)

	pdf.SetY(startY + 42)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFillColor(37, 99, 235)

	pdf.CellFormat(90, 10, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 10, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 10, "Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 10, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(248, 249, 250)

	fill := false
	for _, item := range invoice.Items {
		pdf.CellFormat(90, 8, item.Name, "1", 0, "", fill, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%.0f", item.Quantity), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%s%.2f", currency, item.Price), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%s%.2f", currency, item.Total), "1", 1, "R", fill, 0, "")
		fill = !fill
	}

	pdf.Ln(8)

	// Total with background
	pdf.SetX(110)
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(37, 99, 235)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(40, 10, "AMOUNT DUE:", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 10, fmt.Sprintf("%s%.2f", currency, invoice.Total), "1", 1, "R", true, 0, "")

	// QR code and barcode footer pointing back at the invoice
	if s.barcodes != nil {
		if qrBytes, err := s.barcodes.GenerateInvoiceQR(invoice.InvoiceNumber); err == nil {
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("invoice_qr", opts, bytes.NewReader(qrBytes))
			pdf.ImageOptions("invoice_qr", 20, 240, 30, 30, false, opts, 0, "")
		} else {
			log.Printf("PDFService: Could not generate QR code for %s: %v", invoice.InvoiceNumber, err)
		}

		if barBytes, err := s.barcodes.GenerateInvoiceBarcode(invoice.InvoiceNumber); err == nil {
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("invoice_barcode", opts, bytes.NewReader(barBytes))
			pdf.ImageOptions("invoice_barcode", 60, 248, 50, 15, false, opts, 0, "")
		} else {
			log.Printf("PDFService: Could not generate barcode for %s: %v", invoice.InvoiceNumber, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %v", err)
	}

	pdfBytes := buf.Bytes()
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, fmt.Errorf("generated content is not a valid PDF")
	}

	log.Printf("PDFService: Generated PDF for invoice %s (%d bytes)", invoice.InvoiceNumber, len(pdfBytes))
	return pdfBytes, nil
}

func (s *PDFService) writeAddressBlock(pdf *gofpdf.Fpdf, x, y float64, title string, lines []string) {
	pdf.SetXY(x, y)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(70, 7, title, "", 2, "", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.SetX(x)
		pdf.CellFormat(70, 5, line, "", 2, "", false, 0, "")
	}
}

func addressLines(a *models.SenderAddress) []string {
	if a == nil {
		return nil
	}
	return []string{
		a.Street,
		a.PostCode + " " + a.City,
		a.Country,
	}
}
