package repository

import (
	"fmt"
	"log"
	"time"

	"go-invoice-webapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *Database
}

func NewInvoiceRepository(db *Database) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// GetDB returns the database instance for direct queries
func (r *InvoiceRepository) GetDB() *gorm.DB {
	return r.db.DB
}

// ================================================================
// CORE INVOICE OPERATIONS
// ================================================================

// CreateInvoice creates an invoice together with its sender address,
// client address and items in one transaction. Either the whole
// aggregate is persisted or none of it is; a failing child insert rolls
// back the invoice row as well.
func (r *InvoiceRepository) CreateInvoice(request *models.InvoiceRequest) (*models.Invoice, error) {
	// Validate request
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	var invoice *models.Invoice
	err := r.db.DB.Transaction(func(tx *gorm.DB) error {
		// Generate the invoice number
		invoiceNumber, err := r.generateInvoiceNumber(tx)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %v", err)
		}

		status := request.Status
		if status == "" {
			status = models.StatusPending
		}

		// The primary key doubles as the join value for all child rows.
		invoiceID := uint64(time.Now().UnixMilli())

		invoice = &models.Invoice{
			InvoiceID:     invoiceID,
			InvoiceNumber: invoiceNumber,
			IssueDate:     request.IssueDate,
			PaymentDue:    models.PaymentDueDate(request.IssueDate, request.PaymentTerms),
			Description:   request.Description,
			PaymentTerms:  request.PaymentTerms,
			ClientName:    request.ClientName,
			ClientEmail:   request.ClientEmail,
			Status:        status,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}

		// Build line items
		for i, itemRequest := range request.Items {
			item := models.InvoiceItem{
				ID:        newRowID(i),
				InvoiceID: invoiceID,
				Name:      itemRequest.Name,
				Quantity:  itemRequest.Quantity,
				Price:     itemRequest.Price,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			item.CalculateTotal()
			invoice.Items = append(invoice.Items, item)
		}

		// Calculate the invoice total from the item totals
		invoice.CalculateTotal()

		// Save invoice row first, then the children
		if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice for %s: %v", request.ClientName, err)
		}

		if len(invoice.Items) > 0 {
			if err := tx.Create(&invoice.Items).Error; err != nil {
				return fmt.Errorf("failed to create invoice items: %v", err)
			}
		}

		clientAddress := &models.ClientAddress{
			ID:        newRowID(len(request.Items)),
			InvoiceID: invoiceID,
			Street:    request.ClientAddress.Street,
			City:      request.ClientAddress.City,
			PostCode:  request.ClientAddress.PostCode,
			Country:   request.ClientAddress.Country,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := tx.Create(clientAddress).Error; err != nil {
			return fmt.Errorf("failed to create client address: %v", err)
		}

		senderAddress := &models.SenderAddress{
			ID:        newRowID(len(request.Items) + 1),
			InvoiceID: invoiceID,
			Street:    request.SenderAddress.Street,
			City:      request.SenderAddress.City,
			PostCode:  request.SenderAddress.PostCode,
			Country:   request.SenderAddress.Country,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := tx.Create(senderAddress).Error; err != nil {
			return fmt.Errorf("failed to create sender address: %v", err)
		}

		invoice.ClientAddress = clientAddress
		invoice.SenderAddress = senderAddress
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("Successfully created invoice %s with ID %d for client %s", invoice.InvoiceNumber, invoice.InvoiceID, invoice.ClientName)
	return invoice, nil
}

// GetInvoiceByNumber retrieves an invoice by its invoice number with the
// sender address, client address and items joined in.
func (r *InvoiceRepository) GetInvoiceByNumber(invoiceNumber string) (*models.Invoice, error) {
	var invoice models.Invoice

	if err := r.db.DB.
		Preload("SenderAddress").
		Preload("ClientAddress").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("invoice %s not found", invoiceNumber)
		}
		return nil, fmt.Errorf("failed to get invoice %s: %v", invoiceNumber, err)
	}

	return &invoice, nil
}

// GetInvoices returns invoices with their children, optionally filtered
// by status (draft, pending or paid; "all" and "" mean no filter).
func (r *InvoiceRepository) GetInvoices(filter *models.InvoiceFilter) ([]models.Invoice, error) {
	var invoices []models.Invoice

	query := r.db.DB.Model(&models.Invoice{}).
		Preload("SenderAddress").
		Preload("ClientAddress").
		Preload("Items")

	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
		if filter.Status != "" && filter.Status != "all" {
			query = query.Where("status = ?", filter.Status)
		}
	}

	query = query.Order("issue_date DESC, created_at DESC")

	if err := query.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to get invoices: %v", err)
	}

	return invoices, nil
}

// UpdateInvoice replaces the invoice header, both addresses and the item
// list in one transaction. Submitted items with a known ID are upserted,
// items with a zero ID are inserted, and rows dropped from the submitted
// list are deleted. Saving with pending status is also how a draft
// becomes pending.
func (r *InvoiceRepository) UpdateInvoice(invoiceNumber string, request *models.InvoiceRequest) (*models.Invoice, error) {
	// Validate request
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	var invoice models.Invoice
	err := r.db.DB.Transaction(func(tx *gorm.DB) error {
		// Get existing invoice
		if err := tx.Where("invoice_number = ?", invoiceNumber).First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("invoice %s not found", invoiceNumber)
			}
			return fmt.Errorf("failed to get invoice %s: %v", invoiceNumber, err)
		}

		// Update header fields and re-derive due date
		invoice.IssueDate = request.IssueDate
		invoice.PaymentDue = models.PaymentDueDate(request.IssueDate, request.PaymentTerms)
		invoice.Description = request.Description
		invoice.PaymentTerms = request.PaymentTerms
		invoice.ClientName = request.ClientName
		invoice.ClientEmail = request.ClientEmail
		if request.Status != "" {
			invoice.Status = request.Status
		}
		invoice.UpdatedAt = time.Now()

		// Upsert the replacement item list
		invoice.Items = nil
		keepIDs := make([]uint64, 0, len(request.Items))
		for i, itemRequest := range request.Items {
			item := models.InvoiceItem{
				ID:        itemRequest.ID,
				InvoiceID: invoice.InvoiceID,
				Name:      itemRequest.Name,
				Quantity:  itemRequest.Quantity,
				Price:     itemRequest.Price,
				UpdatedAt: time.Now(),
			}
			if item.ID == 0 {
				item.ID = newRowID(i)
				item.CreatedAt = time.Now()
			}
			item.CalculateTotal()

			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error; err != nil {
				return fmt.Errorf("failed to save item %s: %v", item.Name, err)
			}
			keepIDs = append(keepIDs, item.ID)
			invoice.Items = append(invoice.Items, item)
		}

		// Remove items dropped from the submitted list
		stale := tx.Where("invoice_id = ?", invoice.InvoiceID)
		if len(keepIDs) > 0 {
			stale = stale.Where("id NOT IN ?", keepIDs)
		}
		if err := stale.Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete removed items: %v", err)
		}

		// Update both address rows
		senderUpdates := map[string]interface{}{
			"street":     request.SenderAddress.Street,
			"city":       request.SenderAddress.City,
			"post_code":  request.SenderAddress.PostCode,
			"country":    request.SenderAddress.Country,
			"updated_at": time.Now(),
		}
		if err := tx.Model(&models.SenderAddress{}).
			Where("invoice_id = ?", invoice.InvoiceID).
			Updates(senderUpdates).Error; err != nil {
			return fmt.Errorf("failed to update sender address: %v", err)
		}

		clientUpdates := map[string]interface{}{
			"street":     request.ClientAddress.Street,
			"city":       request.ClientAddress.City,
			"post_code":  request.ClientAddress.PostCode,
			"country":    request.ClientAddress.Country,
			"updated_at": time.Now(),
		}
		if err := tx.Model(&models.ClientAddress{}).
			Where("invoice_id = ?", invoice.InvoiceID).
			Updates(clientUpdates).Error; err != nil {
			return fmt.Errorf("failed to update client address: %v", err)
		}

		// Recalculate the total and save the header
		invoice.CalculateTotal()
		if err := tx.Omit(clause.Associations).Save(&invoice).Error; err != nil {
			return fmt.Errorf("failed to update invoice %s: %v", invoiceNumber, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	// Load relationships for return
	updated, err := r.GetInvoiceByNumber(invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated invoice: %v", err)
	}

	log.Printf("Successfully updated invoice %s", updated.InvoiceNumber)
	return updated, nil
}

// MarkInvoicePaid sets the invoice status to paid. Paid is terminal:
// calling this on an already-paid invoice changes nothing and is not an
// error.
func (r *InvoiceRepository) MarkInvoicePaid(invoiceNumber string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_number = ?", invoiceNumber).First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("invoice %s not found", invoiceNumber)
			}
			return fmt.Errorf("failed to get invoice %s: %v", invoiceNumber, err)
		}

		if invoice.IsPaid() {
			return nil
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":     models.StatusPaid,
			"paid_at":    &now,
			"updated_at": now,
		}
		if err := tx.Model(&models.Invoice{}).
			Where("invoice_id = ?", invoice.InvoiceID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to mark invoice %s paid: %v", invoiceNumber, err)
		}

		invoice.Status = models.StatusPaid
		invoice.PaidAt = &now
		invoice.UpdatedAt = now
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("Invoice %s status is %s", invoice.InvoiceNumber, invoice.Status)
	return &invoice, nil
}

// DeleteInvoice removes the invoice row and all of its children in one
// transaction, so the parent can never outlive its children or the other
// way around.
func (r *InvoiceRepository) DeleteInvoice(invoiceNumber string) error {
	err := r.db.DB.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Where("invoice_number = ?", invoiceNumber).First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("invoice %s not found", invoiceNumber)
			}
			return fmt.Errorf("failed to get invoice %s: %v", invoiceNumber, err)
		}

		if err := tx.Where("invoice_id = ?", invoice.InvoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete invoice items: %v", err)
		}
		if err := tx.Where("invoice_id = ?", invoice.InvoiceID).Delete(&models.ClientAddress{}).Error; err != nil {
			return fmt.Errorf("failed to delete client address: %v", err)
		}
		if err := tx.Where("invoice_id = ?", invoice.InvoiceID).Delete(&models.SenderAddress{}).Error; err != nil {
			return fmt.Errorf("failed to delete sender address: %v", err)
		}
		if err := tx.Delete(&models.Invoice{}, invoice.InvoiceID).Error; err != nil {
			return fmt.Errorf("failed to delete invoice %s: %v", invoiceNumber, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	log.Printf("Successfully deleted invoice %s", invoiceNumber)
	return nil
}

// ================================================================
// INVOICE NUMBER GENERATION
// ================================================================

// generateInvoiceNumber draws random invoice numbers until one is free.
// The format only has ~676k combinations, so collisions against a grown
// table are real; ten attempts is plenty in practice.
func (r *InvoiceRepository) generateInvoiceNumber(tx *gorm.DB) (string, error) {
	for i := 0; i < 10; i++ {
		candidate := models.RandomInvoiceNumber()

		var count int64
		if err := tx.Model(&models.Invoice{}).
			Where("invoice_number = ?", candidate).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check invoice number uniqueness: %v", err)
		}
		if count == 0 {
			return candidate, nil
		}
		log.Printf("Invoice number %s already taken, retrying", candidate)
	}

	return "", fmt.Errorf("failed to generate unique invoice number after 10 attempts")
}

// newRowID returns a timestamp-based identifier for a child row. The
// offset keeps rows created in the same batch distinct even when the
// clock does not advance between calls.
func newRowID(offset int) uint64 {
	return uint64(time.Now().UnixNano()) + uint64(offset)
}

// ================================================================
// STATISTICS
// ================================================================

// GetInvoiceStats returns invoice statistics for the dashboard
func (r *InvoiceRepository) GetInvoiceStats() (*models.InvoiceStats, error) {
	stats := &models.InvoiceStats{}

	if err := r.db.DB.Model(&models.Invoice{}).Count(&stats.TotalInvoices).Error; err != nil {
		return nil, fmt.Errorf("failed to count invoices: %v", err)
	}

	r.db.DB.Model(&models.Invoice{}).Where("status = ?", models.StatusDraft).Count(&stats.DraftCount)
	r.db.DB.Model(&models.Invoice{}).Where("status = ?", models.StatusPending).Count(&stats.PendingCount)
	r.db.DB.Model(&models.Invoice{}).Where("status = ?", models.StatusPaid).Count(&stats.PaidCount)

	r.db.DB.Model(&models.Invoice{}).
		Where("status = ?", models.StatusPaid).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.TotalRevenue)

	r.db.DB.Model(&models.Invoice{}).
		Where("status = ?", models.StatusPending).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.Outstanding)

	return stats, nil
}
