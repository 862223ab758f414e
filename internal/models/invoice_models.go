package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Invoice status values. An invoice is saved as a draft or as pending;
// "paid" is terminal and is only reached through the mark-as-paid action.
const (
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// ValidStatus reports whether s is one of the known invoice statuses.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPending || s == StatusPaid
}

// Invoice represents an invoice document. The primary key is a
// millisecond timestamp assigned at creation time and used as the join
// value for the address and item rows; InvoiceNumber is the separate
// human-facing code shown in lists, URLs and PDFs.
type Invoice struct {
	InvoiceID     uint64  `gorm:"primaryKey;column:invoice_id" json:"invoiceId"`
	InvoiceNumber string  `gorm:"uniqueIndex;not null;column:invoice_number" json:"invoiceNumber"`
	IssueDate     Date    `gorm:"type:date;not null;column:issue_date" json:"issueDate"`
	PaymentDue    Date    `gorm:"type:date;not null;column:payment_due" json:"paymentDue"`
	Description   string  `gorm:"type:text;column:description" json:"description"`
	PaymentTerms  int     `gorm:"not null;default:1;column:payment_terms" json:"paymentTerms"`
	ClientName    string  `gorm:"not null;column:client_name" json:"clientName"`
	ClientEmail   string  `gorm:"not null;column:client_email" json:"clientEmail"`
	Status        string  `gorm:"type:enum('draft','pending','paid');not null;default:'pending';column:status" json:"status"`
	Total         float64 `gorm:"type:decimal(12,2);not null;default:0.00;column:total" json:"total"`

	PaidAt    *time.Time `gorm:"column:paid_at" json:"paidAt"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updatedAt"`

	SenderAddress *SenderAddress `gorm:"foreignKey:InvoiceID;references:InvoiceID" json:"senderAddress,omitempty"`
	ClientAddress *ClientAddress `gorm:"foreignKey:InvoiceID;references:InvoiceID" json:"clientAddress,omitempty"`
	Items         []InvoiceItem  `gorm:"foreignKey:InvoiceID;references:InvoiceID" json:"items"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// CalculateTotal sums the items' total fields into the invoice total.
// It deliberately trusts each item's Total rather than recomputing from
// quantity and price; keeping item totals in sync is the writer's job.
func (i *Invoice) CalculateTotal() {
	i.Total = 0
	for _, item := range i.Items {
		i.Total += item.Total
	}
}

// IsPaid reports whether the invoice has reached its terminal status.
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid
}

// SenderAddress is the issuing party's address, one row per invoice.
type SenderAddress struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	InvoiceID uint64    `gorm:"not null;index;column:invoice_id" json:"invoiceId"`
	Street    string    `gorm:"not null;column:street" json:"street"`
	City      string    `gorm:"not null;column:city" json:"city"`
	PostCode  string    `gorm:"not null;column:post_code" json:"postCode"`
	Country   string    `gorm:"not null;column:country" json:"country"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (SenderAddress) TableName() string {
	return "sender_addresses"
}

// ClientAddress is the billed party's address, one row per invoice.
type ClientAddress struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	InvoiceID uint64    `gorm:"not null;index;column:invoice_id" json:"invoiceId"`
	Street    string    `gorm:"not null;column:street" json:"street"`
	City      string    `gorm:"not null;column:city" json:"city"`
	PostCode  string    `gorm:"not null;column:post_code" json:"postCode"`
	Country   string    `gorm:"not null;column:country" json:"country"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (ClientAddress) TableName() string {
	return "client_addresses"
}

// InvoiceItem represents one line on an invoice.
type InvoiceItem struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	InvoiceID uint64    `gorm:"not null;index;column:invoice_id" json:"invoiceId"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Quantity  float64   `gorm:"type:decimal(10,2);not null;default:1.00;column:quantity" json:"quantity"`
	Price     float64   `gorm:"type:decimal(12,2);not null;default:0.00;column:price" json:"price"`
	Total     float64   `gorm:"type:decimal(12,2);not null;default:0.00;column:total" json:"total"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// CalculateTotal sets Total to quantity times price. Inputs are assumed
// to have passed validation; no clamping happens here.
func (it *InvoiceItem) CalculateTotal() {
	it.Total = it.Quantity * it.Price
}

// Validate validates the item data
func (it *InvoiceItem) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("item name is required")
	}
	if it.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if it.Price < 1 {
		return fmt.Errorf("price must be at least 1")
	}
	return nil
}

// PaymentDueDate returns the payment due date for an invoice issued on
// issue with the given payment term in days. The arithmetic is
// calendar-day only; no time-of-day or timezone component is involved.
func PaymentDueDate(issue Date, termDays int) Date {
	return issue.AddDays(termDays)
}

const invoiceNumberLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomInvoiceNumber produces a candidate invoice number: two random
// uppercase letters followed by a four digit number in [1000,9999].
// With roughly 676,000 combinations collisions are rare but possible,
// so persistence checks uniqueness and retries.
func RandomInvoiceNumber() string {
	l1 := invoiceNumberLetters[rand.Intn(len(invoiceNumberLetters))]
	l2 := invoiceNumberLetters[rand.Intn(len(invoiceNumberLetters))]
	n := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%c%c%d", l1, l2, n)
}

// ================================================================
// DTOs and Request/Response Models
// ================================================================

// AddressRequest carries one address of the aggregate in a create or
// update request.
type AddressRequest struct {
	Street   string `json:"street" binding:"required"`
	City     string `json:"city" binding:"required"`
	PostCode string `json:"postCode" binding:"required"`
	Country  string `json:"country" binding:"required"`
}

// ItemRequest carries one line item. ID is optional; on update a known
// ID upserts the existing row, a zero ID creates a new one.
type ItemRequest struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gte=1"`
	Price    float64 `json:"price" binding:"required,gte=1"`
}

// Validate validates the item request
func (ir *ItemRequest) Validate() error {
	if strings.TrimSpace(ir.Name) == "" {
		return fmt.Errorf("item name is required")
	}
	if ir.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if ir.Price < 1 {
		return fmt.Errorf("price must be at least 1")
	}
	return nil
}

// InvoiceRequest represents the request to create or update an invoice
// together with its addresses and items.
type InvoiceRequest struct {
	IssueDate     Date           `json:"issueDate" binding:"required"`
	Description   string         `json:"description" binding:"required"`
	PaymentTerms  int            `json:"paymentTerms" binding:"required,gt=0"`
	ClientName    string         `json:"clientName" binding:"required"`
	ClientEmail   string         `json:"clientEmail" binding:"required,email"`
	Status        string         `json:"status" binding:"omitempty,oneof=draft pending"`
	SenderAddress AddressRequest `json:"senderAddress" binding:"required"`
	ClientAddress AddressRequest `json:"clientAddress" binding:"required"`
	Items         []ItemRequest  `json:"items" binding:"dive"`
}

// Validate validates the invoice request beyond what binding covers.
// An empty item list is allowed; drafts are often saved half-filled.
func (r *InvoiceRequest) Validate() error {
	if r.IssueDate.IsZero() {
		return fmt.Errorf("issue date is required")
	}
	if r.PaymentTerms <= 0 {
		return fmt.Errorf("payment terms must be a positive number of days")
	}
	if r.Status != "" && r.Status != StatusDraft && r.Status != StatusPending {
		return fmt.Errorf("status must be draft or pending")
	}
	for i, item := range r.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %v", i+1, err)
		}
	}
	return nil
}

// InvoiceFilter represents filters for listing invoices
type InvoiceFilter struct {
	Status string `form:"status" json:"status"`
}

// Validate validates the filter
func (f *InvoiceFilter) Validate() error {
	switch f.Status {
	case "", "all", StatusDraft, StatusPending, StatusPaid:
		return nil
	}
	return fmt.Errorf("invalid status filter: %s", f.Status)
}

// InvoiceStats summarizes the invoice table for the dashboard.
type InvoiceStats struct {
	TotalInvoices int64   `json:"totalInvoices"`
	DraftCount    int64   `json:"draftCount"`
	PendingCount  int64   `json:"pendingCount"`
	PaidCount     int64   `json:"paidCount"`
	TotalRevenue  float64 `json:"totalRevenue"`
	Outstanding   float64 `json:"outstanding"`
}
