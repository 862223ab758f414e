package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-invoice-webapp/internal/config"
	"go-invoice-webapp/internal/models"
	"go-invoice-webapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore is an in-memory InvoiceStore keyed by invoice number.
type stubStore struct {
	invoices map[string]*models.Invoice

	lastFilter *models.InvoiceFilter
	failWith   error
}

func newStubStore() *stubStore {
	return &stubStore{invoices: make(map[string]*models.Invoice)}
}

func (s *stubStore) CreateInvoice(request *models.InvoiceRequest) (*models.Invoice, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	invoice := &models.Invoice{
		InvoiceID:     uint64(time.Now().UnixMilli()),
		InvoiceNumber: models.RandomInvoiceNumber(),
		IssueDate:     request.IssueDate,
		PaymentDue:    models.PaymentDueDate(request.IssueDate, request.PaymentTerms),
		Description:   request.Description,
		PaymentTerms:  request.PaymentTerms,
		ClientName:    request.ClientName,
		ClientEmail:   request.ClientEmail,
		Status:        request.Status,
	}
	for _, ir := range request.Items {
		li := models.InvoiceItem{Name: ir.Name, Quantity: ir.Quantity, Price: ir.Price}
		li.CalculateTotal()
		invoice.Items = append(invoice.Items, li)
	}
	invoice.CalculateTotal()
	s.invoices[invoice.InvoiceNumber] = invoice
	return invoice, nil
}

func (s *stubStore) GetInvoiceByNumber(number string) (*models.Invoice, error) {
	if inv, ok := s.invoices[number]; ok {
		return inv, nil
	}
	return nil, fmt.Errorf("invoice %s not found", number)
}

func (s *stubStore) GetInvoices(filter *models.InvoiceFilter) ([]models.Invoice, error) {
	s.lastFilter = filter
	var out []models.Invoice
	for _, inv := range s.invoices {
		if filter.Status != "" && filter.Status != "all" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (s *stubStore) UpdateInvoice(number string, request *models.InvoiceRequest) (*models.Invoice, error) {
	inv, err := s.GetInvoiceByNumber(number)
	if err != nil {
		return nil, err
	}
	inv.Description = request.Description
	inv.PaymentTerms = request.PaymentTerms
	inv.IssueDate = request.IssueDate
	inv.PaymentDue = models.PaymentDueDate(request.IssueDate, request.PaymentTerms)
	if request.Status != "" {
		inv.Status = request.Status
	}
	return inv, nil
}

func (s *stubStore) MarkInvoicePaid(number string) (*models.Invoice, error) {
	inv, err := s.GetInvoiceByNumber(number)
	if err != nil {
		return nil, err
	}
	if !inv.IsPaid() {
		now := time.Now()
		inv.Status = models.StatusPaid
		inv.PaidAt = &now
	}
	return inv, nil
}

func (s *stubStore) DeleteInvoice(number string) error {
	if _, ok := s.invoices[number]; !ok {
		return fmt.Errorf("invoice %s not found", number)
	}
	delete(s.invoices, number)
	return nil
}

func (s *stubStore) GetInvoiceStats() (*models.InvoiceStats, error) {
	stats := &models.InvoiceStats{TotalInvoices: int64(len(s.invoices))}
	for _, inv := range s.invoices {
		switch inv.Status {
		case models.StatusDraft:
			stats.DraftCount++
		case models.StatusPending:
			stats.PendingCount++
			stats.Outstanding += inv.Total
		case models.StatusPaid:
			stats.PaidCount++
			stats.TotalRevenue += inv.Total
		}
	}
	return stats, nil
}

func setupTestRouter(store InvoiceStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	invoiceCfg := &config.InvoiceConfig{CurrencySymbol: "£", DefaultPaymentTerms: 1}
	pdfService := services.NewPDFService(invoiceCfg, services.NewBarcodeService())
	handler := NewInvoiceHandler(store, pdfService)

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/invoices", handler.ListInvoices)
		api.POST("/invoices", handler.CreateInvoice)
		api.GET("/invoices/stats", handler.GetInvoiceStats)
		api.GET("/invoices/:number", handler.GetInvoice)
		api.PUT("/invoices/:number", handler.UpdateInvoice)
		api.DELETE("/invoices/:number", handler.DeleteInvoice)
		api.POST("/invoices/:number/paid", handler.MarkInvoicePaid)
		api.GET("/invoices/:number/pdf", handler.DownloadInvoicePDF)
	}
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createPayload() map[string]interface{} {
	return map[string]interface{}{
		"issueDate":    "2024-01-01",
		"description":  "Graphic design",
		"paymentTerms": 7,
		"clientName":   "Alex Grim",
		"clientEmail":  "alexgrim@mail.com",
		"status":       "pending",
		"senderAddress": map[string]string{
			"street": "19 Union Terrace", "city": "London", "postCode": "E1 3EZ", "country": "United Kingdom",
		},
		"clientAddress": map[string]string{
			"street": "84 Church Way", "city": "Bradford", "postCode": "BD1 9PB", "country": "United Kingdom",
		},
		"items": []map[string]interface{}{
			{"name": "Banner design", "quantity": 2, "price": 50},
		},
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateInvoice(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	w := performRequest(router, http.MethodPost, "/api/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	number, ok := body["invoiceNumber"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^[A-Z]{2}[0-9]{4}$`, number)
	assert.Equal(t, "/invoice/"+number, w.Header().Get("Location"))

	invoice := body["invoice"].(map[string]interface{})
	assert.Equal(t, "2024-01-08", invoice["paymentDue"])
	assert.Equal(t, 100.0, invoice["total"])
}

func TestCreateInvoiceValidation(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		payload := createPayload()
		payload["clientEmail"] = "not-an-email"
		w := performRequest(router, http.MethodPost, "/api/invoices", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("paid status rejected on create", func(t *testing.T) {
		payload := createPayload()
		payload["status"] = "paid"
		w := performRequest(router, http.MethodPost, "/api/invoices", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero quantity item", func(t *testing.T) {
		payload := createPayload()
		payload["items"] = []map[string]interface{}{{"name": "x", "quantity": 0, "price": 10}}
		w := performRequest(router, http.MethodPost, "/api/invoices", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.Empty(t, store.invoices, "no invoice may be stored on a rejected request")
}

func TestGetInvoice(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	w := performRequest(router, http.MethodPost, "/api/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	number := decodeBody(t, w)["invoiceNumber"].(string)

	t.Run("found", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices/"+number, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		invoice := body["invoice"].(map[string]interface{})
		assert.Equal(t, number, invoice["invoiceNumber"])
	})

	t.Run("unknown number", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices/ZZ0000", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListInvoicesFilter(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	for _, status := range []string{"draft", "pending", "pending"} {
		payload := createPayload()
		payload["status"] = status
		w := performRequest(router, http.MethodPost, "/api/invoices", payload)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("no filter returns all", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, 3.0, body["totalCount"])
	})

	t.Run("status filter narrows the list", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices?status=pending", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, 2.0, body["totalCount"])
		for _, raw := range body["invoices"].([]interface{}) {
			inv := raw.(map[string]interface{})
			assert.Equal(t, "pending", inv["status"])
		}
	})

	t.Run("paid filter on empty set", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices?status=paid", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, 0.0, body["totalCount"])
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices?status=overdue", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateInvoice(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	w := performRequest(router, http.MethodPost, "/api/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	number := decodeBody(t, w)["invoiceNumber"].(string)

	t.Run("updates and rederives due date", func(t *testing.T) {
		payload := createPayload()
		payload["paymentTerms"] = 30
		payload["description"] = "Graphic design, revised"
		w := performRequest(router, http.MethodPut, "/api/invoices/"+number, payload)
		require.Equal(t, http.StatusOK, w.Code)

		invoice := decodeBody(t, w)["invoice"].(map[string]interface{})
		assert.Equal(t, "Graphic design, revised", invoice["description"])
		assert.Equal(t, "2024-01-31", invoice["paymentDue"])
	})

	t.Run("unknown number", func(t *testing.T) {
		w := performRequest(router, http.MethodPut, "/api/invoices/ZZ0000", createPayload())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		payload := createPayload()
		payload["paymentTerms"] = 0
		w := performRequest(router, http.MethodPut, "/api/invoices/"+number, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMarkInvoicePaid(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	w := performRequest(router, http.MethodPost, "/api/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	number := decodeBody(t, w)["invoiceNumber"].(string)

	w = performRequest(router, http.MethodPost, "/api/invoices/"+number+"/paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", decodeBody(t, w)["status"])

	paidAt := store.invoices[number].PaidAt
	require.NotNil(t, paidAt)

	// Repeating the action changes nothing
	w = performRequest(router, http.MethodPost, "/api/invoices/"+number+"/paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", decodeBody(t, w)["status"])
	assert.Equal(t, paidAt, store.invoices[number].PaidAt)

	t.Run("unknown number", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/invoices/ZZ0000/paid", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteInvoice(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	w := performRequest(router, http.MethodPost, "/api/invoices", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	number := decodeBody(t, w)["invoiceNumber"].(string)

	w = performRequest(router, http.MethodDelete, "/api/invoices/"+number, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.invoices)

	// Deleting again reports not found
	w = performRequest(router, http.MethodDelete, "/api/invoices/"+number, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetInvoiceStats(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	payload := createPayload()
	w := performRequest(router, http.MethodPost, "/api/invoices", payload)
	require.Equal(t, http.StatusCreated, w.Code)
	number := decodeBody(t, w)["invoiceNumber"].(string)

	payload = createPayload()
	payload["status"] = "draft"
	w = performRequest(router, http.MethodPost, "/api/invoices", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(router, http.MethodPost, "/api/invoices/"+number+"/paid", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/invoices/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, 2.0, stats["totalInvoices"])
	assert.Equal(t, 1.0, stats["draftCount"])
	assert.Equal(t, 1.0, stats["paidCount"])
	assert.Equal(t, 100.0, stats["totalRevenue"])
}

func TestDownloadInvoicePDF(t *testing.T) {
	store := newStubStore()
	router := setupTestRouter(store)

	payload := createPayload()
	w := performRequest(router, http.MethodPost, "/api/invoices", payload)
	require.Equal(t, http.StatusCreated, w.Code)
	number := decodeBody(t, w)["invoiceNumber"].(string)

	// The stub keeps addresses nil; the PDF renderer must cope.
	w = performRequest(router, http.MethodGet, "/api/invoices/"+number+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Invoice_"+number+".pdf")
	require.GreaterOrEqual(t, w.Body.Len(), 4)
	assert.Equal(t, "%PDF", w.Body.String()[:4])

	t.Run("unknown number", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/invoices/ZZ0000/pdf", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
