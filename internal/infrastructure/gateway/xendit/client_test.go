package xendit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/gateway"
)

func TestCreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/invoices", r.URL.Path)
		// Basic auth with the api key as username and empty password.
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test-key", user)
		assert.Equal(t, "", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "subscription-abc", body["external_id"])
		assert.Equal(t, float64(86400), body["invoice_duration"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "inv_123",
			"external_id": "subscription-abc",
			"status":      "PENDING",
			"amount":      399,
			"currency":    "PHP",
			"invoice_url": "https://pay.example.com/inv_123",
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, zap.NewNop())
	invoice, err := c.CreateInvoice(context.Background(), gateway.CreateInvoiceRequest{
		ExternalID:         "subscription-abc",
		Amount:             decimal.NewFromInt(399),
		Currency:           "PHP",
		InvoiceDurationSec: 86400,
		Customer:           gateway.Customer{GivenNames: "Juan dela Cruz", Email: "a@b.c"},
	})

	require.NoError(t, err)
	assert.Equal(t, "inv_123", invoice.ID)
	assert.Equal(t, gateway.InvoiceStatusPending, invoice.Status)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(399)))
	assert.Equal(t, "https://pay.example.com/inv_123", invoice.InvoiceURL)
}

func TestCreateInvoice_RejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code":"INVALID_API_KEY"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", srv.URL, zap.NewNop())
	_, err := c.CreateInvoice(context.Background(), gateway.CreateInvoiceRequest{ExternalID: "x"})
	assert.Error(t, err)
}

func TestGetInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/invoices/inv_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         "inv_123",
			"status":     "PAID",
			"amount":     "199.00",
			"payment_id": "pay_9",
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, zap.NewNop())
	invoice, err := c.GetInvoice(context.Background(), "inv_123")

	require.NoError(t, err)
	assert.Equal(t, gateway.InvoiceStatusPaid, invoice.Status)
	assert.Equal(t, "pay_9", invoice.PaymentID)
	assert.True(t, invoice.Amount.Equal(decimal.NewFromInt(199)))
}

func TestGetInvoice_GatewayErrorsAreNonTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	c := NewClient("test-key", srv.URL, zap.NewNop())
	invoice, err := c.GetInvoice(context.Background(), "inv_123")
	require.NoError(t, err)
	assert.Equal(t, gateway.InvoiceStatusUnknown, invoice.Status)

	// An unreachable gateway reports UNKNOWN too.
	srv.Close()
	invoice, err = c.GetInvoice(context.Background(), "inv_123")
	require.NoError(t, err)
	assert.Equal(t, gateway.InvoiceStatusUnknown, invoice.Status)
}
