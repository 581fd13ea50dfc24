package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Invoice statuses reported by the payment gateway.
const (
	InvoiceStatusPaid    = "PAID"
	InvoiceStatusPending = "PENDING"
	InvoiceStatusExpired = "EXPIRED"
	// InvoiceStatusUnknown is reported when the gateway could not be
	// reached or answered with a non-success status. Callers must treat
	// it as non-terminal and retryable.
	InvoiceStatusUnknown = "UNKNOWN"
)

// Invoice is the gateway-side payment request record.
type Invoice struct {
	ID         string
	ExternalID string
	Status     string
	Amount     decimal.Decimal
	Currency   string
	PaymentID  string
	InvoiceURL string
}

// Customer identifies the payer on an invoice.
type Customer struct {
	GivenNames string
	Email      string
}

// Item is an invoice line item.
type Item struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	Category string
}

// CreateInvoiceRequest describes a new invoice.
type CreateInvoiceRequest struct {
	ExternalID         string
	Amount             decimal.Decimal
	Currency           string
	Description        string
	InvoiceDurationSec int
	Customer           Customer
	SuccessRedirectURL string
	FailureRedirectURL string
	Items              []Item
}

// Client is the payment gateway invoice API.
type Client interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}
