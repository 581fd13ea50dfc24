package xendit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/gateway"
)

const (
	defaultBaseURL = "https://api.xendit.co"
	requestTimeout = 30 * time.Second
)

// Client talks to the Xendit invoice API over HTTPS with basic auth. It
// implements gateway.Client.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

type invoiceResponse struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	Amount     flexAmount `json:"amount"`
	Currency   string     `json:"currency"`
	PaymentID  string     `json:"payment_id"`
	InvoiceURL string     `json:"invoice_url"`
}

// flexAmount tolerates the amount arriving as either a JSON number or a
// quoted string, which varies across gateway API versions.
type flexAmount struct {
	decimal.Decimal
}

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", v, err)
		}
		a.Decimal = d
	case nil:
		a.Decimal = decimal.Zero
	default:
		return fmt.Errorf("unexpected amount type %T", raw)
	}
	return nil
}

func (r *invoiceResponse) toInvoice() *gateway.Invoice {
	return &gateway.Invoice{
		ID:         r.ID,
		ExternalID: r.ExternalID,
		Status:     r.Status,
		Amount:     r.Amount.Decimal,
		Currency:   r.Currency,
		PaymentID:  r.PaymentID,
		InvoiceURL: r.InvoiceURL,
	}
}

// CreateInvoice creates a payment invoice.
// POST /v2/invoices
func (c *Client) CreateInvoice(ctx context.Context, req gateway.CreateInvoiceRequest) (*gateway.Invoice, error) {
	body := map[string]interface{}{
		"external_id":      req.ExternalID,
		"amount":           req.Amount.InexactFloat64(),
		"currency":         req.Currency,
		"description":      req.Description,
		"invoice_duration": req.InvoiceDurationSec,
		"customer": map[string]string{
			"given_names": req.Customer.GivenNames,
			"email":       req.Customer.Email,
		},
		"success_redirect_url": req.SuccessRedirectURL,
		"failure_redirect_url": req.FailureRedirectURL,
	}
	if len(req.Items) > 0 {
		items := make([]map[string]interface{}, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, map[string]interface{}{
				"name":     it.Name,
				"quantity": it.Quantity,
				"price":    it.Price.InexactFloat64(),
				"category": it.Category,
			})
		}
		body["items"] = items
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/invoices", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Invoice creation request failed", zap.Error(err))
		return nil, fmt.Errorf("invoice API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Invoice creation rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("external_id", req.ExternalID),
			zap.String("response", string(respBody)))
		return nil, fmt.Errorf("invoice API returned status %d", resp.StatusCode)
	}

	var result invoiceResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse invoice response: %w", err)
	}

	c.logger.Info("Invoice created",
		zap.String("invoice_id", result.ID),
		zap.String("external_id", result.ExternalID))
	return result.toInvoice(), nil
}

// GetInvoice fetches the current state of an invoice. A non-success
// answer from the gateway is reported as an UNKNOWN invoice rather than
// an error, so callers treat it as non-terminal.
// GET /v2/invoices/{id}
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*gateway.Invoice, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/invoices/"+url.PathEscape(invoiceID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Warn("Invoice status request failed",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return &gateway.Invoice{ID: invoiceID, Status: gateway.InvoiceStatusUnknown}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Invoice status query rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("invoice_id", invoiceID))
		return &gateway.Invoice{ID: invoiceID, Status: gateway.InvoiceStatusUnknown}, nil
	}

	var result invoiceResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse invoice response: %w", err)
	}
	return result.toInvoice(), nil
}

func (c *Client) setHeaders(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
}
