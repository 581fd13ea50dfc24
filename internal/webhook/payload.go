package webhook

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Payload is a raw webhook body. The gateway's payload shape is not
// contractually stable across integration versions, so fields are pulled
// out by ordered extractor strategies rather than bound to structs.
type Payload map[string]interface{}

// ParsePayload decodes a raw webhook body.
func ParsePayload(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p Payload) stringField(key string) (string, bool) {
	v, ok := p[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Nested returns a nested object field as a Payload.
func (p Payload) Nested(key string) (Payload, bool) {
	v, ok := p[key].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return Payload(v), true
}

// Status returns the upper-cased status field.
func (p Payload) Status() (string, bool) {
	s, ok := p.stringField("status")
	if !ok {
		return "", false
	}
	return strings.ToUpper(s), true
}

// Type returns the upper-cased type discriminator (INVOICE, PAYMENT, ...).
func (p Payload) Type() (string, bool) {
	t, ok := p.stringField("type")
	if !ok {
		return "", false
	}
	return strings.ToUpper(t), true
}

// InvoiceID extracts the gateway invoice id. Strategies in precedence
// order: top-level id, data.id, external_id.
func (p Payload) InvoiceID() (string, bool) {
	if id, ok := p.stringField("id"); ok {
		return id, true
	}
	if data, ok := p.Nested("data"); ok {
		if id, ok := data.stringField("id"); ok {
			return id, true
		}
	}
	return p.stringField("external_id")
}

// PaymentID extracts the gateway payment id, checking top-level then nested
// data. For bank-transfer payloads without a distinct payment id the
// invoice id doubles as the payment reference.
func (p Payload) PaymentID() (string, bool) {
	if id, ok := p.stringField("payment_id"); ok {
		return id, true
	}
	if data, ok := p.Nested("data"); ok {
		if id, ok := data.stringField("payment_id"); ok {
			return id, true
		}
	}
	return "", false
}

// PayerEmail extracts the payer's email. Strategies in precedence order:
// payer_email, customer.email, data.customer.email.
func (p Payload) PayerEmail() (string, bool) {
	if email, ok := p.stringField("payer_email"); ok {
		return email, true
	}
	if customer, ok := p.Nested("customer"); ok {
		if email, ok := customer.stringField("email"); ok {
			return email, true
		}
	}
	if data, ok := p.Nested("data"); ok {
		if customer, ok := data.Nested("customer"); ok {
			if email, ok := customer.stringField("email"); ok {
				return email, true
			}
		}
	}
	return "", false
}

// Amount extracts the invoice amount from amount or data.amount.
func (p Payload) Amount() (decimal.Decimal, bool) {
	if amount, ok := amountField(p["amount"]); ok {
		return amount, true
	}
	if data, ok := p.Nested("data"); ok {
		return amountField(data["amount"])
	}
	return decimal.Zero, false
}

func amountField(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Currency extracts the 3-letter currency code, defaulting to PHP.
func (p Payload) Currency() string {
	if c, ok := p.stringField("currency"); ok {
		return c
	}
	if data, ok := p.Nested("data"); ok {
		if c, ok := data.stringField("currency"); ok {
			return c
		}
	}
	return "PHP"
}

// CustomerName extracts the payer's first and last name, best-effort.
// Explicit given_names/surname fields win; a single full-name string is
// split on its first token; anything unparseable falls back to the
// "Unknown User" placeholder.
func (p Payload) CustomerName() (firstName, lastName string) {
	customer, ok := p.Nested("customer")
	if !ok {
		if data, dok := p.Nested("data"); dok {
			customer, ok = data.Nested("customer")
		}
	}
	if !ok {
		return "Unknown", "User"
	}

	first, hasFirst := customer.stringField("given_names")
	last, hasLast := customer.stringField("surname")
	if hasFirst || hasLast {
		if !hasFirst {
			first = "Unknown"
		}
		if !hasLast {
			last = "User"
		}
		return first, last
	}

	if full, ok := customer.stringField("name"); ok {
		parts := strings.Fields(full)
		switch len(parts) {
		case 0:
		case 1:
			return parts[0], "User"
		default:
			return parts[0], strings.Join(parts[1:], " ")
		}
	}

	return "Unknown", "User"
}

// ItemNames extracts the names of invoice line items, used for plan
// resolution.
func (p Payload) ItemNames() []string {
	items, ok := p["items"].([]interface{})
	if !ok {
		if data, dok := p.Nested("data"); dok {
			items, ok = data["items"].([]interface{})
		}
	}
	if !ok {
		return nil
	}

	var names []string
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := obj["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}
