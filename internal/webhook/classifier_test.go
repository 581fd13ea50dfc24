package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ExplicitEventField(t *testing.T) {
	tests := []struct {
		name  string
		event string
		want  EventKind
	}{
		{"invoice paid", "invoice.paid", EventInvoicePaid},
		{"invoice expired", "invoice.expired", EventInvoiceExpired},
		{"payment succeeded", "payment.succeeded", EventPaymentSucceeded},
		{"payment after expiry", "payment.after_expiry", EventPaymentAfterExpiry},
		{"disbursement completed", "disbursement.completed", EventDisbursementCompleted},
		{"refund failed", "refund.failed", EventRefundFailed},
		{"unrecognized event", "invoice.reminded", EventUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payload{"event": tt.event, "status": "PAID"}
			assert.Equal(t, tt.want, Classify(p))
		})
	}
}

func TestClassify_ExplicitEventWinsOverStatus(t *testing.T) {
	// The explicit event field outranks a contradicting status.
	p := Payload{
		"event":  "invoice.expired",
		"status": "PAID",
		"type":   "INVOICE",
	}
	assert.Equal(t, EventInvoiceExpired, Classify(p))
}

func TestClassify_NestedDataEvent(t *testing.T) {
	p := Payload{
		"data": map[string]interface{}{
			"event": "payment.failed",
			"id":    "inv_9",
		},
	}
	assert.Equal(t, EventPaymentFailed, Classify(p))
}

func TestClassify_TypedStatus(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		status string
		want   EventKind
	}{
		{"invoice paid", "INVOICE", "PAID", EventInvoicePaid},
		{"invoice settled", "INVOICE", "SETTLED", EventUnknown},
		{"invoice expired", "INVOICE", "EXPIRED", EventInvoiceExpired},
		{"invoice cancelled", "INVOICE", "CANCELLED", EventInvoiceCancelled},
		{"invoice canceled US spelling", "INVOICE", "CANCELED", EventInvoiceCancelled},
		{"invoice voided", "INVOICE", "VOIDED", EventInvoiceVoided},
		{"invoice declined", "INVOICE", "DECLINED", EventPaymentFailed},
		{"payment completed", "PAYMENT", "COMPLETED", EventPaymentCompleted},
		{"payment pending", "PAYMENT", "PENDING", EventPaymentPending},
		{"disbursement completed", "DISBURSEMENT", "COMPLETED", EventDisbursementCompleted},
		{"refund completed", "REFUND", "SUCCEEDED", EventRefundCompleted},
		{"lowercase type is normalized", "invoice", "paid", EventInvoicePaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payload{"type": tt.typ, "status": tt.status}
			assert.Equal(t, tt.want, Classify(p))
		})
	}
}

func TestClassify_PaymentShapedWithoutType(t *testing.T) {
	// Older bank-transfer callbacks carry payment fields but no type
	// discriminator. A PAID status on such a payload settles the invoice.
	p := Payload{
		"id":             "inv_77",
		"status":         "PAID",
		"payment_method": "BANK_TRANSFER",
	}
	assert.Equal(t, EventInvoicePaid, Classify(p))
}

func TestClassify_BareStatusReadAsInvoice(t *testing.T) {
	assert.Equal(t, EventInvoicePaid, Classify(Payload{"id": "inv_1", "status": "PAID", "payer_email": "a@b.c"}))
	assert.Equal(t, EventInvoiceExpired, Classify(Payload{"id": "inv_2", "status": "EXPIRED"}))
	assert.Equal(t, EventInvoiceVoided, Classify(Payload{"id": "inv_3", "status": "VOIDED"}))
}

func TestClassify_NestedStatus(t *testing.T) {
	p := Payload{
		"data": map[string]interface{}{
			"id":     "inv_5",
			"status": "EXPIRED",
		},
	}
	assert.Equal(t, EventInvoiceExpired, Classify(p))
}

func TestClassify_Unknown(t *testing.T) {
	assert.Equal(t, EventUnknown, Classify(Payload{}))
	assert.Equal(t, EventUnknown, Classify(Payload{"id": "inv_1"}))
	assert.Equal(t, EventUnknown, Classify(Payload{"status": "SOMETHING_NEW"}))
}

func TestEventKind_IsPaid(t *testing.T) {
	assert.True(t, EventInvoicePaid.IsPaid())
	assert.True(t, EventPaymentCompleted.IsPaid())
	assert.True(t, EventPaymentSucceeded.IsPaid())
	assert.True(t, EventPaymentAfterExpiry.IsPaid())

	assert.False(t, EventInvoiceExpired.IsPaid())
	assert.False(t, EventPaymentFailed.IsPaid())
	assert.False(t, EventRefundCompleted.IsPaid())
	assert.False(t, EventUnknown.IsPaid())
}

func TestEventKind_MutatesSubscription(t *testing.T) {
	assert.True(t, EventInvoicePaid.MutatesSubscription())
	assert.True(t, EventInvoiceExpired.MutatesSubscription())
	assert.True(t, EventPaymentPending.MutatesSubscription())

	assert.False(t, EventDisbursementCompleted.MutatesSubscription())
	assert.False(t, EventDisbursementFailed.MutatesSubscription())
	assert.False(t, EventRefundCompleted.MutatesSubscription())
	assert.False(t, EventUnknown.MutatesSubscription())
}
