package webhook

// EventKind is the classified symbolic label of a webhook delivery.
type EventKind string

const (
	EventInvoicePaid           EventKind = "invoice.paid"
	EventInvoiceExpired        EventKind = "invoice.expired"
	EventInvoiceCancelled      EventKind = "invoice.cancelled"
	EventInvoiceVoided         EventKind = "invoice.voided"
	EventPaymentCompleted      EventKind = "payment.completed"
	EventPaymentSucceeded      EventKind = "payment.succeeded"
	EventPaymentFailed         EventKind = "payment.failed"
	EventPaymentPending        EventKind = "payment.pending"
	EventPaymentAfterExpiry    EventKind = "payment.after_expiry"
	EventDisbursementCompleted EventKind = "disbursement.completed"
	EventDisbursementFailed    EventKind = "disbursement.failed"
	EventRefundCompleted       EventKind = "refund.completed"
	EventRefundFailed          EventKind = "refund.failed"
	EventUnknown               EventKind = "unknown"
)

// knownKinds is the closed set of event kinds the reconciler understands.
var knownKinds = map[string]EventKind{
	string(EventInvoicePaid):           EventInvoicePaid,
	string(EventInvoiceExpired):        EventInvoiceExpired,
	string(EventInvoiceCancelled):      EventInvoiceCancelled,
	string(EventInvoiceVoided):         EventInvoiceVoided,
	string(EventPaymentCompleted):      EventPaymentCompleted,
	string(EventPaymentSucceeded):      EventPaymentSucceeded,
	string(EventPaymentFailed):         EventPaymentFailed,
	string(EventPaymentPending):        EventPaymentPending,
	string(EventPaymentAfterExpiry):    EventPaymentAfterExpiry,
	string(EventDisbursementCompleted): EventDisbursementCompleted,
	string(EventDisbursementFailed):    EventDisbursementFailed,
	string(EventRefundCompleted):       EventRefundCompleted,
	string(EventRefundFailed):          EventRefundFailed,
}

// IsPaid reports whether the kind settles a payment. A paid event arriving
// for an already-expired invoice still settles it.
func (k EventKind) IsPaid() bool {
	switch k {
	case EventInvoicePaid, EventPaymentCompleted, EventPaymentSucceeded, EventPaymentAfterExpiry:
		return true
	}
	return false
}

// MutatesSubscription reports whether the kind maps to a subscription
// state transition. Disbursement and refund events are log-only.
func (k EventKind) MutatesSubscription() bool {
	switch k {
	case EventInvoicePaid, EventInvoiceExpired, EventInvoiceCancelled, EventInvoiceVoided,
		EventPaymentCompleted, EventPaymentSucceeded, EventPaymentAfterExpiry,
		EventPaymentFailed, EventPaymentPending:
		return true
	}
	return false
}

// Classify maps a payload to an event kind. Strategies are tried in
// documented precedence order, first match wins:
//
//  1. explicit top-level event field
//  2. explicit nested data.event field
//  3. status plus the type discriminator (INVOICE, PAYMENT, ...)
//  4. payment-shaped fields alongside a PAID status
//  5. bare status without a discriminator, read as invoice events
//
// Anything else is EventUnknown. The layering exists because the gateway's
// payload shape drifts across integration versions; classification degrades
// instead of hard-failing.
func Classify(p Payload) EventKind {
	if event, ok := p.stringField("event"); ok {
		return lookupKind(event)
	}

	if data, ok := p.Nested("data"); ok {
		if event, ok := data.stringField("event"); ok {
			return lookupKind(event)
		}
	}

	status, hasStatus := p.Status()
	if !hasStatus {
		if data, ok := p.Nested("data"); ok {
			status, hasStatus = data.Status()
		}
	}
	if !hasStatus {
		return EventUnknown
	}

	if typ, ok := p.Type(); ok {
		return classifyTyped(typ, status)
	}

	if status == "PAID" && p.looksLikePayment() {
		return EventInvoicePaid
	}

	return classifyTyped("INVOICE", status)
}

func lookupKind(event string) EventKind {
	if kind, ok := knownKinds[event]; ok {
		return kind
	}
	return EventUnknown
}

func classifyTyped(typ, status string) EventKind {
	switch typ {
	case "INVOICE":
		switch status {
		case "PAID", "SUCCEEDED", "COMPLETED":
			return EventInvoicePaid
		case "EXPIRED":
			return EventInvoiceExpired
		case "CANCELLED", "CANCELED":
			return EventInvoiceCancelled
		case "VOIDED":
			return EventInvoiceVoided
		case "FAILED", "DECLINED":
			return EventPaymentFailed
		case "PENDING":
			return EventPaymentPending
		}
	case "PAYMENT":
		switch status {
		case "PAID", "SUCCEEDED", "COMPLETED":
			return EventPaymentCompleted
		case "FAILED", "DECLINED":
			return EventPaymentFailed
		case "PENDING":
			return EventPaymentPending
		}
	case "DISBURSEMENT":
		switch status {
		case "COMPLETED", "SUCCEEDED", "PAID":
			return EventDisbursementCompleted
		case "FAILED", "DECLINED":
			return EventDisbursementFailed
		}
	case "REFUND":
		switch status {
		case "COMPLETED", "SUCCEEDED", "PAID":
			return EventRefundCompleted
		case "FAILED", "DECLINED":
			return EventRefundFailed
		}
	}
	return EventUnknown
}

// looksLikePayment detects payment-shaped payloads that omit the type
// discriminator, as older bank-transfer invoice callbacks do.
func (p Payload) looksLikePayment() bool {
	for _, key := range []string{"payment_method", "payer_email", "paid_at"} {
		if _, ok := p.stringField(key); ok {
			return true
		}
	}
	return false
}
