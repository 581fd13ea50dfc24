package repository

import (
	"context"

	"github.com/paywatch/subscription-service/internal/domain/model"
)

// SubscriptionRepository persists subscriptions keyed by the gateway
// invoice id.
type SubscriptionRepository interface {
	// GetByID retrieves a subscription by its local id, nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Subscription, error)

	// GetByInvoiceID retrieves a subscription by its gateway invoice id,
	// nil when absent.
	GetByInvoiceID(ctx context.Context, invoiceID string) (*model.Subscription, error)

	// Create inserts a subscription. When a row with the same invoice id
	// already exists, the insert is a no-op and the existing row is
	// returned with created=false.
	Create(ctx context.Context, sub *model.Subscription) (result *model.Subscription, created bool, err error)

	// MarkPaid transitions the subscription for invoiceID to
	// active/paid. The update is conditional on the payment not already
	// being settled; applied=false means the row was already paid, and a
	// duplicate delivery must be reported as already processed.
	MarkPaid(ctx context.Context, invoiceID string, paymentID *string) (applied bool, err error)

	// UpdateStatus overwrites status and payment_status for invoiceID.
	// Missing rows are not an error; found=false reports them.
	UpdateStatus(ctx context.Context, invoiceID string, status model.SubscriptionStatus, payment model.PaymentStatus) (found bool, err error)

	// ListByPaymentStatus lists subscriptions in a payment state, oldest
	// first.
	ListByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]*model.Subscription, error)
}

// UserRepository persists users resolved from webhook payloads.
type UserRepository interface {
	// GetByEmail retrieves a user by email, nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID retrieves a user by id, nil when absent.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// Create inserts a user. When a row with the same email already
	// exists, the insert is a no-op and the existing row is returned.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FillMissingNames sets first/last name on a user only where the
	// stored field is empty. Populated fields are never overwritten.
	FillMissingNames(ctx context.Context, email, firstName, lastName string) error
}
