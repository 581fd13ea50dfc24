package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/paywatch/subscription-service/internal/domain/model"
	"github.com/paywatch/subscription-service/internal/domain/repository"
	"github.com/paywatch/subscription-service/internal/webhook"
	"github.com/paywatch/subscription-service/pkg/errors"
)

// Outcome is the terminal result of processing a webhook delivery.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

var (
	// ErrNoInvoiceID is returned when no invoice id is derivable from any
	// known payload field for an event that needs one.
	ErrNoInvoiceID = errors.NewAppError(errors.ErrInvalidArgument, "No invoice ID found", nil)

	// ErrSubscriptionNotFound is returned when no subscription matches and
	// one could not be synthesized from the payload.
	ErrSubscriptionNotFound = errors.NewAppError(errors.ErrNotFound, "Subscription not found", nil)
)

// Mailer sends transactional mail. Failures are logged and swallowed; a
// mail problem never rolls back a committed state change.
type Mailer interface {
	SendPaymentConfirmation(ctx context.Context, user *model.User, sub *model.Subscription, plan model.Plan) error
	SendInvoice(ctx context.Context, user *model.User, sub *model.Subscription, plan model.Plan, invoiceURL string) error
}

// Reconciler applies classified webhook events to subscription records.
type Reconciler struct {
	subscriptions repository.SubscriptionRepository
	users         repository.UserRepository
	mailer        Mailer
	logger        *zap.Logger
	now           func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the reconciler's time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

func NewReconciler(
	subscriptions repository.SubscriptionRepository,
	users repository.UserRepository,
	mailer Mailer,
	logger *zap.Logger,
	opts ...Option,
) *Reconciler {
	r := &Reconciler{
		subscriptions: subscriptions,
		users:         users,
		mailer:        mailer,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process applies one classified delivery. The same delivery may arrive
// more than once; paid transitions are conditional on the row not already
// being settled, so a duplicate reports OutcomeAlreadyProcessed without
// re-applying.
func (r *Reconciler) Process(ctx context.Context, kind webhook.EventKind, p webhook.Payload) (Outcome, error) {
	switch {
	case kind == webhook.EventUnknown:
		r.logger.Info("unhandled webhook event kind", zap.String("event_kind", string(kind)))
		return OutcomeIgnored, nil

	case kind.IsPaid():
		return r.processPaid(ctx, p)

	case kind.MutatesSubscription():
		return r.processTransition(ctx, kind, p)

	default:
		// Disbursement and refund events carry no subscription state.
		invoiceID, _ := p.InvoiceID()
		amount, _ := p.Amount()
		r.logger.Info("webhook event received, no subscription mutation",
			zap.String("event_kind", string(kind)),
			zap.String("reference_id", invoiceID),
			zap.String("amount", amount.String()))
		return OutcomeSuccess, nil
	}
}

func (r *Reconciler) processPaid(ctx context.Context, p webhook.Payload) (Outcome, error) {
	invoiceID, ok := p.InvoiceID()
	if !ok {
		return "", ErrNoInvoiceID
	}

	sub, err := r.subscriptions.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return "", fmt.Errorf("failed to look up subscription: %w", err)
	}

	if sub == nil {
		created, createdSub, err := r.createFromWebhook(ctx, invoiceID, p)
		if err != nil {
			return "", err
		}
		if created {
			r.sendConfirmation(ctx, createdSub, createdSub.User)
			return OutcomeSuccess, nil
		}
		if createdSub == nil {
			r.logger.Error("failed to create or find subscription for paid invoice",
				zap.String("invoice_id", invoiceID))
			return "", ErrSubscriptionNotFound
		}
		// Lost a creation race; the existing row takes the normal path.
	}

	paymentID := r.paymentReference(p, invoiceID)
	applied, err := r.subscriptions.MarkPaid(ctx, invoiceID, &paymentID)
	if err != nil {
		return "", fmt.Errorf("failed to update subscription payment status: %w", err)
	}

	if !applied {
		r.logger.Info("payment already processed for subscription",
			zap.String("invoice_id", invoiceID))
		return OutcomeAlreadyProcessed, nil
	}

	r.logger.Info("subscription payment status updated",
		zap.String("invoice_id", invoiceID),
		zap.String("payment_id", paymentID))

	updated, err := r.subscriptions.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		r.logger.Warn("failed to reload subscription for confirmation email",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
	} else if updated != nil {
		r.sendConfirmation(ctx, updated, updated.User)
	}

	return OutcomeSuccess, nil
}

func (r *Reconciler) processTransition(ctx context.Context, kind webhook.EventKind, p webhook.Payload) (Outcome, error) {
	invoiceID, ok := p.InvoiceID()
	if !ok {
		return "", ErrNoInvoiceID
	}

	status, payment := transitionFor(kind)

	found, err := r.subscriptions.UpdateStatus(ctx, invoiceID, status, payment)
	if err != nil {
		return "", fmt.Errorf("failed to update subscription status: %w", err)
	}

	if !found {
		r.logger.Info("no subscription matches webhook invoice",
			zap.String("invoice_id", invoiceID),
			zap.String("event_kind", string(kind)))
		return OutcomeSuccess, nil
	}

	r.logger.Info("subscription status updated",
		zap.String("invoice_id", invoiceID),
		zap.String("status", string(status)),
		zap.String("payment_status", string(payment)))
	return OutcomeSuccess, nil
}

// transitionFor maps a non-paid mutating event kind to its target states.
func transitionFor(kind webhook.EventKind) (model.SubscriptionStatus, model.PaymentStatus) {
	switch kind {
	case webhook.EventInvoiceExpired:
		return model.SubscriptionStatusExpired, model.PaymentStatusExpired
	case webhook.EventInvoiceCancelled:
		return model.SubscriptionStatusCancelled, model.PaymentStatusCancelled
	case webhook.EventInvoiceVoided:
		return model.SubscriptionStatusVoided, model.PaymentStatusVoided
	case webhook.EventPaymentFailed:
		return model.SubscriptionStatusFailed, model.PaymentStatusFailed
	default:
		return model.SubscriptionStatusPending, model.PaymentStatusPending
	}
}

// createFromWebhook synthesizes the subscription a paid event references
// but purchase-time creation never produced. Returns created=false with a
// non-nil subscription when a concurrent delivery inserted the row first,
// and (false, nil, nil) when the payload cannot support creation.
func (r *Reconciler) createFromWebhook(ctx context.Context, invoiceID string, p webhook.Payload) (bool, *model.Subscription, error) {
	amount, ok := p.Amount()
	if !ok || !amount.IsPositive() {
		r.logger.Warn("cannot create subscription from webhook without a positive amount",
			zap.String("invoice_id", invoiceID))
		return false, nil, nil
	}

	user, err := r.resolveUser(ctx, p)
	if err != nil {
		return false, nil, err
	}

	plan := model.InferPlan(p.ItemNames(), amount)
	now := r.now()
	end := now.AddDate(0, 1, 0)
	paymentID := r.paymentReference(p, invoiceID)

	sub := &model.Subscription{
		PlanID:          string(plan),
		Status:          model.SubscriptionStatusActive,
		PaymentStatus:   model.PaymentStatusPaid,
		XenditInvoiceID: &invoiceID,
		XenditPaymentID: &paymentID,
		Amount:          amount,
		Currency:        p.Currency(),
		StartDate:       &now,
		EndDate:         &end,
	}
	if user != nil {
		sub.UserID = &user.ID
		sub.User = user
	}

	result, created, err := r.subscriptions.Create(ctx, sub)
	if err != nil {
		return false, nil, fmt.Errorf("failed to create subscription from webhook: %w", err)
	}

	if created {
		r.logger.Info("subscription created from webhook",
			zap.String("invoice_id", invoiceID),
			zap.String("plan_id", string(plan)),
			zap.String("amount", amount.String()))
	}
	return created, result, nil
}

// resolveUser finds or creates the user a webhook payload refers to.
// Existing users are only ever filled in, never overwritten: a populated
// name field stays, and an email already claimed by another user is never
// reassigned.
func (r *Reconciler) resolveUser(ctx context.Context, p webhook.Payload) (*model.User, error) {
	email, ok := p.PayerEmail()
	if !ok {
		return nil, nil
	}

	firstName, lastName := p.CustomerName()

	existing, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if existing != nil {
		if existing.FirstName == "" || existing.LastName == "" {
			if err := r.users.FillMissingNames(ctx, email, firstName, lastName); err != nil {
				r.logger.Warn("failed to fill user names from webhook",
					zap.String("email", email), zap.Error(err))
			}
		}
		return existing, nil
	}

	hash, err := placeholderPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}

	user, err := r.users.Create(ctx, &model.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user from webhook: %w", err)
	}

	r.logger.Info("user created from webhook",
		zap.String("email", email),
		zap.String("user_id", user.ID.String()))
	return user, nil
}

// paymentReference picks the payment id, falling back to the invoice id
// for payload shapes that never carry a distinct one.
func (r *Reconciler) paymentReference(p webhook.Payload, invoiceID string) string {
	if paymentID, ok := p.PaymentID(); ok {
		return paymentID
	}
	return invoiceID
}

func (r *Reconciler) sendConfirmation(ctx context.Context, sub *model.Subscription, user *model.User) {
	if user == nil || user.Email == "" {
		r.logger.Warn("no user email for payment confirmation",
			zap.Int64("subscription_id", sub.ID))
		return
	}

	plan := model.PlanDetails(model.PlanID(sub.PlanID))
	if err := r.mailer.SendPaymentConfirmation(ctx, user, sub, plan); err != nil {
		r.logger.Error("failed to send payment confirmation email",
			zap.String("user_email", user.Email),
			zap.Int64("subscription_id", sub.ID),
			zap.Error(err))
		return
	}

	r.logger.Info("payment confirmation email sent",
		zap.String("user_email", user.Email),
		zap.Int64("subscription_id", sub.ID))
}

// placeholderPassword returns a bcrypt hash of random bytes. Users created
// from webhook data cannot log in until they reset their password.
func placeholderPassword() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
