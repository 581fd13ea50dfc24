package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/gateway"
	"github.com/paywatch/subscription-service/internal/domain/model"
	"github.com/paywatch/subscription-service/internal/domain/repository"
	"github.com/paywatch/subscription-service/pkg/errors"
)

// invoiceDuration is how long a purchase invoice stays payable.
const invoiceDuration = 24 * time.Hour

var (
	// ErrUnknownPlan is returned when a purchase names a plan outside the
	// catalog.
	ErrUnknownPlan = errors.NewAppError(errors.ErrInvalidArgument, "Unknown plan", nil)

	// ErrUserNotFound is returned when the purchasing user does not exist.
	ErrUserNotFound = errors.NewAppError(errors.ErrNotFound, "User not found", nil)
)

// PurchaseResult is the outcome of starting a subscription purchase.
type PurchaseResult struct {
	Subscription *model.Subscription
	InvoiceURL   string
}

// SubscriptionService starts purchases: it creates a gateway invoice and
// a pending subscription the webhook flow later settles.
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	users         repository.UserRepository
	gateway       gateway.Client
	mailer        Mailer
	logger        *zap.Logger
	clientURL     string
	now           func() time.Time
}

// ServiceOption configures a SubscriptionService.
type ServiceOption func(*SubscriptionService)

// WithServiceClock overrides the service's time source for deterministic
// tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *SubscriptionService) {
		s.now = now
	}
}

func NewSubscriptionService(
	subscriptions repository.SubscriptionRepository,
	users repository.UserRepository,
	gw gateway.Client,
	mailer Mailer,
	logger *zap.Logger,
	clientURL string,
	opts ...ServiceOption,
) *SubscriptionService {
	s := &SubscriptionService{
		subscriptions: subscriptions,
		users:         users,
		gateway:       gw,
		mailer:        mailer,
		logger:        logger,
		clientURL:     clientURL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase creates a gateway invoice for the plan and records a pending
// subscription keyed by the invoice id. The returned URL is where the
// user completes payment.
func (s *SubscriptionService) Purchase(ctx context.Context, userID uuid.UUID, planID model.PlanID) (*PurchaseResult, error) {
	plan, ok := model.PlanByID(planID)
	if !ok {
		return nil, ErrUnknownPlan
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	externalID := "subscription-" + uuid.NewString()
	invoice, err := s.gateway.CreateInvoice(ctx, gateway.CreateInvoiceRequest{
		ExternalID:         externalID,
		Amount:             plan.Price,
		Currency:           plan.Currency,
		Description:        fmt.Sprintf("%s subscription for %s", plan.Name, user.Email),
		InvoiceDurationSec: int(invoiceDuration.Seconds()),
		Customer: gateway.Customer{
			GivenNames: user.FullName(),
			Email:      user.Email,
		},
		SuccessRedirectURL: s.clientURL + "/subscription/success",
		FailureRedirectURL: s.clientURL + "/subscription/failed",
		Items: []gateway.Item{{
			Name:     plan.Name,
			Quantity: 1,
			Price:    plan.Price,
			Category: "subscription",
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway invoice: %w", err)
	}

	start := s.now()
	end := start.AddDate(0, 1, 0)
	invoiceID := invoice.ID

	sub := &model.Subscription{
		UserID:          &user.ID,
		PlanID:          string(planID),
		Status:          model.SubscriptionStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		XenditInvoiceID: &invoiceID,
		Amount:          plan.Price,
		Currency:        plan.Currency,
		StartDate:       &start,
		EndDate:         &end,
	}
	sub.User = user

	result, _, err := s.subscriptions.Create(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.logger.Info("subscription purchase started",
		zap.Int64("subscription_id", result.ID),
		zap.String("user_id", user.ID.String()),
		zap.String("plan_id", string(planID)),
		zap.String("invoice_id", invoiceID))

	if err := s.mailer.SendInvoice(ctx, user, result, plan, invoice.InvoiceURL); err != nil {
		s.logger.Error("failed to send invoice email",
			zap.String("user_email", user.Email),
			zap.Int64("subscription_id", result.ID),
			zap.Error(err))
	}

	return &PurchaseResult{Subscription: result, InvoiceURL: invoice.InvoiceURL}, nil
}
