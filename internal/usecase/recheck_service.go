package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/gateway"
	"github.com/paywatch/subscription-service/internal/domain/model"
	"github.com/paywatch/subscription-service/internal/domain/repository"
)

// RecheckResult reports the outcome of querying the gateway for a
// subscription whose payment state may have drifted.
type RecheckResult struct {
	Subscription  *model.Subscription
	GatewayStatus string
	Updated       bool
}

// RecheckService re-queries the payment gateway for subscriptions stuck
// in a pending state. Webhook delivery is best-effort; this is the
// recovery path when a delivery was lost.
type RecheckService struct {
	subscriptions repository.SubscriptionRepository
	gateway       gateway.Client
	mailer        Mailer
	logger        *zap.Logger
}

func NewRecheckService(
	subscriptions repository.SubscriptionRepository,
	gw gateway.Client,
	mailer Mailer,
	logger *zap.Logger,
) *RecheckService {
	return &RecheckService{
		subscriptions: subscriptions,
		gateway:       gw,
		mailer:        mailer,
		logger:        logger,
	}
}

// RecheckPayment reconciles one subscription against the gateway's view
// of its invoice. Already-settled subscriptions short-circuit without a
// gateway call. An unreachable gateway leaves the record untouched.
func (s *RecheckService) RecheckPayment(ctx context.Context, subscriptionID int64) (*RecheckResult, error) {
	sub, err := s.subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	if sub.IsPaid() {
		return &RecheckResult{Subscription: sub, GatewayStatus: gateway.InvoiceStatusPaid}, nil
	}

	if sub.XenditInvoiceID == nil || *sub.XenditInvoiceID == "" {
		return nil, ErrNoInvoiceID
	}
	invoiceID := *sub.XenditInvoiceID

	invoice, err := s.gateway.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gateway invoice: %w", err)
	}

	result := &RecheckResult{Subscription: sub, GatewayStatus: invoice.Status}

	switch invoice.Status {
	case gateway.InvoiceStatusPaid:
		paymentID := invoice.PaymentID
		if paymentID == "" {
			paymentID = invoiceID
		}
		applied, err := s.subscriptions.MarkPaid(ctx, invoiceID, &paymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to update subscription payment status: %w", err)
		}
		if applied {
			s.logger.Info("pending subscription settled on recheck",
				zap.Int64("subscription_id", sub.ID),
				zap.String("invoice_id", invoiceID))
		}
		result.Updated = applied

	case gateway.InvoiceStatusExpired:
		found, err := s.subscriptions.UpdateStatus(ctx, invoiceID,
			model.SubscriptionStatusExpired, model.PaymentStatusExpired)
		if err != nil {
			return nil, fmt.Errorf("failed to update subscription status: %w", err)
		}
		result.Updated = found

	default:
		// PENDING and UNKNOWN are non-terminal; leave the record alone.
		return result, nil
	}

	if result.Updated {
		updated, err := s.subscriptions.GetByID(ctx, subscriptionID)
		if err != nil {
			s.logger.Warn("failed to reload subscription after recheck",
				zap.Int64("subscription_id", subscriptionID),
				zap.Error(err))
		} else if updated != nil {
			result.Subscription = updated
			if invoice.Status == gateway.InvoiceStatusPaid {
				s.sendConfirmation(ctx, updated)
			}
		}
	}
	return result, nil
}

// RecheckPaymentForUser is RecheckPayment restricted to subscriptions the
// given user owns. Ownership is checked before any gateway call, and an
// unowned id reports not-found the same as a missing one so callers
// cannot probe which ids exist.
func (s *RecheckService) RecheckPaymentForUser(ctx context.Context, subscriptionID int64, userID uuid.UUID) (*RecheckResult, error) {
	sub, err := s.subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	if sub == nil || sub.UserID == nil || *sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	return s.RecheckPayment(ctx, subscriptionID)
}

// FixPending rechecks every pending subscription, oldest first. Returns
// the number checked and the number whose state changed. Individual
// failures are logged and skipped so one bad row never blocks the rest.
func (s *RecheckService) FixPending(ctx context.Context) (checked, updated int, err error) {
	pending, err := s.subscriptions.ListByPaymentStatus(ctx, model.PaymentStatusPending)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pending subscriptions: %w", err)
	}

	for _, sub := range pending {
		checked++
		result, err := s.RecheckPayment(ctx, sub.ID)
		if err != nil {
			s.logger.Warn("failed to recheck pending subscription",
				zap.Int64("subscription_id", sub.ID),
				zap.Error(err))
			continue
		}
		if result.Updated {
			updated++
		}
	}

	s.logger.Info("pending subscription sweep finished",
		zap.Int("checked", checked),
		zap.Int("updated", updated))
	return checked, updated, nil
}

func (s *RecheckService) sendConfirmation(ctx context.Context, sub *model.Subscription) {
	user := sub.User
	if user == nil || user.Email == "" {
		return
	}
	plan := model.PlanDetails(model.PlanID(sub.PlanID))
	if err := s.mailer.SendPaymentConfirmation(ctx, user, sub, plan); err != nil {
		s.logger.Error("failed to send payment confirmation email",
			zap.String("user_email", user.Email),
			zap.Int64("subscription_id", sub.ID),
			zap.Error(err))
	}
}
