package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paywatch/subscription-service/internal/domain/model"
	"github.com/paywatch/subscription-service/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a subscription by its local id
func (r *subscriptionRepository) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Preload("User").
		First(&sub, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by ID",
			zap.Int64("subscription_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// GetByInvoiceID retrieves a subscription by its gateway invoice id
func (r *subscriptionRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("xendit_invoice_id = ?", invoiceID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by invoice ID",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// Create inserts a subscription. The unique index on xendit_invoice_id
// plus DO NOTHING makes concurrent creation for the same invoice safe:
// exactly one insert wins and the loser gets the winner's row back.
func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) (*model.Subscription, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "xendit_invoice_id"}},
			DoNothing: true,
		}).
		Create(sub)

	if res.Error != nil {
		r.logger.Error("Failed to create subscription",
			zap.Error(res.Error))
		return nil, false, fmt.Errorf("failed to create subscription: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		return sub, true, nil
	}

	// Conflicted with an existing row; fetch it.
	if sub.XenditInvoiceID == nil {
		return nil, false, nil
	}
	existing, err := r.GetByInvoiceID(ctx, *sub.XenditInvoiceID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// MarkPaid settles the subscription for invoiceID. The WHERE clause keeps
// the update idempotent under duplicate webhook deliveries: once a row is
// paid, re-running the update affects zero rows.
func (r *subscriptionRepository) MarkPaid(ctx context.Context, invoiceID string, paymentID *string) (bool, error) {
	updates := map[string]interface{}{
		"status":         model.SubscriptionStatusActive,
		"payment_status": model.PaymentStatusPaid,
	}
	if paymentID != nil && *paymentID != "" {
		updates["xendit_payment_id"] = *paymentID
	}

	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("xendit_invoice_id = ? AND payment_status <> ?", invoiceID, model.PaymentStatusPaid).
		Updates(updates)

	if res.Error != nil {
		r.logger.Error("Failed to mark subscription paid",
			zap.String("invoice_id", invoiceID),
			zap.Error(res.Error))
		return false, fmt.Errorf("failed to mark subscription paid: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// UpdateStatus overwrites status and payment_status for invoiceID
func (r *subscriptionRepository) UpdateStatus(ctx context.Context, invoiceID string, status model.SubscriptionStatus, payment model.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("xendit_invoice_id = ?", invoiceID).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": payment,
		})

	if res.Error != nil {
		r.logger.Error("Failed to update subscription status",
			zap.String("invoice_id", invoiceID),
			zap.String("status", string(status)),
			zap.Error(res.Error))
		return false, fmt.Errorf("failed to update subscription status: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// ListByPaymentStatus lists subscriptions in a payment state, oldest first
func (r *subscriptionRepository) ListByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]*model.Subscription, error) {
	var subs []*model.Subscription

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("payment_status = ?", status).
		Order("created_at ASC").
		Find(&subs).Error

	if err != nil {
		r.logger.Error("Failed to list subscriptions by payment status",
			zap.String("payment_status", string(status)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}
