package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the lifecycle status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusFailed    SubscriptionStatus = "failed"
	SubscriptionStatusVoided    SubscriptionStatus = "voided"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentStatus mirrors SubscriptionStatus with payment-specific semantics.
// The two columns are kept separate because downstream consumers read both.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusVoided    PaymentStatus = "voided"
)

// Scan implements sql.Scanner interface
func (p *PaymentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*p = PaymentStatus(v)
	case []byte:
		*p = PaymentStatus(v)
	default:
		*p = PaymentStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (p PaymentStatus) Value() (driver.Value, error) {
	return string(p), nil
}

// Subscription represents a user's subscription to a plan, keyed to the
// payment gateway by the invoice id the gateway assigned at checkout.
type Subscription struct {
	ID               int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           *uuid.UUID         `gorm:"type:uuid;index" json:"user_id,omitempty"`
	PlanID           string             `gorm:"not null;size:50" json:"plan_id"`
	Status           SubscriptionStatus `gorm:"type:subscription_status;not null;default:'pending'" json:"status"`
	PaymentStatus    PaymentStatus      `gorm:"type:payment_status;not null;default:'pending'" json:"payment_status"`
	XenditInvoiceID  *string            `gorm:"size:100;uniqueIndex" json:"xendit_invoice_id,omitempty"`
	XenditPaymentID  *string            `gorm:"size:100" json:"xendit_payment_id,omitempty"`
	Amount           decimal.Decimal    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency         string             `gorm:"size:3;default:'PHP'" json:"currency"`
	StartDate        *time.Time         `json:"start_date,omitempty"`
	EndDate          *time.Time         `json:"end_date,omitempty"`
	GatewayData      JSONB              `gorm:"type:jsonb" json:"gateway_data,omitempty"`
	CreatedAt        time.Time          `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"default:now()" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsPaid reports whether the subscription's payment has settled.
func (s *Subscription) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
