package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/gateway"
	"github.com/paywatch/subscription-service/internal/domain/model"
)

// MockGatewayClient is a mock implementation
type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) CreateInvoice(ctx context.Context, req gateway.CreateInvoiceRequest) (*gateway.Invoice, error) {
	args := m.Called(ctx, req)
	inv, _ := args.Get(0).(*gateway.Invoice)
	return inv, args.Error(1)
}

func (m *MockGatewayClient) GetInvoice(ctx context.Context, invoiceID string) (*gateway.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	inv, _ := args.Get(0).(*gateway.Invoice)
	return inv, args.Error(1)
}

func TestRecheckPayment_SettlesPaidInvoice(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("inv_1")
	settled := *sub
	settled.Status = model.SubscriptionStatusActive
	settled.PaymentStatus = model.PaymentStatusPaid

	subs.On("GetByID", mock.Anything, int64(1)).Return(sub, nil).Once()
	gw.On("GetInvoice", mock.Anything, "inv_1").Return(&gateway.Invoice{
		ID:        "inv_1",
		Status:    gateway.InvoiceStatusPaid,
		PaymentID: "pay_1",
	}, nil).Once()
	subs.On("MarkPaid", mock.Anything, "inv_1", mock.MatchedBy(func(p *string) bool {
		return p != nil && *p == "pay_1"
	})).Return(true, nil).Once()
	subs.On("GetByID", mock.Anything, int64(1)).Return(&settled, nil).Once()
	mailer.On("SendPaymentConfirmation", mock.Anything, settled.User, &settled, mock.Anything).Return(nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	result, err := s.RecheckPayment(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.Equal(t, gateway.InvoiceStatusPaid, result.GatewayStatus)
	subs.AssertExpectations(t)
	gw.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRecheckPayment_AlreadyPaidShortCircuits(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("inv_1")
	sub.PaymentStatus = model.PaymentStatusPaid

	subs.On("GetByID", mock.Anything, int64(1)).Return(sub, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	result, err := s.RecheckPayment(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.Equal(t, gateway.InvoiceStatusPaid, result.GatewayStatus)
	gw.AssertNotCalled(t, "GetInvoice", mock.Anything, mock.Anything)
}

func TestRecheckPayment_ExpiredInvoice(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("inv_2")
	sub.ID = 2

	subs.On("GetByID", mock.Anything, int64(2)).Return(sub, nil).Once()
	gw.On("GetInvoice", mock.Anything, "inv_2").Return(&gateway.Invoice{
		ID:     "inv_2",
		Status: gateway.InvoiceStatusExpired,
	}, nil).Once()
	subs.On("UpdateStatus", mock.Anything, "inv_2",
		model.SubscriptionStatusExpired, model.PaymentStatusExpired).Return(true, nil).Once()
	subs.On("GetByID", mock.Anything, int64(2)).Return(sub, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	result, err := s.RecheckPayment(context.Background(), 2)

	require.NoError(t, err)
	assert.True(t, result.Updated)
	mailer.AssertNotCalled(t, "SendPaymentConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecheckPayment_UnknownGatewayStateLeavesRecordAlone(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("inv_3")
	subs.On("GetByID", mock.Anything, int64(1)).Return(sub, nil).Once()
	gw.On("GetInvoice", mock.Anything, "inv_3").Return(&gateway.Invoice{
		ID:     "inv_3",
		Status: gateway.InvoiceStatusUnknown,
	}, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	result, err := s.RecheckPayment(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.Equal(t, gateway.InvoiceStatusUnknown, result.GatewayStatus)
	subs.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	subs.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecheckPayment_NotFound(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	subs.On("GetByID", mock.Anything, int64(99)).Return(nil, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	_, err := s.RecheckPayment(context.Background(), 99)

	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestRecheckPayment_MissingInvoiceID(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("ignored")
	sub.XenditInvoiceID = nil
	subs.On("GetByID", mock.Anything, int64(1)).Return(sub, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	_, err := s.RecheckPayment(context.Background(), 1)

	assert.ErrorIs(t, err, ErrNoInvoiceID)
}

func TestRecheckPaymentForUser_Owner(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("inv_1")
	subs.On("GetByID", mock.Anything, int64(1)).Return(sub, nil)
	gw.On("GetInvoice", mock.Anything, "inv_1").Return(&gateway.Invoice{
		ID:     "inv_1",
		Status: gateway.InvoiceStatusPending,
	}, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	result, err := s.RecheckPaymentForUser(context.Background(), 1, *sub.UserID)

	require.NoError(t, err)
	assert.False(t, result.Updated)
}

func TestRecheckPaymentForUser_OtherUsersSubscription(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	sub := pendingSubscription("inv_1")
	subs.On("GetByID", mock.Anything, int64(1)).Return(sub, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	_, err := s.RecheckPaymentForUser(context.Background(), 1, uuid.New())

	// Unowned ids report not-found before any gateway traffic, so a
	// recheck cannot be triggered on someone else's subscription.
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	gw.AssertNotCalled(t, "GetInvoice", mock.Anything, mock.Anything)
	subs.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecheckPaymentForUser_MissingID(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	subs.On("GetByID", mock.Anything, int64(99)).Return(nil, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	_, err := s.RecheckPaymentForUser(context.Background(), 99, uuid.New())

	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestFixPending_SweepsAndCounts(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	first := pendingSubscription("inv_a")
	first.ID = 10
	second := pendingSubscription("inv_b")
	second.ID = 11

	subs.On("ListByPaymentStatus", mock.Anything, model.PaymentStatusPending).
		Return([]*model.Subscription{first, second}, nil).Once()

	// First invoice was paid while webhooks were down.
	subs.On("GetByID", mock.Anything, int64(10)).Return(first, nil)
	gw.On("GetInvoice", mock.Anything, "inv_a").Return(&gateway.Invoice{
		ID: "inv_a", Status: gateway.InvoiceStatusPaid, PaymentID: "pay_a",
	}, nil).Once()
	subs.On("MarkPaid", mock.Anything, "inv_a", mock.Anything).Return(true, nil).Once()
	mailer.On("SendPaymentConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Second invoice is still pending.
	subs.On("GetByID", mock.Anything, int64(11)).Return(second, nil)
	gw.On("GetInvoice", mock.Anything, "inv_b").Return(&gateway.Invoice{
		ID: "inv_b", Status: gateway.InvoiceStatusPending,
	}, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	checked, updated, err := s.FixPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.Equal(t, 1, updated)
}

func TestFixPending_IndividualFailureDoesNotStopSweep(t *testing.T) {
	subs := new(MockSubscriptionRepository)
	gw := new(MockGatewayClient)
	mailer := new(MockMailer)

	broken := pendingSubscription("inv_x")
	broken.ID = 20
	ok := pendingSubscription("inv_y")
	ok.ID = 21

	subs.On("ListByPaymentStatus", mock.Anything, model.PaymentStatusPending).
		Return([]*model.Subscription{broken, ok}, nil).Once()

	subs.On("GetByID", mock.Anything, int64(20)).Return(nil, assert.AnError)

	subs.On("GetByID", mock.Anything, int64(21)).Return(ok, nil)
	gw.On("GetInvoice", mock.Anything, "inv_y").Return(&gateway.Invoice{
		ID: "inv_y", Status: gateway.InvoiceStatusPending,
	}, nil).Once()

	s := NewRecheckService(subs, gw, mailer, zap.NewNop())
	checked, updated, err := s.FixPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.Equal(t, 0, updated)
}
