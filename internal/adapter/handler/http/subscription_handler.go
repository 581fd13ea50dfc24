package http

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/model"
	"github.com/paywatch/subscription-service/internal/middleware/auth"
	"github.com/paywatch/subscription-service/internal/usecase"
	"github.com/paywatch/subscription-service/pkg/errors"
)

type SubscriptionHandler struct {
	service  *usecase.SubscriptionService
	recheck  *usecase.RecheckService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSubscriptionHandler(service *usecase.SubscriptionService, recheck *usecase.RecheckService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:  service,
		recheck:  recheck,
		validate: validator.New(),
		logger:   logger,
	}
}

type purchaseRequest struct {
	PlanID string `json:"plan_id" validate:"required,oneof=basic pro enterprise"`
}

type subscriptionResponse struct {
	ID            int64  `json:"id"`
	PlanID        string `json:"plan_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
}

func toSubscriptionResponse(sub *model.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:            sub.ID,
		PlanID:        sub.PlanID,
		Status:        string(sub.Status),
		PaymentStatus: string(sub.PaymentStatus),
		Amount:        sub.Amount.StringFixed(2),
		Currency:      sub.Currency,
	}
	if sub.StartDate != nil {
		resp.StartDate = sub.StartDate.Format("2006-01-02")
	}
	if sub.EndDate != nil {
		resp.EndDate = sub.EndDate.Format("2006-01-02")
	}
	return resp
}

// Purchase starts a subscription purchase for the authenticated user and
// returns the gateway payment URL.
func (h *SubscriptionHandler) Purchase(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan_id must be one of: basic, pro, enterprise"})
	}

	result, err := h.service.Purchase(c.Request().Context(), userID, model.PlanID(req.PlanID))
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return c.JSON(errors.ToHTTPStatus(appErr.Code()), echo.Map{"error": appErr.Error()})
		}
		errors.LogError(h.logger, err, "subscription purchase failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"subscription": toSubscriptionResponse(result.Subscription),
		"invoice_url":  result.InvoiceURL,
	})
}

// GetPaymentStatus rechecks the gateway for a pending subscription and
// returns the current state.
func (h *SubscriptionHandler) GetPaymentStatus(c echo.Context) error {
	userID, err := auth.GetUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid subscription id"})
	}

	result, err := h.recheck.RecheckPaymentForUser(c.Request().Context(), id, userID)
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return c.JSON(errors.ToHTTPStatus(appErr.Code()), echo.Map{"error": appErr.Error()})
		}
		errors.LogError(h.logger, err, "payment recheck failed",
			zap.Int64("subscription_id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"subscription":   toSubscriptionResponse(result.Subscription),
		"gateway_status": result.GatewayStatus,
		"updated":        result.Updated,
	})
}
