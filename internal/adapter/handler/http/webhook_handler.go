package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/adapter/archive"
	"github.com/paywatch/subscription-service/internal/usecase"
	"github.com/paywatch/subscription-service/internal/webhook"
	"github.com/paywatch/subscription-service/pkg/errors"
)

// Reconciler applies a classified webhook event to the subscription store.
type Reconciler interface {
	Process(ctx context.Context, kind webhook.EventKind, p webhook.Payload) (usecase.Outcome, error)
}

// Archiver persists a raw webhook delivery for audit.
type Archiver interface {
	Archive(rec archive.Record) error
}

type WebhookHandler struct {
	auth       *webhook.Authenticator
	reconciler Reconciler
	archiver   Archiver
	logger     *zap.Logger
}

func NewWebhookHandler(auth *webhook.Authenticator, reconciler Reconciler, archiver Archiver, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		auth:       auth,
		reconciler: reconciler,
		archiver:   archiver,
		logger:     logger,
	}
}

// HandleWebhook receives a gateway callback. Order matters: archive the
// raw body first so even rejected deliveries leave an audit trail, then
// authenticate, then classify and apply.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	payload, parseErr := webhook.ParsePayload(body)

	kind := webhook.EventUnknown
	if parseErr == nil {
		kind = webhook.Classify(payload)
	}
	h.archiveDelivery(c, kind, payload, body)

	if err := h.auth.VerifyToken(c.Request().Header); err != nil {
		h.logger.Warn("webhook token verification failed",
			zap.String("remote_ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	}

	if err := h.auth.VerifySignature(c.Request().Header, body); err != nil {
		h.logger.Warn("webhook signature verification failed",
			zap.String("remote_ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid signature"})
	}

	// An unparseable body carries nothing to act on; acknowledge it as
	// ignored rather than invite a redelivery of the same bytes.
	if parseErr != nil {
		h.logger.Warn("failed to parse webhook payload", zap.Error(parseErr))
		return c.JSON(http.StatusOK, echo.Map{"status": string(usecase.OutcomeIgnored)})
	}

	status, _ := payload.Status()
	h.logger.Info("webhook received",
		zap.String("event_kind", string(kind)),
		zap.String("status", status))

	outcome, err := h.reconciler.Process(c.Request().Context(), kind, payload)
	if err != nil {
		if errors.Is(err, usecase.ErrNoInvoiceID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No invoice ID found"})
		}
		// A subscription that cannot be found or synthesized is permanent;
		// 404 tells the gateway to stop redelivering.
		if errors.Is(err, usecase.ErrSubscriptionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Subscription not found"})
		}
		errors.LogError(h.logger, err, "webhook processing failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": string(outcome)})
}

func (h *WebhookHandler) archiveDelivery(c echo.Context, kind webhook.EventKind, payload webhook.Payload, body []byte) {
	if h.archiver == nil {
		return
	}

	headers := map[string]string{}
	for _, name := range []string{"Content-Type", "User-Agent", webhook.SignatureHeader} {
		if v := c.Request().Header.Get(name); v != "" {
			headers[name] = v
		}
	}
	if tok := webhook.Token(c.Request().Header); tok != "" {
		headers["X-Callback-Token"] = "present"
	}

	rec := archive.Record{
		EventKind: string(kind),
		Headers:   headers,
		Payload:   payload,
	}
	if rec.Payload == nil {
		rec.Payload = map[string]interface{}{"raw": string(body)}
	}

	if err := h.archiver.Archive(rec); err != nil {
		h.logger.Warn("failed to archive webhook delivery", zap.Error(err))
	}
}
