package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/domain/model"
)

type PlansHandler struct {
	logger *zap.Logger
}

func NewPlansHandler(logger *zap.Logger) *PlansHandler {
	return &PlansHandler{logger: logger}
}

type planResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Features []string `json:"features"`
}

// GetPlans lists the plan catalog.
func (h *PlansHandler) GetPlans(c echo.Context) error {
	catalog := model.Catalog()

	plans := make([]planResponse, 0, len(catalog))
	for _, p := range catalog {
		plans = append(plans, planResponse{
			ID:       string(p.ID),
			Name:     p.Name,
			Price:    p.Price.StringFixed(2),
			Currency: p.Currency,
			Features: p.Features,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"plans": plans,
		"count": len(plans),
	})
}
