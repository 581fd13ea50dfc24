package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanBasic      PlanID = "basic"
	PlanPro        PlanID = "pro"
	PlanEnterprise PlanID = "enterprise"
	PlanUnknown    PlanID = "unknown"
)

// Plan describes a tier in the fixed catalog.
type Plan struct {
	ID       PlanID          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Features []string        `json:"features"`
}

// Catalog returns the fixed plan catalog.
func Catalog() []Plan {
	return []Plan{
		{
			ID:       PlanBasic,
			Name:     "Basic Plan",
			Price:    decimal.NewFromInt(199),
			Currency: "PHP",
			Features: []string{
				"Basic features",
				"Email support",
				"1 user",
			},
		},
		{
			ID:       PlanPro,
			Name:     "Pro Plan",
			Price:    decimal.NewFromInt(399),
			Currency: "PHP",
			Features: []string{
				"All Basic features",
				"Priority support",
				"5 users",
				"Advanced features",
			},
		},
		{
			ID:       PlanEnterprise,
			Name:     "Enterprise Plan",
			Price:    decimal.NewFromInt(999),
			Currency: "PHP",
			Features: []string{
				"All Pro features",
				"24/7 support",
				"Unlimited users",
				"Custom features",
			},
		},
	}
}

// PlanByID looks up a catalog plan. The second return value is false for
// ids outside the catalog, including PlanUnknown.
func PlanByID(id PlanID) (Plan, bool) {
	for _, p := range Catalog() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanDetails returns the catalog entry for a plan id, or a synthesized
// zero-price entry for ids outside the catalog so mail templates always
// have a display name.
func PlanDetails(id PlanID) Plan {
	if p, ok := PlanByID(id); ok {
		return p
	}
	name := string(id)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return Plan{
		ID:       id,
		Name:     name + " Plan",
		Price:    decimal.Zero,
		Currency: "PHP",
	}
}

// planAmounts maps exact invoice amounts to plans. The first three are the
// PHP catalog prices, the rest their IDR equivalents.
var planAmounts = []struct {
	amount decimal.Decimal
	id     PlanID
}{
	{decimal.NewFromInt(199), PlanBasic},
	{decimal.NewFromInt(399), PlanPro},
	{decimal.NewFromInt(999), PlanEnterprise},
	{decimal.NewFromInt(50000), PlanBasic},
	{decimal.NewFromInt(100000), PlanPro},
	{decimal.NewFromInt(250000), PlanEnterprise},
}

// InferPlan resolves a plan from webhook data. A case-insensitive plan name
// substring in any invoice line item wins over the amount table; an amount
// without an exact table match resolves to PlanUnknown.
func InferPlan(itemNames []string, amount decimal.Decimal) PlanID {
	for _, name := range itemNames {
		lower := strings.ToLower(name)
		for _, id := range []PlanID{PlanBasic, PlanPro, PlanEnterprise} {
			if strings.Contains(lower, string(id)) {
				return id
			}
		}
	}

	for _, entry := range planAmounts {
		if entry.amount.Equal(amount) {
			return entry.id
		}
	}
	return PlanUnknown
}
