package domain

import (
	"fmt"
	"strings"
)

// BudgetLevel is the coarse budget choice offered by the form.
type BudgetLevel string

const (
	BudgetLow    BudgetLevel = "low"
	BudgetMedium BudgetLevel = "medium"
	BudgetHigh   BudgetLevel = "high"
)

// BudgetCeilings maps each level to a cost ceiling per cubic metre.
var BudgetCeilings = map[BudgetLevel]float64{
	BudgetLow:    60,
	BudgetMedium: 140,
	BudgetHigh:   260,
}

// ParseBudgetLevel resolves a level name, case-insensitively.
func ParseBudgetLevel(s string) (BudgetLevel, error) {
	level := BudgetLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := BudgetCeilings[level]; !ok {
		return "", fmt.Errorf("unknown budget level %q", s)
	}
	return level, nil
}

// ProjectRequirement captures what the project needs from the treatment.
type ProjectRequirement struct {
	// TargetStrengthKPa is the required unconfined compressive strength.
	// Zero means no minimum.
	TargetStrengthKPa float64 `json:"target_strength_kpa" yaml:"target_strength_kpa"`
	// BudgetCeiling is the maximum acceptable cost per cubic metre.
	BudgetCeiling float64 `json:"budget_ceiling" yaml:"budget_ceiling"`
	EcoPreferred  bool    `json:"eco_preferred" yaml:"eco_preferred"`
}
