package domain

import "time"

// Recommendation is the engine's answer for one submission.
type Recommendation struct {
	Method               Method             `json:"method"`
	PredictedStrengthKPa float64            `json:"predicted_strength_kpa"`
	EstimatedCost        float64            `json:"estimated_cost"`
	Scores               map[Method]float64 `json:"scores,omitempty"`
	Notes                []string           `json:"notes,omitempty"`
}

// MeetsTarget reports whether the predicted strength satisfies the requirement.
func (r Recommendation) MeetsTarget(req ProjectRequirement) bool {
	return r.PredictedStrengthKPa >= req.TargetStrengthKPa
}

// WithinBudget reports whether the estimated cost fits the budget ceiling.
func (r Recommendation) WithinBudget(req ProjectRequirement) bool {
	return r.EstimatedCost <= req.BudgetCeiling
}

// Submission is a recorded recommendation request.
type Submission struct {
	ID             string
	Soil           SoilSample
	Requirement    ProjectRequirement
	Recommendation Recommendation
	CreatedAt      time.Time
}
