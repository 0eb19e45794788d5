// Package engine maps validated soil and project inputs to a stabilization
// method, a predicted strength and a cost estimate.
package engine

import (
	"fmt"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

// Strategy decides on a method and estimates its outcome. Implementations
// must be pure: the same inputs always give the same outputs.
type Strategy interface {
	SelectMethod(soil domain.SoilSample, req domain.ProjectRequirement) domain.Method
	PredictStrength(soil domain.SoilSample, req domain.ProjectRequirement, method domain.Method) float64
	EstimateCost(soil domain.SoilSample, req domain.ProjectRequirement, method domain.Method) float64
}

// Scorer is implemented by strategies that can report per-method suitability.
type Scorer interface {
	Scores(soil domain.SoilSample) map[domain.Method]float64
}

// Explainer is implemented by strategies that can justify their choice.
type Explainer interface {
	Explain(soil domain.SoilSample, req domain.ProjectRequirement, method domain.Method) []string
}

// Engine runs a Strategy. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	strategy Strategy
}

func New(strategy Strategy) *Engine {
	return &Engine{strategy: strategy}
}

// NewDefault builds an engine over the rule model with the given params.
func NewDefault(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine params: %w", err)
	}
	return New(NewRuleModel(p)), nil
}

func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Recommend expects inputs that already passed validation.
func (e *Engine) Recommend(soil domain.SoilSample, req domain.ProjectRequirement) domain.Recommendation {
	method := e.strategy.SelectMethod(soil, req)
	rec := domain.Recommendation{
		Method:               method,
		PredictedStrengthKPa: e.strategy.PredictStrength(soil, req, method),
		EstimatedCost:        e.strategy.EstimateCost(soil, req, method),
	}

	if s, ok := e.strategy.(Scorer); ok {
		scores := s.Scores(soil)
		rec.Scores = make(map[domain.Method]float64, len(scores))
		for m, v := range scores {
			rec.Scores[m] = round(v, 3)
		}
	}
	if x, ok := e.strategy.(Explainer); ok {
		rec.Notes = x.Explain(soil, req, method)
	}

	if !rec.MeetsTarget(req) {
		rec.Notes = append(rec.Notes, fmt.Sprintf("Predicted strength %.0f kPa is below the %.0f kPa target", rec.PredictedStrengthKPa, req.TargetStrengthKPa))
	}
	if !rec.WithinBudget(req) {
		rec.Notes = append(rec.Notes, fmt.Sprintf("Estimated cost %.2f exceeds the budget ceiling of %.2f", rec.EstimatedCost, req.BudgetCeiling))
	}
	return rec
}
