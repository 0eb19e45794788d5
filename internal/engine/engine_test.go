package engine

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewDefault(DefaultParams())
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	return e
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestRecommend_ClayeyEcoExample(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 40, SiltPct: 30, MoisturePct: 20, PlasticityIndex: 15, PH: 7.0}
	req := domain.ProjectRequirement{BudgetCeiling: domain.BudgetCeilings[domain.BudgetHigh], EcoPreferred: true}

	rec := e.Recommend(soil, req)

	if rec.Method != domain.MethodMycelium && rec.Method != domain.MethodHybrid {
		t.Fatalf("expected Mycelium or Hybrid, got %s", rec.Method)
	}
	if rec.Method != domain.MethodMycelium {
		t.Errorf("expected Mycelium, got %s", rec.Method)
	}
	if !floatEquals(rec.PredictedStrengthKPa, 253.0) {
		t.Errorf("expected strength 253.0, got %.1f", rec.PredictedStrengthKPa)
	}
	if !floatEquals(rec.EstimatedCost, 42.5) {
		t.Errorf("expected cost 42.50, got %.2f", rec.EstimatedCost)
	}
}

func TestRecommend_SandySoilPrefersMICP(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 5, SiltPct: 10, MoisturePct: 15, PlasticityIndex: 2, PH: 8}
	req := domain.ProjectRequirement{BudgetCeiling: 260}

	rec := e.Recommend(soil, req)

	if rec.Method != domain.MethodMICP {
		t.Fatalf("expected MICP, got %s", rec.Method)
	}
	if !floatEquals(rec.PredictedStrengthKPa, 1526.0) {
		t.Errorf("expected strength 1526.0, got %.1f", rec.PredictedStrengthKPa)
	}
	if !floatEquals(rec.EstimatedCost, 107.0) {
		t.Errorf("expected cost 107.00, got %.2f", rec.EstimatedCost)
	}
}

func TestRecommend_EcoPreferenceKeepsMICPForIdealSand(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 5, SiltPct: 10, MoisturePct: 15, PlasticityIndex: 2, PH: 8}
	req := domain.ProjectRequirement{BudgetCeiling: 260, EcoPreferred: true}

	rec := e.Recommend(soil, req)

	if rec.Method != domain.MethodMICP {
		t.Fatalf("expected MICP, got %s", rec.Method)
	}
	found := false
	for _, n := range rec.Notes {
		if n == "MICP releases ammonium as a byproduct; plan for rinsing or capture" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ammonium note, got %v", rec.Notes)
	}
}

func TestRecommend_LowBudgetFallsBackToMycelium(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 5, SiltPct: 10, MoisturePct: 15, PlasticityIndex: 2, PH: 8}
	req := domain.ProjectRequirement{BudgetCeiling: domain.BudgetCeilings[domain.BudgetLow]}

	rec := e.Recommend(soil, req)

	if rec.Method != domain.MethodMycelium {
		t.Fatalf("expected Mycelium, got %s", rec.Method)
	}
	if !rec.WithinBudget(req) {
		t.Errorf("expected cost %.2f within budget %.2f", rec.EstimatedCost, req.BudgetCeiling)
	}
}

func TestRecommend_HighTargetSelectsHybrid(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 20, SiltPct: 20, MoisturePct: 35, PlasticityIndex: 8, PH: 7.5}
	req := domain.ProjectRequirement{TargetStrengthKPa: 800, BudgetCeiling: 260}

	rec := e.Recommend(soil, req)

	if rec.Method != domain.MethodHybrid {
		t.Fatalf("expected Hybrid, got %s", rec.Method)
	}
	if !floatEquals(rec.PredictedStrengthKPa, 1042.4) {
		t.Errorf("expected strength 1042.4, got %.1f", rec.PredictedStrengthKPa)
	}
	if !floatEquals(rec.EstimatedCost, 99.0) {
		t.Errorf("expected cost 99.00, got %.2f", rec.EstimatedCost)
	}
}

func TestRecommend_TieResolvesToMycelium(t *testing.T) {
	e := newTestEngine(t)
	// Mycelium scores 1.0 and the hybrid score clamps to 1.0.
	soil := domain.SoilSample{ClayPct: 20, SiltPct: 20, MoisturePct: 35, PlasticityIndex: 8, PH: 7.5}
	req := domain.ProjectRequirement{BudgetCeiling: 260}

	rec := e.Recommend(soil, req)

	if rec.Method != domain.MethodMycelium {
		t.Errorf("expected Mycelium, got %s", rec.Method)
	}
}

func TestRecommend_StrengthShortfallNoted(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 55, SiltPct: 35, MoisturePct: 45, PlasticityIndex: 35, PH: 6}
	req := domain.ProjectRequirement{TargetStrengthKPa: 2000, BudgetCeiling: 140}

	rec := e.Recommend(soil, req)

	if rec.MeetsTarget(req) {
		t.Fatalf("expected strength %.1f below target", rec.PredictedStrengthKPa)
	}
	last := rec.Notes[len(rec.Notes)-1]
	if last != "Predicted strength 345 kPa is below the 2000 kPa target" {
		t.Errorf("unexpected shortfall note %q", last)
	}
}

func TestRecommend_IsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	soil := domain.SoilSample{ClayPct: 30, SiltPct: 50, MoisturePct: 70, PlasticityIndex: 25, PH: 4.5}
	req := domain.ProjectRequirement{TargetStrengthKPa: 150, BudgetCeiling: 140, EcoPreferred: true}

	first := e.Recommend(soil, req)
	second := e.Recommend(soil, req)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recommendations differ (-first +second):\n%s", diff)
	}
}

func TestRecommend_AlwaysReturnsKnownMethod(t *testing.T) {
	e := newTestEngine(t)
	for clay := 0.0; clay <= 100; clay += 20 {
		for silt := 0.0; clay+silt <= 100; silt += 20 {
			for _, moisture := range []float64{0, 25, 50, 100} {
				for _, ph := range []float64{0, 5, 7, 9, 14} {
					for _, eco := range []bool{false, true} {
						soil := domain.SoilSample{ClayPct: clay, SiltPct: silt, MoisturePct: moisture, PlasticityIndex: clay / 2, PH: ph}
						req := domain.ProjectRequirement{TargetStrengthKPa: 200, BudgetCeiling: 140, EcoPreferred: eco}
						rec := e.Recommend(soil, req)
						if !rec.Method.Valid() {
							t.Fatalf("invalid method %q for %+v %+v", rec.Method, soil, req)
						}
						if rec.PredictedStrengthKPa <= 0 || rec.EstimatedCost <= 0 {
							t.Fatalf("non-positive estimate %+v for %+v", rec, soil)
						}
					}
				}
			}
		}
	}
}

func TestRecommend_ScoresCoverEveryMethod(t *testing.T) {
	e := newTestEngine(t)
	rec := e.Recommend(
		domain.SoilSample{ClayPct: 40, SiltPct: 30, MoisturePct: 20, PlasticityIndex: 15, PH: 7},
		domain.ProjectRequirement{BudgetCeiling: 260},
	)

	want := map[domain.Method]float64{
		domain.MethodMICP:     0.258,
		domain.MethodMycelium: 0.6,
		domain.MethodHybrid:   0.48,
	}
	if diff := cmp.Diff(want, rec.Scores); diff != "" {
		t.Errorf("scores mismatch (-want +got):\n%s", diff)
	}
}

type fixedStrategy struct{ method domain.Method }

func (f fixedStrategy) SelectMethod(domain.SoilSample, domain.ProjectRequirement) domain.Method {
	return f.method
}

func (f fixedStrategy) PredictStrength(domain.SoilSample, domain.ProjectRequirement, domain.Method) float64 {
	return 100
}

func (f fixedStrategy) EstimateCost(domain.SoilSample, domain.ProjectRequirement, domain.Method) float64 {
	return 10
}

func TestEngine_PluggableStrategy(t *testing.T) {
	e := New(fixedStrategy{method: domain.MethodMICP})
	rec := e.Recommend(domain.SoilSample{}, domain.ProjectRequirement{BudgetCeiling: 50})

	want := domain.Recommendation{Method: domain.MethodMICP, PredictedStrengthKPa: 100, EstimatedCost: 10}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("recommendation mismatch (-want +got):\n%s", diff)
	}
}

func TestNewDefault_RejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.MICP.PH = Band{Min: 9, OptLow: 7, OptHigh: 8, Max: 10}
	if _, err := NewDefault(p); err == nil {
		t.Error("expected error for misordered band")
	}
}
