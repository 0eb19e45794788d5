package engine

import (
	"fmt"
	"math"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

// RuleModel is the default Strategy: each method gets a suitability score
// from trapezoidal bands over the soil properties, and the method with the
// best utility against the project requirement wins.
type RuleModel struct {
	p Params
}

func NewRuleModel(p Params) *RuleModel {
	return &RuleModel{p: p}
}

func (m *RuleModel) Params() Params {
	return m.p
}

func (m *RuleModel) micpScore(s domain.SoilSample) float64 {
	p := m.p.MICP
	grain := math.Min(p.Sand.Score(s.Sand()), p.Clay.Score(s.ClayPct))
	conditions := mean(p.PH.Score(s.PH), p.Moisture.Score(s.MoisturePct), p.PI.Score(s.PlasticityIndex))
	return grain * conditions
}

func (m *RuleModel) myceliumScore(s domain.SoilSample) float64 {
	p := m.p.Mycelium
	conditions := mean(p.PH.Score(s.PH), p.Clay.Score(s.ClayPct), p.PI.Score(s.PlasticityIndex))
	return p.Moisture.Score(s.MoisturePct) * conditions
}

func (m *RuleModel) hybridScore(micp, myc float64) float64 {
	return math.Min(1, mean(micp, myc)+m.p.Hybrid.Synergy*math.Min(micp, myc))
}

// Scores returns the suitability of every method for the soil, in [0, 1].
func (m *RuleModel) Scores(s domain.SoilSample) map[domain.Method]float64 {
	micp := m.micpScore(s)
	myc := m.myceliumScore(s)
	return map[domain.Method]float64{
		domain.MethodMICP:     micp,
		domain.MethodMycelium: myc,
		domain.MethodHybrid:   m.hybridScore(micp, myc),
	}
}

func (m *RuleModel) ecoAdjustment(method domain.Method) float64 {
	switch method {
	case domain.MethodMICP:
		return m.p.MICP.EcoAdjustment
	case domain.MethodMycelium:
		return m.p.Mycelium.EcoAdjustment
	case domain.MethodHybrid:
		return m.p.Hybrid.EcoAdjustment
	}
	return 0
}

// utility combines suitability with penalties for missing the strength target
// or exceeding the budget, each measured as a fraction of the requirement.
func (m *RuleModel) utility(s domain.SoilSample, req domain.ProjectRequirement, method domain.Method, score float64) float64 {
	u := score
	if req.EcoPreferred {
		u += m.ecoAdjustment(method)
	}
	if req.TargetStrengthKPa > 0 {
		if gap := req.TargetStrengthKPa - m.PredictStrength(s, req, method); gap > 0 {
			u -= m.p.Selection.ShortfallWeight * gap / req.TargetStrengthKPa
		}
	}
	if req.BudgetCeiling > 0 {
		if over := m.EstimateCost(s, req, method) - req.BudgetCeiling; over > 0 {
			u -= m.p.Selection.OverrunWeight * over / req.BudgetCeiling
		}
	}
	return u
}

// SelectMethod picks the highest-utility method. Ties resolve in
// domain.Methods order.
func (m *RuleModel) SelectMethod(s domain.SoilSample, req domain.ProjectRequirement) domain.Method {
	scores := m.Scores(s)
	best := domain.Methods[0]
	bestU := math.Inf(-1)
	for _, method := range domain.Methods {
		u := m.utility(s, req, method, scores[method])
		if u > bestU+1e-9 {
			best, bestU = method, u
		}
	}
	return best
}

func (m *RuleModel) baseline(s domain.SoilSample) float64 {
	b := m.p.Baseline
	v := b.InterceptKPa + b.PerClayPct*s.ClayPct + b.PerSiltPct*s.SiltPct + b.PerMoisturePct*s.MoisturePct
	return math.Max(b.FloorKPa, v)
}

// PredictStrength estimates treated unconfined compressive strength in kPa.
func (m *RuleModel) PredictStrength(s domain.SoilSample, _ domain.ProjectRequirement, method domain.Method) float64 {
	micpGain := m.p.MICP.MaxGainKPa * m.micpScore(s)
	mycGain := m.p.Mycelium.MaxGainKPa * m.myceliumScore(s)

	var gain float64
	switch method {
	case domain.MethodMICP:
		gain = micpGain
	case domain.MethodMycelium:
		gain = mycGain
	case domain.MethodHybrid:
		gain = m.p.Hybrid.MICPGainShare*micpGain + m.p.Hybrid.MyceliumGainShare*mycGain
	}
	return round(m.baseline(s)+gain, 1)
}

func (m *RuleModel) micpCost(s domain.SoilSample) float64 {
	p := m.p.MICP
	cost := p.BaseCost + p.CostPerFinesPct*s.Fines()
	if s.PH < p.PH.OptLow || s.PH > p.PH.OptHigh {
		cost += p.PHBufferCost
	}
	return cost
}

func (m *RuleModel) myceliumCost(s domain.SoilSample) float64 {
	p := m.p.Mycelium
	return p.BaseCost + p.CostPerMoistureDelta*math.Abs(s.MoisturePct-p.MoistureTargetPct)
}

// EstimateCost estimates treatment cost per cubic metre.
func (m *RuleModel) EstimateCost(s domain.SoilSample, _ domain.ProjectRequirement, method domain.Method) float64 {
	var cost float64
	switch method {
	case domain.MethodMICP:
		cost = m.micpCost(s)
	case domain.MethodMycelium:
		cost = m.myceliumCost(s)
	case domain.MethodHybrid:
		cost = m.p.Hybrid.MICPCostShare*m.micpCost(s) + m.p.Hybrid.MyceliumCostShare*m.myceliumCost(s)
	}
	return round(cost, 2)
}

// Explain lists the soil conditions that shaped the choice.
func (m *RuleModel) Explain(s domain.SoilSample, req domain.ProjectRequirement, method domain.Method) []string {
	var notes []string
	micp, myc := m.p.MICP, m.p.Mycelium

	if method != domain.MethodMycelium && math.Min(micp.Sand.Score(s.Sand()), micp.Clay.Score(s.ClayPct)) < 0.5 {
		notes = append(notes, fmt.Sprintf("Fine-grained soil (%.0f%% clay, %.0f%% sand) limits bacterial transport for MICP", s.ClayPct, s.Sand()))
	}
	if method != domain.MethodMycelium && micp.PH.Score(s.PH) < 1 {
		notes = append(notes, fmt.Sprintf("pH %.1f is outside %.1f-%.1f where urease activity peaks", s.PH, micp.PH.OptLow, micp.PH.OptHigh))
	}
	if method != domain.MethodMICP && myc.Moisture.Score(s.MoisturePct) < 1 {
		notes = append(notes, fmt.Sprintf("Moisture %.0f%% is outside the %.0f-%.0f%% range for mycelium growth", s.MoisturePct, myc.Moisture.OptLow, myc.Moisture.OptHigh))
	}
	if method != domain.MethodMICP && myc.PH.Score(s.PH) < 1 {
		notes = append(notes, fmt.Sprintf("pH %.1f is outside the %.1f-%.1f range fungi prefer", s.PH, myc.PH.OptLow, myc.PH.OptHigh))
	}
	if req.EcoPreferred && method == domain.MethodMICP {
		notes = append(notes, "MICP releases ammonium as a byproduct; plan for rinsing or capture")
	}
	return notes
}

func mean(vs ...float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
