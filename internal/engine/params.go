package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Band is a trapezoidal suitability curve: zero outside [Min, Max], one
// inside [OptLow, OptHigh], linear in between.
type Band struct {
	Min     float64 `yaml:"min" json:"min"`
	OptLow  float64 `yaml:"opt_low" json:"opt_low"`
	OptHigh float64 `yaml:"opt_high" json:"opt_high"`
	Max     float64 `yaml:"max" json:"max"`
}

// Score evaluates the band at v.
func (b Band) Score(v float64) float64 {
	switch {
	case v < b.Min || v > b.Max:
		return 0
	case v >= b.OptLow && v <= b.OptHigh:
		return 1
	case v < b.OptLow:
		return (v - b.Min) / (b.OptLow - b.Min)
	default:
		return (b.Max - v) / (b.Max - b.OptHigh)
	}
}

func (b Band) validate(name string) error {
	for _, v := range []float64{b.Min, b.OptLow, b.OptHigh, b.Max} {
		if !finite(v) {
			return fmt.Errorf("%s: band edges must be finite", name)
		}
	}
	if !(b.Min <= b.OptLow && b.OptLow <= b.OptHigh && b.OptHigh <= b.Max) {
		return fmt.Errorf("%s: band must satisfy min <= opt_low <= opt_high <= max", name)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// field names one scalar parameter for validation messages.
type field struct {
	name  string
	value float64
}

type MICPParams struct {
	Sand            Band    `yaml:"sand" json:"sand"`
	Clay            Band    `yaml:"clay" json:"clay"`
	PH              Band    `yaml:"ph" json:"ph"`
	Moisture        Band    `yaml:"moisture" json:"moisture"`
	PI              Band    `yaml:"plasticity_index" json:"plasticity_index"`
	MaxGainKPa      float64 `yaml:"max_gain_kpa" json:"max_gain_kpa"`
	BaseCost        float64 `yaml:"base_cost" json:"base_cost"`
	CostPerFinesPct float64 `yaml:"cost_per_fines_pct" json:"cost_per_fines_pct"`
	PHBufferCost    float64 `yaml:"ph_buffer_cost" json:"ph_buffer_cost"`
	EcoAdjustment   float64 `yaml:"eco_adjustment" json:"eco_adjustment"`
}

type MyceliumParams struct {
	Moisture             Band    `yaml:"moisture" json:"moisture"`
	PH                   Band    `yaml:"ph" json:"ph"`
	Clay                 Band    `yaml:"clay" json:"clay"`
	PI                   Band    `yaml:"plasticity_index" json:"plasticity_index"`
	MaxGainKPa           float64 `yaml:"max_gain_kpa" json:"max_gain_kpa"`
	BaseCost             float64 `yaml:"base_cost" json:"base_cost"`
	MoistureTargetPct    float64 `yaml:"moisture_target_pct" json:"moisture_target_pct"`
	CostPerMoistureDelta float64 `yaml:"cost_per_moisture_delta" json:"cost_per_moisture_delta"`
	EcoAdjustment        float64 `yaml:"eco_adjustment" json:"eco_adjustment"`
}

type HybridParams struct {
	MICPGainShare     float64 `yaml:"micp_gain_share" json:"micp_gain_share"`
	MyceliumGainShare float64 `yaml:"mycelium_gain_share" json:"mycelium_gain_share"`
	MICPCostShare     float64 `yaml:"micp_cost_share" json:"micp_cost_share"`
	MyceliumCostShare float64 `yaml:"mycelium_cost_share" json:"mycelium_cost_share"`
	Synergy           float64 `yaml:"synergy" json:"synergy"`
	EcoAdjustment     float64 `yaml:"eco_adjustment" json:"eco_adjustment"`
}

// BaselineParams estimates untreated strength with a linear fit.
type BaselineParams struct {
	InterceptKPa   float64 `yaml:"intercept_kpa" json:"intercept_kpa"`
	PerClayPct     float64 `yaml:"per_clay_pct" json:"per_clay_pct"`
	PerSiltPct     float64 `yaml:"per_silt_pct" json:"per_silt_pct"`
	PerMoisturePct float64 `yaml:"per_moisture_pct" json:"per_moisture_pct"`
	FloorKPa       float64 `yaml:"floor_kpa" json:"floor_kpa"`
}

type SelectionParams struct {
	ShortfallWeight float64 `yaml:"shortfall_weight" json:"shortfall_weight"`
	OverrunWeight   float64 `yaml:"overrun_weight" json:"overrun_weight"`
}

// Params configures the rule model.
type Params struct {
	MICP      MICPParams      `yaml:"micp" json:"micp"`
	Mycelium  MyceliumParams  `yaml:"mycelium" json:"mycelium"`
	Hybrid    HybridParams    `yaml:"hybrid" json:"hybrid"`
	Baseline  BaselineParams  `yaml:"baseline" json:"baseline"`
	Selection SelectionParams `yaml:"selection" json:"selection"`
}

// DefaultParams returns the built-in decision table.
func DefaultParams() Params {
	return Params{
		MICP: MICPParams{
			Sand:            Band{Min: 15, OptLow: 70, OptHigh: 100, Max: 100},
			Clay:            Band{Min: 0, OptLow: 0, OptHigh: 15, Max: 50},
			PH:              Band{Min: 5.5, OptLow: 7.0, OptHigh: 9.5, Max: 11},
			Moisture:        Band{Min: 2, OptLow: 10, OptHigh: 40, Max: 80},
			PI:              Band{Min: 0, OptLow: 0, OptHigh: 10, Max: 40},
			MaxGainKPa:      1500,
			BaseCost:        95,
			CostPerFinesPct: 0.8,
			PHBufferCost:    12,
			EcoAdjustment:   -0.10,
		},
		Mycelium: MyceliumParams{
			Moisture:             Band{Min: 5, OptLow: 30, OptHigh: 60, Max: 90},
			PH:                   Band{Min: 3.5, OptLow: 5.0, OptHigh: 7.5, Max: 9.5},
			Clay:                 Band{Min: 0, OptLow: 0, OptHigh: 50, Max: 80},
			PI:                   Band{Min: 0, OptLow: 0, OptHigh: 30, Max: 60},
			MaxGainKPa:           300,
			BaseCost:             35,
			MoistureTargetPct:    45,
			CostPerMoistureDelta: 0.3,
			EcoAdjustment:        0.15,
		},
		Hybrid: HybridParams{
			MICPGainShare:     0.6,
			MyceliumGainShare: 0.9,
			MICPCostShare:     0.6,
			MyceliumCostShare: 0.6,
			Synergy:           0.2,
			EcoAdjustment:     0.05,
		},
		Baseline: BaselineParams{
			InterceptKPa:   25,
			PerClayPct:     1.2,
			PerSiltPct:     0.4,
			PerMoisturePct: -0.6,
			FloorKPa:       10,
		},
		Selection: SelectionParams{
			ShortfallWeight: 1.0,
			OverrunWeight:   1.0,
		},
	}
}

// Validate checks that every band is well ordered and every number is
// finite. Gains, costs, shares and weights must not be negative.
func (p Params) Validate() error {
	bands := []struct {
		name string
		band Band
	}{
		{"micp.sand", p.MICP.Sand},
		{"micp.clay", p.MICP.Clay},
		{"micp.ph", p.MICP.PH},
		{"micp.moisture", p.MICP.Moisture},
		{"micp.plasticity_index", p.MICP.PI},
		{"mycelium.moisture", p.Mycelium.Moisture},
		{"mycelium.ph", p.Mycelium.PH},
		{"mycelium.clay", p.Mycelium.Clay},
		{"mycelium.plasticity_index", p.Mycelium.PI},
	}
	for _, b := range bands {
		if err := b.band.validate(b.name); err != nil {
			return err
		}
	}

	nonNegative := []field{
		{"micp.max_gain_kpa", p.MICP.MaxGainKPa},
		{"micp.base_cost", p.MICP.BaseCost},
		{"micp.cost_per_fines_pct", p.MICP.CostPerFinesPct},
		{"micp.ph_buffer_cost", p.MICP.PHBufferCost},
		{"mycelium.max_gain_kpa", p.Mycelium.MaxGainKPa},
		{"mycelium.base_cost", p.Mycelium.BaseCost},
		{"mycelium.moisture_target_pct", p.Mycelium.MoistureTargetPct},
		{"mycelium.cost_per_moisture_delta", p.Mycelium.CostPerMoistureDelta},
		{"hybrid.micp_gain_share", p.Hybrid.MICPGainShare},
		{"hybrid.mycelium_gain_share", p.Hybrid.MyceliumGainShare},
		{"hybrid.micp_cost_share", p.Hybrid.MICPCostShare},
		{"hybrid.mycelium_cost_share", p.Hybrid.MyceliumCostShare},
		{"hybrid.synergy", p.Hybrid.Synergy},
		{"baseline.floor_kpa", p.Baseline.FloorKPa},
		{"selection.shortfall_weight", p.Selection.ShortfallWeight},
		{"selection.overrun_weight", p.Selection.OverrunWeight},
	}
	// Signed terms: eco adjustments and the baseline fit.
	signed := []field{
		{"micp.eco_adjustment", p.MICP.EcoAdjustment},
		{"mycelium.eco_adjustment", p.Mycelium.EcoAdjustment},
		{"hybrid.eco_adjustment", p.Hybrid.EcoAdjustment},
		{"baseline.intercept_kpa", p.Baseline.InterceptKPa},
		{"baseline.per_clay_pct", p.Baseline.PerClayPct},
		{"baseline.per_silt_pct", p.Baseline.PerSiltPct},
		{"baseline.per_moisture_pct", p.Baseline.PerMoisturePct},
	}

	for _, f := range append(nonNegative, signed...) {
		if !finite(f.value) {
			return fmt.Errorf("%s: must be a finite number", f.name)
		}
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return fmt.Errorf("%s: must not be negative", f.name)
		}
	}
	return nil
}

// LoadParams reads a YAML file on top of the defaults. Keys missing from the
// file keep their default values.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("parse params file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid params file %s: %w", path, err)
	}
	return p, nil
}

// YAML renders params in the same layout LoadParams reads.
func (p Params) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
