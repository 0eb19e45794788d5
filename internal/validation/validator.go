// Package validation turns raw form, JSON or flag input into validated
// domain values.
package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

// Field names shared by the HTML form, the JSON API and error reports.
const (
	FieldClay           = "clay_pct"
	FieldSilt           = "silt_pct"
	FieldMoisture       = "moisture_pct"
	FieldPI             = "plasticity_index"
	FieldPH             = "ph"
	FieldTargetStrength = "target_strength_kpa"
	FieldBudget         = "budget"
	FieldEco            = "eco_preferred"
)

// Fields lists every input field in form order.
var Fields = []string{
	FieldClay, FieldSilt, FieldMoisture, FieldPI, FieldPH,
	FieldTargetStrength, FieldBudget, FieldEco,
}

// RawInput holds unparsed field values keyed by field name.
type RawInput map[string]string

// Get returns the trimmed value of a field.
func (r RawInput) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Parse converts raw input into a soil sample and project requirement.
// Every violation is collected; the returned error is a *domain.ValidationError.
func Parse(raw RawInput) (domain.SoilSample, domain.ProjectRequirement, error) {
	ve := &domain.ValidationError{}

	soil := domain.SoilSample{
		ClayPct:         parseNumber(ve, FieldClay, raw.Get(FieldClay), true),
		SiltPct:         parseNumber(ve, FieldSilt, raw.Get(FieldSilt), true),
		MoisturePct:     parseNumber(ve, FieldMoisture, raw.Get(FieldMoisture), true),
		PlasticityIndex: parseNumber(ve, FieldPI, raw.Get(FieldPI), true),
		PH:              parseNumber(ve, FieldPH, raw.Get(FieldPH), true),
	}

	req := domain.ProjectRequirement{
		TargetStrengthKPa: parseNumber(ve, FieldTargetStrength, raw.Get(FieldTargetStrength), false),
		BudgetCeiling:     parseBudget(ve, raw.Get(FieldBudget)),
		EcoPreferred:      parseBool(ve, FieldEco, raw.Get(FieldEco)),
	}

	check(ve, soil, req)
	sortViolations(ve)
	if err := ve.OrNil(); err != nil {
		return domain.SoilSample{}, domain.ProjectRequirement{}, err
	}
	return soil, req, nil
}

// Validate range-checks already typed values.
func Validate(soil domain.SoilSample, req domain.ProjectRequirement) error {
	ve := &domain.ValidationError{}
	for field, v := range map[string]float64{
		FieldClay:           soil.ClayPct,
		FieldSilt:           soil.SiltPct,
		FieldMoisture:       soil.MoisturePct,
		FieldPI:             soil.PlasticityIndex,
		FieldPH:             soil.PH,
		FieldTargetStrength: req.TargetStrengthKPa,
		FieldBudget:         req.BudgetCeiling,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			ve.Add(field, "must be a finite number")
		}
	}
	check(ve, soil, req)
	sortViolations(ve)
	return ve.OrNil()
}

func check(ve *domain.ValidationError, soil domain.SoilSample, req domain.ProjectRequirement) {
	inRange(ve, FieldClay, soil.ClayPct, 0, 100)
	inRange(ve, FieldSilt, soil.SiltPct, 0, 100)
	inRange(ve, FieldMoisture, soil.MoisturePct, 0, 100)
	atLeast(ve, FieldPI, soil.PlasticityIndex, 0)
	inRange(ve, FieldPH, soil.PH, 0, 14)

	if !ve.Has(FieldClay) && !ve.Has(FieldSilt) && soil.Fines() > 100 {
		ve.Add(FieldSilt, "clay and silt together exceed 100%% (got %s%%)", formatFloat(soil.Fines()))
	}

	atLeast(ve, FieldTargetStrength, req.TargetStrengthKPa, 0)
	if !ve.Has(FieldBudget) && req.BudgetCeiling <= 0 {
		ve.Add(FieldBudget, "must be greater than 0")
	}
}

func parseNumber(ve *domain.ValidationError, field, s string, required bool) float64 {
	if s == "" {
		if required {
			ve.Add(field, "is required")
		}
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		ve.Add(field, "must be a number, got %q", s)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		ve.Add(field, "must be a finite number")
		return 0
	}
	return v
}

// parseBudget accepts either a level name or a numeric ceiling.
func parseBudget(ve *domain.ValidationError, s string) float64 {
	if s == "" {
		ve.Add(FieldBudget, "is required")
		return 0
	}
	if level, err := domain.ParseBudgetLevel(s); err == nil {
		return domain.BudgetCeilings[level]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		ve.Add(FieldBudget, "must be low, medium, high or a number, got %q", s)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		ve.Add(FieldBudget, "must be a finite number")
		return 0
	}
	return v
}

func parseBool(ve *domain.ValidationError, field, s string) bool {
	switch strings.ToLower(s) {
	case "", "0", "false", "off", "no":
		return false
	case "1", "true", "on", "yes":
		return true
	}
	ve.Add(field, "must be true or false, got %q", s)
	return false
}

func inRange(ve *domain.ValidationError, field string, v, lo, hi float64) {
	if ve.Has(field) {
		return
	}
	if v < lo || v > hi {
		ve.Add(field, "must be between %s and %s, got %s", formatFloat(lo), formatFloat(hi), formatFloat(v))
	}
}

func atLeast(ve *domain.ValidationError, field string, v, lo float64) {
	if ve.Has(field) {
		return
	}
	if v < lo {
		ve.Add(field, "must be at least %s, got %s", formatFloat(lo), formatFloat(v))
	}
}

// sortViolations puts violations in form field order.
func sortViolations(ve *domain.ValidationError) {
	sorted := make([]domain.FieldViolation, 0, len(ve.Violations))
	for _, f := range Fields {
		for _, v := range ve.Violations {
			if v.Field == f {
				sorted = append(sorted, v)
			}
		}
	}
	ve.Violations = sorted
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
