package validation

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

func validRaw() RawInput {
	return RawInput{
		FieldClay:           "40",
		FieldSilt:           "30",
		FieldMoisture:       "20",
		FieldPI:             "15",
		FieldPH:             "7.0",
		FieldTargetStrength: "150",
		FieldBudget:         "high",
		FieldEco:            "on",
	}
}

func violations(t *testing.T, err error) []domain.FieldViolation {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %T (%v)", err, err)
	}
	return ve.Violations
}

func TestParse_Valid(t *testing.T) {
	soil, req, err := Parse(validRaw())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantSoil := domain.SoilSample{ClayPct: 40, SiltPct: 30, MoisturePct: 20, PlasticityIndex: 15, PH: 7}
	wantReq := domain.ProjectRequirement{TargetStrengthKPa: 150, BudgetCeiling: 260, EcoPreferred: true}
	if diff := cmp.Diff(wantSoil, soil); diff != "" {
		t.Errorf("soil mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantReq, req); diff != "" {
		t.Errorf("requirement mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NumericBudgetAndDefaults(t *testing.T) {
	raw := validRaw()
	raw[FieldBudget] = " 95.5 "
	delete(raw, FieldTargetStrength)
	delete(raw, FieldEco)

	_, req, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := domain.ProjectRequirement{BudgetCeiling: 95.5}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("requirement mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ClayPlusSiltOver100(t *testing.T) {
	raw := validRaw()
	raw[FieldClay] = "60"
	raw[FieldSilt] = "45"

	_, _, err := Parse(raw)

	want := []domain.FieldViolation{{Field: FieldSilt, Message: "clay and silt together exceed 100% (got 105%)"}}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ClayPlusSiltExactly100(t *testing.T) {
	raw := validRaw()
	raw[FieldClay] = "60"
	raw[FieldSilt] = "40"
	if _, _, err := Parse(raw); err != nil {
		t.Errorf("expected clay+silt=100 to be valid, got %v", err)
	}
}

func TestParse_CollectsAllViolations(t *testing.T) {
	raw := RawInput{
		FieldClay:     "abc",
		FieldSilt:     "-1",
		FieldMoisture: "101",
		FieldPI:       "-0.5",
		FieldPH:       "NaN",
		FieldBudget:   "",
		FieldEco:      "maybe",
	}

	_, _, err := Parse(raw)

	got := violations(t, err)
	var fields []string
	for _, v := range got {
		fields = append(fields, v.Field)
	}
	want := []string{FieldClay, FieldSilt, FieldMoisture, FieldPI, FieldPH, FieldBudget, FieldEco}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("violated fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MissingSoilFields(t *testing.T) {
	_, _, err := Parse(RawInput{FieldBudget: "low"})

	got := violations(t, err)
	if len(got) != 5 {
		t.Fatalf("expected 5 violations, got %d: %v", len(got), got)
	}
	for _, v := range got {
		if v.Message != "is required" {
			t.Errorf("expected 'is required' for %s, got %q", v.Field, v.Message)
		}
	}
}

func TestParse_PHOutOfRange(t *testing.T) {
	raw := validRaw()
	raw[FieldPH] = "14.5"

	_, _, err := Parse(raw)

	want := []domain.FieldViolation{{Field: FieldPH, Message: "must be between 0 and 14, got 14.5"}}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RejectsInfinity(t *testing.T) {
	raw := validRaw()
	raw[FieldPI] = "+Inf"

	_, _, err := Parse(raw)

	want := []domain.FieldViolation{{Field: FieldPI, Message: "must be a finite number"}}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ZeroBudget(t *testing.T) {
	raw := validRaw()
	raw[FieldBudget] = "0"

	_, _, err := Parse(raw)

	want := []domain.FieldViolation{{Field: FieldBudget, Message: "must be greater than 0"}}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ClaySiltInvariantSkippedWhenFieldInvalid(t *testing.T) {
	raw := validRaw()
	raw[FieldClay] = "120"
	raw[FieldSilt] = "30"

	_, _, err := Parse(raw)

	got := violations(t, err)
	if len(got) != 1 || got[0].Field != FieldClay {
		t.Errorf("expected a single clay violation, got %v", got)
	}
}

func TestValidate_ClayPlusSiltOver100(t *testing.T) {
	for _, tc := range []struct{ clay, silt float64 }{{50.5, 50}, {100, 0.1}, {70, 70}} {
		soil := domain.SoilSample{ClayPct: tc.clay, SiltPct: tc.silt, MoisturePct: 10, PH: 7}
		err := Validate(soil, domain.ProjectRequirement{BudgetCeiling: 100})
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("clay=%v silt=%v: expected ValidationError, got %v", tc.clay, tc.silt, err)
		}
	}
}

func TestValidate_Valid(t *testing.T) {
	soil := domain.SoilSample{ClayPct: 10, SiltPct: 20, MoisturePct: 30, PlasticityIndex: 5, PH: 6.5}
	if err := Validate(soil, domain.ProjectRequirement{BudgetCeiling: 100}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	raw := validRaw()
	raw[FieldClay] = "x"
	raw[FieldPH] = "15"

	_, _, err := Parse(raw)

	msg := err.Error()
	if !strings.HasPrefix(msg, "2 invalid fields: ") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestFromForm(t *testing.T) {
	values := url.Values{
		FieldClay:   {"10", "12"},
		FieldEco:    {"on"},
		"unrelated": {"x"},
	}
	raw := FromForm(values)

	want := RawInput{FieldClay: "12", FieldEco: "on"}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("raw mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSON(t *testing.T) {
	body := `{"clay_pct": 40, "silt_pct": "30", "moisture_pct": 20.5, "plasticity_index": 15,
		"ph": 7, "budget": "high", "eco_preferred": true, "target_strength_kpa": null}`

	raw, err := FromJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	want := RawInput{
		FieldClay:     "40",
		FieldSilt:     "30",
		FieldMoisture: "20.5",
		FieldPI:       "15",
		FieldPH:       "7",
		FieldBudget:   "high",
		FieldEco:      "true",
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("raw mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSON_WrongTypeBecomesViolation(t *testing.T) {
	raw, err := FromJSON(strings.NewReader(`{"clay_pct": [1, 2]}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	_, _, err = Parse(raw)
	got := violations(t, err)
	if got[0].Field != FieldClay || !strings.HasPrefix(got[0].Message, "must be a number") {
		t.Errorf("unexpected first violation %+v", got[0])
	}
}

func TestFromJSON_Malformed(t *testing.T) {
	if _, err := FromJSON(strings.NewReader(`{`)); err == nil {
		t.Error("expected decode error")
	}
}
