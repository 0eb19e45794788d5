package templates

import (
	"time"

	"github.com/emiliopalmerini/soilstab/internal/validation"
)

// FormField describes one input on the recommendation form.
type FormField struct {
	Name  string
	Label string
	Unit  string
	Min   string
	Max   string
	Step  string
	Hint  string
}

var soilFields = []FormField{
	{Name: validation.FieldClay, Label: "Clay", Unit: "%", Min: "0", Max: "100", Step: "0.1"},
	{Name: validation.FieldSilt, Label: "Silt", Unit: "%", Min: "0", Max: "100", Step: "0.1", Hint: "Clay and silt together must not exceed 100%."},
	{Name: validation.FieldMoisture, Label: "Moisture", Unit: "%", Min: "0", Max: "100", Step: "0.1"},
	{Name: validation.FieldPI, Label: "Plasticity index", Min: "0", Step: "0.1"},
	{Name: validation.FieldPH, Label: "pH", Min: "0", Max: "14", Step: "0.1"},
}

var targetStrengthField = FormField{
	Name: validation.FieldTargetStrength, Label: "Target strength", Unit: "kPa", Min: "0", Step: "1",
	Hint: "Leave empty for no minimum.",
}

type BudgetOption struct {
	Value string
	Label string
}

var budgetOptions = []BudgetOption{
	{"low", "Low (60 /m³)"},
	{"medium", "Medium (140 /m³)"},
	{"high", "High (260 /m³)"},
}

// FormView is the form state: what the user typed and what was rejected.
type FormView struct {
	Values map[string]string
	Errors map[string]string
}

func (f FormView) value(name string) string {
	if f.Values == nil {
		return ""
	}
	return f.Values[name]
}

func (f FormView) errorFor(name string) string {
	if f.Errors == nil {
		return ""
	}
	return f.Errors[name]
}

// budget is the selected budget option, medium when nothing was sent.
func (f FormView) budget() string {
	if v := f.value(validation.FieldBudget); v != "" {
		return v
	}
	return "medium"
}

func (f FormView) ecoChecked() bool {
	switch f.value(validation.FieldEco) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

type ScoreRow struct {
	Method string
	Score  float64
	Chosen bool
}

// ResultView is a rendered recommendation.
type ResultView struct {
	ID                string
	Method            string
	Description       string
	StrengthKPa       float64
	Cost              float64
	TargetStrengthKPa float64
	BudgetCeiling     float64
	MeetsTarget       bool
	WithinBudget      bool
	EcoPreferred      bool
	Scores            []ScoreRow
	Notes             []string
	Saved             bool
}

func (r ResultView) missesTarget() bool {
	return r.TargetStrengthKPa > 0 && !r.MeetsTarget
}

type HistoryRow struct {
	ID          string
	CreatedAt   time.Time
	Method      string
	ClayPct     float64
	SiltPct     float64
	MoisturePct float64
	PI          float64
	PH          float64
	StrengthKPa float64
	Cost        float64
}

type MethodCount struct {
	Method string
	Count  int64
}

type HistoryView struct {
	Enabled bool
	Limit   int
	// NextLimit is the limit behind "Show more"; zero hides the link.
	NextLimit int
	Rows      []HistoryRow
	Counts    []MethodCount
	Error     string
}
