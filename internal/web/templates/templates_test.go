package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestIndexPage_EmptyForm(t *testing.T) {
	out := render(t, IndexPage(FormView{}, nil))

	for _, want := range []string{
		`<!doctype html>`,
		`name="clay_pct"`,
		`name="plasticity_index"`,
		`<option value="medium" selected>`,
		`Submit the form to get a recommendation.`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestIndexPage_ErrorsEscapedAndListed(t *testing.T) {
	form := FormView{
		Values: map[string]string{"clay_pct": `"><script>`},
		Errors: map[string]string{"clay_pct": `must be a number, got "\"><script>"`},
	}
	out := render(t, IndexPage(form, nil))

	if strings.Contains(out, `<script>`) {
		t.Error("expected user input to be escaped")
	}
	if !strings.Contains(out, `role="alert"`) {
		t.Error("expected form-level error panel")
	}
	if !strings.Contains(out, `aria-invalid="true"`) {
		t.Error("expected invalid input to be marked")
	}
}

func TestResultPanel(t *testing.T) {
	out := render(t, ResultPanel(ResultView{
		ID:           "0123456789abcdef",
		Method:       "Mycelium",
		StrengthKPa:  253,
		Cost:         42.5,
		WithinBudget: true,
		MeetsTarget:  true,
		Scores: []ScoreRow{
			{Method: "Mycelium", Score: 0.6, Chosen: true},
			{Method: "MICP", Score: 0.258},
		},
		Notes: []string{"Moisture suits fungal growth"},
		Saved: true,
	}))

	for _, want := range []string{"Mycelium", "253.0 kPa", "42.50 /m³", `class="chosen"`, "60%", "Saved as 01234567"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected result to contain %q", want)
		}
	}
	if strings.Contains(out, `class="warn"`) {
		t.Error("expected no warnings when target and budget are met")
	}
}

func TestHistoryPage(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		out := render(t, HistoryPage(HistoryView{}))
		if !strings.Contains(out, "History is disabled") {
			t.Error("expected disabled notice")
		}
	})

	t.Run("rows", func(t *testing.T) {
		out := render(t, HistoryPage(HistoryView{
			Enabled:   true,
			Limit:     1,
			NextLimit: 2,
			Rows: []HistoryRow{{
				ID: "abc", CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
				Method: "MICP", ClayPct: 5, SiltPct: 10, PH: 8, StrengthKPa: 1526, Cost: 107,
			}},
			Counts: []MethodCount{{Method: "MICP", Count: 1}},
		}))
		for _, want := range []string{"<table", "MICP", "1526.0 kPa", `href="/history?limit=2"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected history to contain %q", want)
			}
		}
	})
}

func TestHistoryPage_NoNextLimitHidesLink(t *testing.T) {
	out := render(t, HistoryPage(HistoryView{
		Enabled: true,
		Limit:   500,
		Rows:    []HistoryRow{{ID: "abc", Method: "MICP"}},
	}))
	if strings.Contains(out, "Show more") {
		t.Error("expected no show more link without a next limit")
	}
}

func TestRecommendForm_KeepsSelections(t *testing.T) {
	out := render(t, RecommendForm(FormView{
		Values: map[string]string{"budget": "high", "eco_preferred": "on", "clay_pct": "40"},
	}))
	for _, want := range []string{
		`<option value="high" selected>`,
		`<option value="medium">`,
		`value="true" checked>`,
		`name="clay_pct" value="40"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected form to contain %q", want)
		}
	}
}
