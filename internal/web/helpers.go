package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/emiliopalmerini/soilstab/internal/domain"
	"github.com/emiliopalmerini/soilstab/internal/service"
	"github.com/emiliopalmerini/soilstab/internal/web/templates"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// buildResultView converts a service result into its template view.
func buildResultView(res *service.Result) templates.ResultView {
	sub := res.Submission
	rec := sub.Recommendation
	view := templates.ResultView{
		ID:                sub.ID,
		Method:            string(rec.Method),
		Description:       rec.Method.Description(),
		StrengthKPa:       rec.PredictedStrengthKPa,
		Cost:              rec.EstimatedCost,
		TargetStrengthKPa: sub.Requirement.TargetStrengthKPa,
		BudgetCeiling:     sub.Requirement.BudgetCeiling,
		MeetsTarget:       rec.MeetsTarget(sub.Requirement),
		WithinBudget:      rec.WithinBudget(sub.Requirement),
		EcoPreferred:      sub.Requirement.EcoPreferred,
		Notes:             rec.Notes,
		Saved:             res.Saved,
	}
	for _, m := range domain.Methods {
		score, ok := rec.Scores[m]
		if !ok {
			continue
		}
		view.Scores = append(view.Scores, templates.ScoreRow{
			Method: string(m),
			Score:  score,
			Chosen: m == rec.Method,
		})
	}
	return view
}

func buildHistoryRow(s *domain.Submission) templates.HistoryRow {
	return templates.HistoryRow{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		Method:      string(s.Recommendation.Method),
		ClayPct:     s.Soil.ClayPct,
		SiltPct:     s.Soil.SiltPct,
		MoisturePct: s.Soil.MoisturePct,
		PI:          s.Soil.PlasticityIndex,
		PH:          s.Soil.PH,
		StrengthKPa: s.Recommendation.PredictedStrengthKPa,
		Cost:        s.Recommendation.EstimatedCost,
	}
}

func buildMethodCounts(counts map[domain.Method]int64) []templates.MethodCount {
	out := make([]templates.MethodCount, 0, len(domain.Methods))
	for _, m := range domain.Methods {
		out = append(out, templates.MethodCount{Method: string(m), Count: counts[m]})
	}
	return out
}

// parseLimit reads ?limit=, clamping it to a sane range.
func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// writeJSON encodes before writing the header so an unencodable value
// becomes a 500 instead of an empty 200.
// nextHistoryLimit is the limit behind "Show more", or 0 when the page is
// not full or already at the cap.
func nextHistoryLimit(limit, rows int) int {
	if rows < limit || limit >= maxHistoryLimit {
		return 0
	}
	return min(limit*2, maxHistoryLimit)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
