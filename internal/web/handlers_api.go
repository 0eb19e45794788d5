package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/soilstab/internal/domain"
	"github.com/emiliopalmerini/soilstab/internal/validation"
)

const maxBodyBytes = 1 << 20

type recommendResponse struct {
	ID                   string                    `json:"id"`
	Method               domain.Method             `json:"method"`
	Description          string                    `json:"description"`
	PredictedStrengthKPa float64                   `json:"predicted_strength_kpa"`
	EstimatedCost        float64                   `json:"estimated_cost"`
	MeetsTarget          bool                      `json:"meets_target"`
	WithinBudget         bool                      `json:"within_budget"`
	Scores               map[domain.Method]float64 `json:"scores,omitempty"`
	Notes                []string                  `json:"notes,omitempty"`
	Soil                 domain.SoilSample         `json:"soil"`
	Requirement          domain.ProjectRequirement `json:"requirement"`
	Saved                bool                      `json:"saved"`
}

type errorResponse struct {
	Error      string                  `json:"error"`
	Violations []domain.FieldViolation `json:"violations,omitempty"`
}

func (s *Server) handleAPIRecommend(w http.ResponseWriter, r *http.Request) {
	raw, err := validation.FromJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := s.svc.Recommend(r.Context(), "api", raw)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:      ve.Error(),
				Violations: ve.Violations,
			})
			return
		}
		s.logger.Error("recommendation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	sub := res.Submission
	rec := sub.Recommendation
	writeJSON(w, http.StatusOK, recommendResponse{
		ID:                   sub.ID,
		Method:               rec.Method,
		Description:          rec.Method.Description(),
		PredictedStrengthKPa: rec.PredictedStrengthKPa,
		EstimatedCost:        rec.EstimatedCost,
		MeetsTarget:          rec.MeetsTarget(sub.Requirement),
		WithinBudget:         rec.WithinBudget(sub.Requirement),
		Scores:               rec.Scores,
		Notes:                rec.Notes,
		Soil:                 sub.Soil,
		Requirement:          sub.Requirement,
		Saved:                res.Saved,
	})
}

func (s *Server) handleAPIParams(w http.ResponseWriter, r *http.Request) {
	p, ok := s.svc.Params()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "engine is not running the rule model"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}
