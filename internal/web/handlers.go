package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/soilstab/internal/domain"
	sharedmw "github.com/emiliopalmerini/soilstab/internal/shared/middleware"
	"github.com/emiliopalmerini/soilstab/internal/validation"
	"github.com/emiliopalmerini/soilstab/internal/web/templates"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_ = templates.IndexPage(templates.FormView{}, nil).Render(r.Context(), w)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	raw := validation.FromForm(r.PostForm)
	form := templates.FormView{Values: raw}

	res, err := s.svc.Recommend(ctx, "web", raw)
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			s.logger.Error("recommendation failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		form.Errors = ve.Messages()
		// htmx only swaps 2xx responses, so the fragment goes out as 200.
		if sharedmw.IsPartial(r) {
			_ = templates.ErrorPanel(form).Render(ctx, w)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = templates.IndexPage(form, nil).Render(ctx, w)
		return
	}

	view := buildResultView(res)
	if sharedmw.IsPartial(r) {
		_ = templates.ResultPanel(view).Render(ctx, w)
		return
	}
	_ = templates.IndexPage(form, &view).Render(ctx, w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := templates.HistoryView{
		Enabled: s.svc.HistoryEnabled(),
		Limit:   parseLimit(r),
	}
	if !view.Enabled {
		_ = templates.HistoryPage(view).Render(ctx, w)
		return
	}

	subs, err := s.svc.Recent(ctx, view.Limit)
	if err != nil {
		s.logger.Error("failed to load history", zap.Error(err))
		view.Error = "History is temporarily unavailable."
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = templates.HistoryPage(view).Render(ctx, w)
		return
	}
	for _, sub := range subs {
		view.Rows = append(view.Rows, buildHistoryRow(sub))
	}
	view.NextLimit = nextHistoryLimit(view.Limit, len(view.Rows))

	if counts, err := s.svc.MethodCounts(ctx); err == nil {
		view.Counts = buildMethodCounts(counts)
	} else {
		s.logger.Warn("failed to count methods", zap.Error(err))
	}

	_ = templates.HistoryPage(view).Render(ctx, w)
}
