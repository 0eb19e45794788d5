// Package service wires validation, the recommendation engine, history and
// metrics into the single operation the web and CLI front ends share.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/soilstab/internal/domain"
	"github.com/emiliopalmerini/soilstab/internal/engine"
	"github.com/emiliopalmerini/soilstab/internal/ports"
	"github.com/emiliopalmerini/soilstab/internal/validation"
)

// Result is the outcome of one successful submission.
type Result struct {
	Submission domain.Submission
	// Saved is false when history is disabled or the store rejected the write.
	Saved bool
}

type Recommender struct {
	engine    atomic.Pointer[engine.Engine]
	history   ports.HistoryRepository
	exporters []ports.MetricsExporter
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Recommender)

// WithHistory records every submission in repo.
func WithHistory(repo ports.HistoryRepository) Option {
	return func(r *Recommender) { r.history = repo }
}

func WithExporters(exporters ...ports.MetricsExporter) Option {
	return func(r *Recommender) { r.exporters = append(r.exporters, exporters...) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Recommender) { r.logger = logger }
}

// WithClock replaces time.Now and the UUID generator, for tests.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(r *Recommender) {
		r.now = now
		r.newID = newID
	}
}

func New(e *engine.Engine, opts ...Option) *Recommender {
	r := &Recommender{
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	r.engine.Store(e)
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "history",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return r
}

// Recommend validates raw input and computes a recommendation. Validation
// failures are returned as *domain.ValidationError.
func (r *Recommender) Recommend(ctx context.Context, source string, raw validation.RawInput) (*Result, error) {
	start := time.Now()
	soil, req, err := validation.Parse(raw)
	if err != nil {
		r.reject(ctx, source, err)
		return nil, err
	}
	return r.complete(ctx, source, soil, req, start), nil
}

// Evaluate is Recommend for callers that already hold typed values.
func (r *Recommender) Evaluate(ctx context.Context, source string, soil domain.SoilSample, req domain.ProjectRequirement) (*Result, error) {
	start := time.Now()
	if err := validation.Validate(soil, req); err != nil {
		r.reject(ctx, source, err)
		return nil, err
	}
	return r.complete(ctx, source, soil, req, start), nil
}

func (r *Recommender) complete(ctx context.Context, source string, soil domain.SoilSample, req domain.ProjectRequirement, start time.Time) *Result {
	rec := r.engine.Load().Recommend(soil, req)
	res := &Result{
		Submission: domain.Submission{
			ID:             r.newID(),
			Soil:           soil,
			Requirement:    req,
			Recommendation: rec,
			CreatedAt:      r.now().UTC(),
		},
	}

	r.logger.Debug("recommendation computed",
		zap.String("id", res.Submission.ID),
		zap.String("source", source),
		zap.String("method", string(rec.Method)),
		zap.Float64("strength_kpa", rec.PredictedStrengthKPa),
		zap.Float64("cost", rec.EstimatedCost))

	res.Saved = r.save(ctx, &res.Submission)

	m := &ports.RecommendationMetrics{
		Source:               source,
		Method:               rec.Method,
		EcoPreferred:         req.EcoPreferred,
		MeetsTarget:          rec.MeetsTarget(req),
		WithinBudget:         rec.WithinBudget(req),
		PredictedStrengthKPa: rec.PredictedStrengthKPa,
		EstimatedCost:        rec.EstimatedCost,
		DurationSeconds:      time.Since(start).Seconds(),
	}
	for _, e := range r.exporters {
		if err := e.ExportRecommendation(ctx, m); err != nil {
			r.logger.Warn("failed to export recommendation metrics", zap.Error(err))
		}
	}
	return res
}

// save never fails the request; store errors are logged and the breaker
// stops further attempts while the store is down.
func (r *Recommender) save(ctx context.Context, s *domain.Submission) bool {
	if r.history == nil {
		return false
	}
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.history.Save(ctx, s)
	})
	if err != nil {
		r.logger.Warn("failed to record submission",
			zap.String("id", s.ID),
			zap.Error(err))
		return false
	}
	return true
}

func (r *Recommender) reject(ctx context.Context, source string, err error) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return
	}
	fields := make([]string, len(ve.Violations))
	for i, v := range ve.Violations {
		fields[i] = v.Field
	}
	r.logger.Debug("submission rejected",
		zap.String("source", source),
		zap.Strings("fields", fields))
	for _, e := range r.exporters {
		if err := e.ExportRejection(ctx, fields); err != nil {
			r.logger.Warn("failed to export rejection metrics", zap.Error(err))
		}
	}
}

// ErrHistoryDisabled is returned by history queries when no store is configured.
var ErrHistoryDisabled = errors.New("history is not enabled")

func (r *Recommender) HistoryEnabled() bool {
	return r.history != nil
}

func (r *Recommender) Recent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	if r.history == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = 20
	}
	subs, err := r.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return subs, nil
}

// Submission returns nil, nil when id is unknown.
func (r *Recommender) Submission(ctx context.Context, id string) (*domain.Submission, error) {
	if r.history == nil {
		return nil, ErrHistoryDisabled
	}
	return r.history.GetByID(ctx, id)
}

func (r *Recommender) MethodCounts(ctx context.Context) (map[domain.Method]int64, error) {
	if r.history == nil {
		return nil, ErrHistoryDisabled
	}
	return r.history.CountByMethod(ctx)
}

// Params returns the rule model parameters when the engine runs the default
// strategy.
func (r *Recommender) Params() (engine.Params, bool) {
	if m, ok := r.engine.Load().Strategy().(*engine.RuleModel); ok {
		return m.Params(), true
	}
	return engine.Params{}, false
}

// SetEngine swaps the engine used by subsequent submissions. Requests in
// flight finish with the engine they started with.
func (r *Recommender) SetEngine(e *engine.Engine) {
	r.engine.Store(e)
	r.logger.Info("recommendation engine replaced")
}

// Close flushes every exporter.
func (r *Recommender) Close(ctx context.Context) error {
	var errs []error
	for _, e := range r.exporters {
		if err := e.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
