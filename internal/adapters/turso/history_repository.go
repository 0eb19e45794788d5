package turso

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const submissionColumns = `id, clay_pct, silt_pct, moisture_pct, plasticity_index, ph,
	target_strength_kpa, budget_ceiling, eco_preferred,
	method, predicted_strength_kpa, estimated_cost, scores, notes, created_at`

func (r *HistoryRepository) Save(ctx context.Context, s *domain.Submission) error {
	scores, err := json.Marshal(s.Recommendation.Scores)
	if err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}
	notes := s.Recommendation.Notes
	if notes == nil {
		notes = []string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}

	_, err = withRetry(ctx, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, `INSERT INTO submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID,
			s.Soil.ClayPct,
			s.Soil.SiltPct,
			s.Soil.MoisturePct,
			s.Soil.PlasticityIndex,
			s.Soil.PH,
			s.Requirement.TargetStrengthKPa,
			s.Requirement.BudgetCeiling,
			boolToInt(s.Requirement.EcoPreferred),
			string(s.Recommendation.Method),
			s.Recommendation.PredictedStrengthKPa,
			s.Recommendation.EstimatedCost,
			string(scores),
			string(notesJSON),
			s.CreatedAt.UTC().Format(time.RFC3339),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	s, err := withRetry(ctx, func() (*domain.Submission, error) {
		return scanSubmission(r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id))
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	return withRetry(ctx, func() ([]*domain.Submission, error) {
		rows, err := r.db.QueryContext(ctx, `SELECT `+submissionColumns+` FROM submissions
			ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		defer rows.Close()

		var out []*domain.Submission
		for rows.Next() {
			s, err := scanSubmission(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan submission: %w", err)
			}
			out = append(out, s)
		}
		return out, rows.Err()
	})
}

func (r *HistoryRepository) CountByMethod(ctx context.Context) (map[domain.Method]int64, error) {
	return withRetry(ctx, func() (map[domain.Method]int64, error) {
		rows, err := r.db.QueryContext(ctx, `SELECT method, COUNT(*) FROM submissions GROUP BY method`)
		if err != nil {
			return nil, fmt.Errorf("failed to count submissions: %w", err)
		}
		defer rows.Close()

		counts := make(map[domain.Method]int64, len(domain.Methods))
		for rows.Next() {
			var method string
			var n int64
			if err := rows.Scan(&method, &n); err != nil {
				return nil, fmt.Errorf("failed to scan count: %w", err)
			}
			counts[domain.Method(method)] = n
		}
		return counts, rows.Err()
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*domain.Submission, error) {
	var (
		s          domain.Submission
		eco        int64
		method     string
		scoresJSON string
		notesJSON  string
		createdAt  string
	)
	err := row.Scan(
		&s.ID,
		&s.Soil.ClayPct,
		&s.Soil.SiltPct,
		&s.Soil.MoisturePct,
		&s.Soil.PlasticityIndex,
		&s.Soil.PH,
		&s.Requirement.TargetStrengthKPa,
		&s.Requirement.BudgetCeiling,
		&eco,
		&method,
		&s.Recommendation.PredictedStrengthKPa,
		&s.Recommendation.EstimatedCost,
		&scoresJSON,
		&notesJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	s.Requirement.EcoPreferred = eco == 1
	s.Recommendation.Method = domain.Method(method)
	if err := json.Unmarshal([]byte(scoresJSON), &s.Recommendation.Scores); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}
	if err := json.Unmarshal([]byte(notesJSON), &s.Recommendation.Notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	s.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for %s: %w", s.ID, err)
	}
	return &s, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
