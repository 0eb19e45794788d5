package ports

import (
	"context"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

type HistoryRepository interface {
	Save(ctx context.Context, s *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error)
	CountByMethod(ctx context.Context) (map[domain.Method]int64, error)
}
