package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	// FindByIDs возвращает только найденные отчёты, отсутствующие id молча пропускаются.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]*entity.Report, error)
	ListActive(ctx context.Context, district string) ([]*entity.Report, error)
	// UpdateStatus меняет статус только если текущий равен from. false, если строка не изменилась.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ReportStatus) (bool, error)
	IncrementUpvotes(ctx context.Context, id uuid.UUID) (int, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

type ReportFilter struct {
	District    string
	LocationKey string
	ActiveOnly  bool
	Limit       int
}
