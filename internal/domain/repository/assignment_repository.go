package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
)

type AssignmentRepository interface {
	// Create возвращает ALREADY_ESCALATED, если для ключа локации уже есть активное назначение.
	Create(ctx context.Context, assignment *entity.Assignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error)
	ListActive(ctx context.Context) ([]*entity.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]*entity.Assignment, error)
	// UpdateTransition сохраняет статус, временные метки и решение при условии status = from.
	UpdateTransition(ctx context.Context, assignment *entity.Assignment, from valueobject.AssignmentStatus) error
	// UpdateCoordinates возвращает INVALID_TRANSITION для закрытого назначения.
	UpdateCoordinates(ctx context.Context, id uuid.UUID, coords valueobject.Coordinates) error
	// UpdateTestResult сохраняет результат анализа. Закрытое назначение даёт INVALID_TRANSITION.
	UpdateTestResult(ctx context.Context, assignment *entity.Assignment) error
}

type AssignmentFilter struct {
	District   string
	Status     valueobject.AssignmentStatus
	ActiveOnly bool
}

// Transactor выполняет fn в одной транзакции, передавая её через контекст.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
