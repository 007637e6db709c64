package escalation

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
)

type SetCoordinatesUseCase struct {
	assignmentRepo repository.AssignmentRepository
}

func NewSetCoordinatesUseCase(assignmentRepo repository.AssignmentRepository) *SetCoordinatesUseCase {
	return &SetCoordinatesUseCase{assignmentRepo: assignmentRepo}
}

// Execute задаёт координаты активному назначению, после чего оно видно в поиске поблизости.
func (uc *SetCoordinatesUseCase) Execute(ctx context.Context, id uuid.UUID, lat, lon float64) (*entity.Assignment, error) {
	coords, err := valueobject.NewCoordinates(lat, lon)
	if err != nil {
		return nil, err
	}

	a, err := uc.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.SetCoordinates(coords); err != nil {
		return nil, err
	}
	if err := uc.assignmentRepo.UpdateCoordinates(ctx, id, coords); err != nil {
		return nil, err
	}

	logger.WithLocation(a.LocationKey).WithField("assignment_id", id).Info("координаты назначения обновлены")
	return a, nil
}

type GetAssignmentUseCase struct {
	assignmentRepo repository.AssignmentRepository
}

func NewGetAssignmentUseCase(assignmentRepo repository.AssignmentRepository) *GetAssignmentUseCase {
	return &GetAssignmentUseCase{assignmentRepo: assignmentRepo}
}

func (uc *GetAssignmentUseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	return uc.assignmentRepo.FindByID(ctx, id)
}

type ListAssignmentsUseCase struct {
	assignmentRepo repository.AssignmentRepository
}

func NewListAssignmentsUseCase(assignmentRepo repository.AssignmentRepository) *ListAssignmentsUseCase {
	return &ListAssignmentsUseCase{assignmentRepo: assignmentRepo}
}

func (uc *ListAssignmentsUseCase) Execute(ctx context.Context, district, status string) ([]*entity.Assignment, error) {
	filter := repository.AssignmentFilter{District: strings.TrimSpace(district)}
	if status != "" {
		s, err := valueobject.NewAssignmentStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = s
	}
	return uc.assignmentRepo.List(ctx, filter)
}

// ListSolutionsUseCase отдаёт закрытые назначения с решениями, новые сначала.
type ListSolutionsUseCase struct {
	assignmentRepo repository.AssignmentRepository
}

func NewListSolutionsUseCase(assignmentRepo repository.AssignmentRepository) *ListSolutionsUseCase {
	return &ListSolutionsUseCase{assignmentRepo: assignmentRepo}
}

func (uc *ListSolutionsUseCase) Execute(ctx context.Context, district string) ([]*entity.Assignment, error) {
	list, err := uc.assignmentRepo.List(ctx, repository.AssignmentFilter{
		District: strings.TrimSpace(district),
		Status:   valueobject.AssignmentStatusCleaned,
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return cleanedAt(list[i]).After(cleanedAt(list[j]))
	})
	return list, nil
}

func cleanedAt(a *entity.Assignment) time.Time {
	if a.ConfirmedCleanAt != nil {
		return *a.ConfirmedCleanAt
	}
	return a.CreatedAt
}
