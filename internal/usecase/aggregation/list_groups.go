package aggregation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
)

type ListGroupsUseCase struct {
	reportRepo     repository.ReportRepository
	assignmentRepo repository.AssignmentRepository
}

func NewListGroupsUseCase(reportRepo repository.ReportRepository, assignmentRepo repository.AssignmentRepository) *ListGroupsUseCase {
	return &ListGroupsUseCase{
		reportRepo:     reportRepo,
		assignmentRepo: assignmentRepo,
	}
}

// Execute каждый раз читает хранилище заново, между вызовами ничего не кэшируется.
// Район фильтрует уже посчитанные группы: серьёзность всегда считается по всем отчётам ключа.
func (uc *ListGroupsUseCase) Execute(ctx context.Context, district string) ([]Group, error) {
	reports, err := uc.reportRepo.ListActive(ctx, "")
	if err != nil {
		return nil, err
	}

	assignments, err := uc.assignmentRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	active := make(map[string]uuid.UUID, len(assignments))
	for _, a := range assignments {
		active[a.LocationKey] = a.ID
	}

	groups := ComputeGroups(reports)
	MarkEligibility(groups, active)
	return FilterByDistrict(groups, strings.TrimSpace(district)), nil
}
