package alert

import (
	"context"

	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
)

type GetActiveAlertsNearInput struct {
	Latitude  float64
	Longitude float64
	// nil: радиус по умолчанию.
	RadiusKm *float64
	// <= 0: без ограничения.
	Limit int
}

type GetActiveAlertsNearUseCase struct {
	assignmentRepo  repository.AssignmentRepository
	defaultRadiusKm float64
	maxRadiusKm     float64
	metrics         *observability.Metrics
}

func NewGetActiveAlertsNearUseCase(assignmentRepo repository.AssignmentRepository, defaultRadiusKm, maxRadiusKm float64, metrics *observability.Metrics) *GetActiveAlertsNearUseCase {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultRadiusKm
	}
	if maxRadiusKm <= 0 {
		maxRadiusKm = DefaultMaxRadiusKm
	}
	return &GetActiveAlertsNearUseCase{
		assignmentRepo:  assignmentRepo,
		defaultRadiusKm: defaultRadiusKm,
		maxRadiusKm:     maxRadiusKm,
		metrics:         metrics,
	}
}

func (uc *GetActiveAlertsNearUseCase) Execute(ctx context.Context, input GetActiveAlertsNearInput) ([]NearbyAlert, error) {
	radius := uc.defaultRadiusKm
	if input.RadiusKm != nil {
		radius = *input.RadiusKm
	}
	if err := ValidateRadius(radius, uc.maxRadiusKm); err != nil {
		return nil, err
	}

	assignments, err := uc.assignmentRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	alerts, err := FindNearby(input.Latitude, input.Longitude, radius, assignments)
	if err != nil {
		return nil, err
	}

	if input.Limit > 0 && len(alerts) > input.Limit {
		alerts = alerts[:input.Limit]
	}

	uc.metrics.AlertQuery(len(alerts))
	return alerts, nil
}
