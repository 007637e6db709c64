package report

import (
	"context"

	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

type SubmitReportInput struct {
	ProblemType  string
	SourceType   string
	LocationKey  string
	District     string
	LocalityName string
	Description  *string
	Channel      string
}

type SubmitReportUseCase struct {
	reportRepo repository.ReportRepository
	clock      clockwork.Clock
	metrics    *observability.Metrics
}

func NewSubmitReportUseCase(reportRepo repository.ReportRepository, clock clockwork.Clock, metrics *observability.Metrics) *SubmitReportUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SubmitReportUseCase{
		reportRepo: reportRepo,
		clock:      clock,
		metrics:    metrics,
	}
}

func (uc *SubmitReportUseCase) Execute(ctx context.Context, input SubmitReportInput) (*entity.Report, error) {
	r, err := entity.NewReport(entity.NewReportParams{
		ProblemType:  input.ProblemType,
		SourceType:   input.SourceType,
		LocationKey:  input.LocationKey,
		District:     input.District,
		LocalityName: input.LocalityName,
		Description:  input.Description,
		Channel:      input.Channel,
	}, uc.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := uc.reportRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	uc.metrics.ReportSubmitted(string(r.Channel))
	logger.WithLocation(r.LocationKey).WithFields(logrus.Fields{
		"report_id": r.ID,
		"problem":   r.ProblemType,
		"channel":   r.Channel,
	}).Info("принят отчёт о загрязнении")

	return r, nil
}
