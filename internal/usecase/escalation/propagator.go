package escalation

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/sirupsen/logrus"
)

// StatusPropagator переносит статус назначения на входящие в него отчёты.
type StatusPropagator struct {
	reportRepo repository.ReportRepository
	metrics    *observability.Metrics
}

func NewStatusPropagator(reportRepo repository.ReportRepository, metrics *observability.Metrics) *StatusPropagator {
	return &StatusPropagator{reportRepo: reportRepo, metrics: metrics}
}

// ApplyBulkStatus обновляет каждый отчёт не более одного раза и возвращает число обновлённых.
// Отсутствующие и не допускающие переход отчёты пропускаются с предупреждением.
// Прерывает работу только ошибка хранилища.
func (p *StatusPropagator) ApplyBulkStatus(ctx context.Context, reportIDs []uuid.UUID, newStatus valueobject.ReportStatus) (int, error) {
	ids := uniqueIDs(reportIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	reports, err := p.reportRepo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	byID := make(map[uuid.UUID]*entity.Report, len(reports))
	for _, r := range reports {
		byID[r.ID] = r
	}

	var skipped []string
	updated := 0
	for _, id := range ids {
		r, ok := byID[id]
		if !ok || !r.Status.CanTransitionTo(newStatus) {
			skipped = append(skipped, id.String())
			continue
		}

		changed, err := p.reportRepo.UpdateStatus(ctx, id, r.Status, newStatus)
		if err != nil {
			return updated, err
		}
		if !changed {
			skipped = append(skipped, id.String())
			continue
		}
		updated++
	}

	if len(skipped) > 0 {
		logger.Log.WithFields(logrus.Fields{
			"new_status":  newStatus,
			"skipped_ids": skipped,
		}).Warn("часть отчётов пропущена при смене статуса")
		p.metrics.PropagationSkip(len(skipped))
	}

	return updated, nil
}

// Handle реагирует на переход назначения. Только закрытие меняет отчёты.
func (p *StatusPropagator) Handle(ctx context.Context, ev entity.AssignmentTransitioned) (int, error) {
	if ev.NewStatus != valueobject.AssignmentStatusCleaned {
		return 0, nil
	}
	return p.ApplyBulkStatus(ctx, ev.ReportIDs, valueobject.ReportStatusCleaned)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
