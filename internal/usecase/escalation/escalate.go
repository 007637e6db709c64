package escalation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/keylock"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// CoordinateResolver подставляет координаты по ключу локации (справочник PIN-кодов).
type CoordinateResolver interface {
	Coordinates(locationKey string) (valueobject.Coordinates, bool)
}

type EscalateInput struct {
	LocationKey string
	ReportIDs   []uuid.UUID
	Severity    string
	Coordinates *valueobject.Coordinates
	Notes       string
	// взять координаты из справочника, если они не переданы
	UseGazetteer bool
}

type EscalateUseCase struct {
	reportRepo     repository.ReportRepository
	assignmentRepo repository.AssignmentRepository
	tx             repository.Transactor
	locker         *keylock.KeyedLocker
	propagator     *StatusPropagator
	resolver       CoordinateResolver
	clock          clockwork.Clock
	metrics        *observability.Metrics
}

func NewEscalateUseCase(
	reportRepo repository.ReportRepository,
	assignmentRepo repository.AssignmentRepository,
	tx repository.Transactor,
	locker *keylock.KeyedLocker,
	propagator *StatusPropagator,
	resolver CoordinateResolver,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *EscalateUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EscalateUseCase{
		reportRepo:     reportRepo,
		assignmentRepo: assignmentRepo,
		tx:             tx,
		locker:         locker,
		propagator:     propagator,
		resolver:       resolver,
		clock:          clock,
		metrics:        metrics,
	}
}

// Execute создаёт назначение и переводит захваченные отчёты в contaminated одной транзакцией.
// При любой ошибке состояние хранилища не меняется.
func (uc *EscalateUseCase) Execute(ctx context.Context, input EscalateInput) (*entity.Assignment, error) {
	key, ok := valueobject.NormalizeLocationKey(input.LocationKey)
	if !ok {
		return nil, apperror.Validation("некорректный PIN-код локации", "location_key")
	}

	severity, err := valueobject.NewSeverity(input.Severity)
	if err != nil {
		return nil, err
	}
	if !severity.IsEscalatable() {
		return nil, apperror.Validation("уровень серьёзности должен быть mild, medium или severe", "severity")
	}

	ids := uniqueIDs(input.ReportIDs)
	if len(ids) == 0 {
		return nil, apperror.WithFields(apperror.ErrCodeInvalidReportSet, "не указаны отчёты для эскалации", "report_ids")
	}

	coords := input.Coordinates
	if coords != nil {
		if err := coords.Validate(); err != nil {
			return nil, err
		}
	} else if input.UseGazetteer && uc.resolver != nil {
		if c, found := uc.resolver.Coordinates(key); found {
			coords = &c
		}
	}

	log := logger.WithLocation(key)

	unlock, err := uc.locker.Lock(ctx, key)
	if err != nil {
		return nil, apperror.Store(err, "не дождались блокировки ключа локации")
	}
	defer unlock()

	var assignment *entity.Assignment
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.checkNotEscalated(ctx, key, ids); err != nil {
			return err
		}

		reports, err := uc.reportRepo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		district, err := validateReportSet(key, ids, reports)
		if err != nil {
			return err
		}

		a, err := entity.NewAssignment(key, district, ids, severity, coords, input.Notes, uc.clock.Now())
		if err != nil {
			return err
		}
		if err := uc.assignmentRepo.Create(ctx, a); err != nil {
			return err
		}

		updated, err := uc.propagator.ApplyBulkStatus(ctx, a.ReportIDs, valueobject.ReportStatusContaminated)
		if err != nil {
			return err
		}
		if updated != len(a.ReportIDs) {
			// отчёт изменился между чтением и записью, откатываем всё
			return apperror.New(apperror.ErrCodeInvalidReportSet, "состав отчётов изменился во время эскалации")
		}

		assignment = a
		return nil
	})
	if err != nil {
		uc.metrics.Escalation(escalationOutcome(err))
		log.WithError(err).Warn("эскалация отклонена")
		return nil, err
	}

	uc.metrics.Escalation("created")
	log.WithFields(logrus.Fields{
		"assignment_id": assignment.ID,
		"severity":      assignment.Severity,
		"reports":       len(assignment.ReportIDs),
	}).Info("создано назначение для лаборатории")

	return assignment, nil
}

// checkNotEscalated: активное назначение по ключу или захват любого из отчётов другим назначением.
func (uc *EscalateUseCase) checkNotEscalated(ctx context.Context, key string, ids []uuid.UUID) error {
	active, err := uc.assignmentRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	requested := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	for _, a := range active {
		if a.LocationKey == key {
			return apperror.WithFields(apperror.ErrCodeAlreadyEscalated,
				"по этой локации уже есть активное назначение", a.ID.String())
		}
		for _, id := range a.ReportIDs {
			if _, ok := requested[id]; ok {
				return apperror.WithFields(apperror.ErrCodeAlreadyEscalated,
					"отчёт уже входит в активное назначение", id.String())
			}
		}
	}
	return nil
}

// validateReportSet возвращает район самого раннего отчёта.
func validateReportSet(key string, ids []uuid.UUID, reports []*entity.Report) (string, error) {
	byID := make(map[uuid.UUID]*entity.Report, len(reports))
	for _, r := range reports {
		byID[r.ID] = r
	}

	var offending []string
	var earliest *entity.Report
	for _, id := range ids {
		r, ok := byID[id]
		if !ok || !r.Active() || r.LocationKey != key {
			offending = append(offending, id.String())
			continue
		}
		if earliest == nil || r.SubmittedAt.Before(earliest.SubmittedAt) {
			earliest = r
		}
	}

	if len(offending) > 0 {
		return "", apperror.WithFields(apperror.ErrCodeInvalidReportSet,
			"отчёты не найдены, неактивны или относятся к другой локации", offending...)
	}
	return earliest.District, nil
}

func escalationOutcome(err error) string {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return "error"
	}
	switch appErr.Code {
	case apperror.ErrCodeAlreadyEscalated:
		return "already_escalated"
	case apperror.ErrCodeInvalidReportSet:
		return "invalid_report_set"
	default:
		return "error"
	}
}
