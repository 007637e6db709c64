package escalation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
	"github.com/ignatzorin/water-alert-backend/internal/observability"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/keylock"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

type transitionFunc func(a *entity.Assignment, now time.Time) (entity.AssignmentTransitioned, error)

// transitioner — общая часть переходов назначения: блокировка ключа, транзакция,
// условная запись и передача события пропагатору.
type transitioner struct {
	assignmentRepo repository.AssignmentRepository
	tx             repository.Transactor
	locker         *keylock.KeyedLocker
	propagator     *StatusPropagator
	clock          clockwork.Clock
	metrics        *observability.Metrics
}

func newTransitioner(
	assignmentRepo repository.AssignmentRepository,
	tx repository.Transactor,
	locker *keylock.KeyedLocker,
	propagator *StatusPropagator,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) transitioner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return transitioner{
		assignmentRepo: assignmentRepo,
		tx:             tx,
		locker:         locker,
		propagator:     propagator,
		clock:          clock,
		metrics:        metrics,
	}
}

// locked читает назначение под блокировкой его ключа и внутри транзакции передаёт в fn.
func (t *transitioner) locked(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, a *entity.Assignment) error) (*entity.Assignment, error) {
	current, err := t.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := t.locker.Lock(ctx, current.LocationKey)
	if err != nil {
		return nil, apperror.Store(err, "не дождались блокировки ключа локации")
	}
	defer unlock()

	var result *entity.Assignment
	err = t.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := t.assignmentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *transitioner) run(ctx context.Context, id uuid.UUID, apply transitionFunc) (*entity.Assignment, error) {
	var (
		event   entity.AssignmentTransitioned
		updated int
	)
	result, err := t.locked(ctx, id, func(ctx context.Context, a *entity.Assignment) error {
		from := a.Status
		ev, err := apply(a, t.clock.Now())
		if err != nil {
			return err
		}
		if err := t.assignmentRepo.UpdateTransition(ctx, a, from); err != nil {
			return err
		}

		n, err := t.propagator.Handle(ctx, ev)
		if err != nil {
			return err
		}

		event, updated = ev, n
		return nil
	})
	if err != nil {
		entry := logger.Log.WithField("assignment_id", id).WithError(err)
		if apperror.IsInvalidTransition(err) {
			entry.Error("недопустимый переход назначения")
		} else {
			entry.Warn("переход назначения не выполнен")
		}
		return nil, err
	}

	t.metrics.AssignmentTransitioned(string(event.NewStatus))
	logger.WithLocation(result.LocationKey).WithFields(logrus.Fields{
		"assignment_id":   result.ID,
		"old_status":      event.OldStatus,
		"new_status":      event.NewStatus,
		"reports_updated": updated,
	}).Info("статус назначения изменён")

	return result, nil
}

type UploadSolutionInput struct {
	AssignmentID        uuid.UUID
	SolutionDescription string
	DocumentRef         string
}

type UploadSolutionUseCase struct {
	transitioner
}

func NewUploadSolutionUseCase(
	assignmentRepo repository.AssignmentRepository,
	tx repository.Transactor,
	locker *keylock.KeyedLocker,
	propagator *StatusPropagator,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *UploadSolutionUseCase {
	return &UploadSolutionUseCase{newTransitioner(assignmentRepo, tx, locker, propagator, clock, metrics)}
}

// Execute: pending_lab_visit -> solution_uploaded. Отчёты не меняются.
func (uc *UploadSolutionUseCase) Execute(ctx context.Context, input UploadSolutionInput) (*entity.Assignment, error) {
	return uc.run(ctx, input.AssignmentID, func(a *entity.Assignment, now time.Time) (entity.AssignmentTransitioned, error) {
		return a.UploadSolution(input.SolutionDescription, input.DocumentRef, now)
	})
}

type ConfirmCleanInput struct {
	AssignmentID uuid.UUID
	FinalNotes   string
}

type ConfirmCleanUseCase struct {
	transitioner
}

func NewConfirmCleanUseCase(
	assignmentRepo repository.AssignmentRepository,
	tx repository.Transactor,
	locker *keylock.KeyedLocker,
	propagator *StatusPropagator,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *ConfirmCleanUseCase {
	return &ConfirmCleanUseCase{newTransitioner(assignmentRepo, tx, locker, propagator, clock, metrics)}
}

// Execute: solution_uploaded -> cleaned, все отчёты назначения становятся cleaned.
func (uc *ConfirmCleanUseCase) Execute(ctx context.Context, input ConfirmCleanInput) (*entity.Assignment, error) {
	return uc.run(ctx, input.AssignmentID, func(a *entity.Assignment, now time.Time) (entity.AssignmentTransitioned, error) {
		return a.ConfirmClean(input.FinalNotes, now)
	})
}

type UploadTestResultInput struct {
	AssignmentID uuid.UUID
	TestNotes    string
	DocumentRef  string
}

type UploadTestResultUseCase struct {
	transitioner
}

func NewUploadTestResultUseCase(
	assignmentRepo repository.AssignmentRepository,
	tx repository.Transactor,
	locker *keylock.KeyedLocker,
	clock clockwork.Clock,
) *UploadTestResultUseCase {
	return &UploadTestResultUseCase{newTransitioner(assignmentRepo, tx, locker, nil, clock, nil)}
}

// Execute прикладывает результат анализа к незакрытому назначению. Статусы не меняются.
func (uc *UploadTestResultUseCase) Execute(ctx context.Context, input UploadTestResultInput) (*entity.Assignment, error) {
	result, err := uc.locked(ctx, input.AssignmentID, func(ctx context.Context, a *entity.Assignment) error {
		if err := a.RecordTestResult(input.TestNotes, input.DocumentRef, uc.clock.Now()); err != nil {
			return err
		}
		return uc.assignmentRepo.UpdateTestResult(ctx, a)
	})
	if err != nil {
		logger.Log.WithField("assignment_id", input.AssignmentID).WithError(err).Warn("результат анализа не сохранён")
		return nil, err
	}

	logger.WithLocation(result.LocationKey).WithFields(logrus.Fields{
		"assignment_id": result.ID,
		"status":        result.Status,
	}).Info("результат анализа сохранён")
	return result, nil
}
