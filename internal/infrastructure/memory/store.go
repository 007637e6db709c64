package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

type txKey struct{}

// Store хранит данные в памяти: для локального запуска и тестов.
// Сущности отдаются копиями, записи заменяют значения целиком,
// поэтому для отката транзакции достаточно поверхностной копии карт.
type Store struct {
	mu          sync.RWMutex
	reports     map[uuid.UUID]*entity.Report
	assignments map[uuid.UUID]*entity.Assignment
}

func NewStore() *Store {
	return &Store{
		reports:     make(map[uuid.UUID]*entity.Report),
		assignments: make(map[uuid.UUID]*entity.Assignment),
	}
}

func (s *Store) Reports() *ReportRepository {
	return &ReportRepository{s: s}
}

func (s *Store) Assignments() *AssignmentRepository {
	return &AssignmentRepository{s: s}
}

// WithinTransaction держит эксклюзивную блокировку на время fn и откатывает изменения при ошибке.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make(map[uuid.UUID]*entity.Report, len(s.reports))
	for k, v := range s.reports {
		reports[k] = v
	}
	assignments := make(map[uuid.UUID]*entity.Assignment, len(s.assignments))
	for k, v := range s.assignments {
		assignments[k] = v
	}

	committed := false
	defer func() {
		if !committed {
			s.reports = reports
			s.assignments = assignments
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

var _ repository.Transactor = (*Store)(nil)

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

func (s *Store) read(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return apperror.Store(err, "операция с хранилищем прервана")
	}
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
	return nil
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return apperror.Store(err, "операция с хранилищем прервана")
	}
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

type ReportRepository struct {
	s *Store
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) error {
	return r.s.write(ctx, func() error {
		r.s.reports[report.ID] = cloneReport(report)
		return nil
	})
}

func (r *ReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var found *entity.Report
	err := r.s.read(ctx, func() {
		if rep, ok := r.s.reports[id]; ok {
			found = cloneReport(rep)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperror.ErrReportNotFound
	}
	return found, nil
}

func (r *ReportRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Report, error) {
	var out []*entity.Report
	err := r.s.read(ctx, func() {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if rep, ok := r.s.reports[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, cloneReport(rep))
			}
		}
	})
	return out, err
}

func (r *ReportRepository) List(ctx context.Context, filter repository.ReportFilter) ([]*entity.Report, error) {
	var out []*entity.Report
	err := r.s.read(ctx, func() {
		for _, rep := range r.s.reports {
			if filter.District != "" && rep.District != filter.District {
				continue
			}
			if filter.LocationKey != "" && rep.LocationKey != filter.LocationKey {
				continue
			}
			if filter.ActiveOnly && !rep.Active() {
				continue
			}
			out = append(out, cloneReport(rep))
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ReportRepository) ListActive(ctx context.Context, district string) ([]*entity.Report, error) {
	out, err := r.List(ctx, repository.ReportFilter{District: district, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	// как в SQL-адаптере: по возрастанию времени подачи
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *ReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ReportStatus) (bool, error) {
	changed := false
	err := r.s.write(ctx, func() error {
		rep, ok := r.s.reports[id]
		if !ok || rep.Status != from {
			return nil
		}
		updated := cloneReport(rep)
		updated.Status = to
		r.s.reports[id] = updated
		changed = true
		return nil
	})
	return changed, err
}

func (r *ReportRepository) IncrementUpvotes(ctx context.Context, id uuid.UUID) (int, error) {
	var upvotes int
	err := r.s.write(ctx, func() error {
		rep, ok := r.s.reports[id]
		if !ok {
			return apperror.ErrReportNotFound
		}
		updated := cloneReport(rep)
		updated.Upvote()
		r.s.reports[id] = updated
		upvotes = updated.Upvotes
		return nil
	})
	return upvotes, err
}

func (r *ReportRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func() error {
		rep, ok := r.s.reports[id]
		if !ok {
			return apperror.ErrReportNotFound
		}
		updated := cloneReport(rep)
		updated.Verify()
		r.s.reports[id] = updated
		return nil
	})
}

type AssignmentRepository struct {
	s *Store
}

var _ repository.AssignmentRepository = (*AssignmentRepository)(nil)

func (r *AssignmentRepository) Create(ctx context.Context, a *entity.Assignment) error {
	return r.s.write(ctx, func() error {
		if a.Active() {
			for _, existing := range r.s.assignments {
				if existing.Active() && existing.LocationKey == a.LocationKey {
					return apperror.New(apperror.ErrCodeAlreadyEscalated, "по этой локации уже есть активное назначение")
				}
			}
		}
		r.s.assignments[a.ID] = cloneAssignment(a)
		return nil
	})
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	var found *entity.Assignment
	err := r.s.read(ctx, func() {
		if a, ok := r.s.assignments[id]; ok {
			found = cloneAssignment(a)
		}
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperror.ErrAssignmentNotFound
	}
	return found, nil
}

func (r *AssignmentRepository) ListActive(ctx context.Context) ([]*entity.Assignment, error) {
	return r.List(ctx, repository.AssignmentFilter{ActiveOnly: true})
}

func (r *AssignmentRepository) List(ctx context.Context, filter repository.AssignmentFilter) ([]*entity.Assignment, error) {
	var out []*entity.Assignment
	err := r.s.read(ctx, func() {
		for _, a := range r.s.assignments {
			if filter.District != "" && a.District != filter.District {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if filter.ActiveOnly && !a.Active() {
				continue
			}
			out = append(out, cloneAssignment(a))
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *AssignmentRepository) UpdateTransition(ctx context.Context, a *entity.Assignment, from valueobject.AssignmentStatus) error {
	return r.s.write(ctx, func() error {
		current, ok := r.s.assignments[a.ID]
		if !ok || current.Status != from {
			return apperror.New(apperror.ErrCodeInvalidTransition, "статус назначения изменился параллельно")
		}
		updated := cloneAssignment(current)
		updated.Status = a.Status
		updated.SolutionDescription = clonePtr(a.SolutionDescription)
		updated.SolutionDocumentRef = clonePtr(a.SolutionDocumentRef)
		updated.FinalNotes = clonePtr(a.FinalNotes)
		updated.SolutionUploadedAt = clonePtr(a.SolutionUploadedAt)
		updated.ConfirmedCleanAt = clonePtr(a.ConfirmedCleanAt)
		r.s.assignments[a.ID] = updated
		return nil
	})
}

func (r *AssignmentRepository) UpdateCoordinates(ctx context.Context, id uuid.UUID, coords valueobject.Coordinates) error {
	return r.s.write(ctx, func() error {
		current, ok := r.s.assignments[id]
		if !ok || !current.Active() {
			return apperror.New(apperror.ErrCodeInvalidTransition, "назначение закрыто или не найдено")
		}
		updated := cloneAssignment(current)
		c := coords
		updated.Coordinates = &c
		r.s.assignments[id] = updated
		return nil
	})
}

func cloneReport(r *entity.Report) *entity.Report {
	c := *r
	c.Description = clonePtr(r.Description)
	return &c
}

func (r *AssignmentRepository) UpdateTestResult(ctx context.Context, a *entity.Assignment) error {
	return r.s.write(ctx, func() error {
		current, ok := r.s.assignments[a.ID]
		if !ok || !current.Active() {
			return apperror.New(apperror.ErrCodeInvalidTransition, "назначение закрыто или не найдено")
		}
		updated := cloneAssignment(current)
		updated.TestResultDocumentRef = clonePtr(a.TestResultDocumentRef)
		updated.TestNotes = clonePtr(a.TestNotes)
		updated.TestResultUploadedAt = clonePtr(a.TestResultUploadedAt)
		r.s.assignments[a.ID] = updated
		return nil
	})
}

func cloneAssignment(a *entity.Assignment) *entity.Assignment {
	c := *a
	c.ReportIDs = append([]uuid.UUID(nil), a.ReportIDs...)
	c.Coordinates = clonePtr(a.Coordinates)
	c.SolutionDescription = clonePtr(a.SolutionDescription)
	c.SolutionDocumentRef = clonePtr(a.SolutionDocumentRef)
	c.FinalNotes = clonePtr(a.FinalNotes)
	c.SolutionUploadedAt = clonePtr(a.SolutionUploadedAt)
	c.ConfirmedCleanAt = clonePtr(a.ConfirmedCleanAt)
	c.TestResultDocumentRef = clonePtr(a.TestResultDocumentRef)
	c.TestNotes = clonePtr(a.TestNotes)
	c.TestResultUploadedAt = clonePtr(a.TestResultUploadedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
