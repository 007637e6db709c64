package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const assignmentColumns = `id, location_key, district, report_ids::text[] AS report_ids, severity, latitude, longitude,
	status, notes, solution_description, solution_document_ref, final_notes,
	created_at, solution_uploaded_at, confirmed_clean_at,
	test_result_document_ref, test_notes, test_result_uploaded_at`

type assignmentRow struct {
	ID                  uuid.UUID       `db:"id"`
	LocationKey         string          `db:"location_key"`
	District            string          `db:"district"`
	ReportIDs           pq.StringArray  `db:"report_ids"`
	Severity            string          `db:"severity"`
	Latitude            sql.NullFloat64 `db:"latitude"`
	Longitude           sql.NullFloat64 `db:"longitude"`
	Status              string          `db:"status"`
	Notes               string          `db:"notes"`
	SolutionDescription sql.NullString  `db:"solution_description"`
	SolutionDocumentRef sql.NullString  `db:"solution_document_ref"`
	FinalNotes          sql.NullString  `db:"final_notes"`
	CreatedAt           time.Time       `db:"created_at"`
	SolutionUploadedAt  sql.NullTime    `db:"solution_uploaded_at"`
	ConfirmedCleanAt    sql.NullTime    `db:"confirmed_clean_at"`

	TestResultDocumentRef sql.NullString `db:"test_result_document_ref"`
	TestNotes             sql.NullString `db:"test_notes"`
	TestResultUploadedAt  sql.NullTime   `db:"test_result_uploaded_at"`
}

func (row assignmentRow) toEntity() (*entity.Assignment, error) {
	ids := make([]uuid.UUID, 0, len(row.ReportIDs))
	for _, s := range row.ReportIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "некорректный идентификатор отчёта в назначении")
		}
		ids = append(ids, id)
	}

	a := &entity.Assignment{
		ID:                  row.ID,
		LocationKey:         row.LocationKey,
		District:            row.District,
		ReportIDs:           ids,
		Severity:            valueobject.Severity(row.Severity),
		Status:              valueobject.AssignmentStatus(row.Status),
		Notes:               row.Notes,
		SolutionDescription: nullString(row.SolutionDescription),
		SolutionDocumentRef: nullString(row.SolutionDocumentRef),
		FinalNotes:          nullString(row.FinalNotes),
		CreatedAt:           row.CreatedAt,
		SolutionUploadedAt:  nullTime(row.SolutionUploadedAt),
		ConfirmedCleanAt:    nullTime(row.ConfirmedCleanAt),

		TestResultDocumentRef: nullString(row.TestResultDocumentRef),
		TestNotes:             nullString(row.TestNotes),
		TestResultUploadedAt:  nullTime(row.TestResultUploadedAt),
	}
	if row.Latitude.Valid && row.Longitude.Valid {
		a.Coordinates = &valueobject.Coordinates{
			Latitude:  row.Latitude.Float64,
			Longitude: row.Longitude.Float64,
		}
	}
	return a, nil
}

type AssignmentRepositoryAdapter struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewAssignmentRepositoryAdapter(db *sqlx.DB, timeout time.Duration) *AssignmentRepositoryAdapter {
	return &AssignmentRepositoryAdapter{db: db, timeout: timeout}
}

var _ repository.AssignmentRepository = (*AssignmentRepositoryAdapter)(nil)

func (r *AssignmentRepositoryAdapter) Create(ctx context.Context, a *entity.Assignment) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var lat, lon *float64
	if a.Coordinates != nil {
		lat, lon = &a.Coordinates.Latitude, &a.Coordinates.Longitude
	}

	query := `
		INSERT INTO assignments (id, location_key, district, report_ids, severity, latitude, longitude,
		                         status, notes, created_at)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7, $8, $9, $10)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		a.ID,
		a.LocationKey,
		a.District,
		pq.StringArray(uuidStrings(a.ReportIDs)),
		string(a.Severity),
		lat,
		lon,
		string(a.Status),
		a.Notes,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeAlreadyEscalated, "по этой локации уже есть активное назначение")
		}
		return apperror.Store(err, "не удалось сохранить назначение")
	}
	return nil
}

func (r *AssignmentRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrAssignmentNotFound
		}
		return nil, apperror.Store(err, "не удалось получить назначение")
	}
	return row.toEntity()
}

func (r *AssignmentRepositoryAdapter) ListActive(ctx context.Context) ([]*entity.Assignment, error) {
	return r.List(ctx, repository.AssignmentFilter{ActiveOnly: true})
}

func (r *AssignmentRepositoryAdapter) List(ctx context.Context, filter repository.AssignmentFilter) ([]*entity.Assignment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.District != "" {
		conditions = append(conditions, fmt.Sprintf("district = $%d", argIdx))
		args = append(args, filter.District)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "status <> 'cleaned'")
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	var rows []assignmentRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperror.Store(err, "не удалось получить назначения")
	}

	assignments := make([]*entity.Assignment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (r *AssignmentRepositoryAdapter) UpdateTransition(ctx context.Context, a *entity.Assignment, from valueobject.AssignmentStatus) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE assignments
		SET status = $2, solution_description = $3, solution_document_ref = $4, final_notes = $5,
		    solution_uploaded_at = $6, confirmed_clean_at = $7
		WHERE id = $1 AND status = $8
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		a.ID,
		string(a.Status),
		a.SolutionDescription,
		a.SolutionDocumentRef,
		a.FinalNotes,
		a.SolutionUploadedAt,
		a.ConfirmedCleanAt,
		string(from),
	)
	if err != nil {
		return apperror.Store(err, "не удалось обновить назначение")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Store(err, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.New(apperror.ErrCodeInvalidTransition, "статус назначения изменился параллельно")
	}
	return nil
}

func (r *AssignmentRepositoryAdapter) UpdateCoordinates(ctx context.Context, id uuid.UUID, coords valueobject.Coordinates) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE assignments SET latitude = $2, longitude = $3 WHERE id = $1 AND status <> 'cleaned'`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, coords.Latitude, coords.Longitude)
	if err != nil {
		return apperror.Store(err, "не удалось обновить координаты назначения")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Store(err, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.New(apperror.ErrCodeInvalidTransition, "назначение закрыто или не найдено")
	}
	return nil
}

func (r *AssignmentRepositoryAdapter) UpdateTestResult(ctx context.Context, a *entity.Assignment) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE assignments
		SET test_result_document_ref = $2, test_notes = $3, test_result_uploaded_at = $4
		WHERE id = $1 AND status <> 'cleaned'
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		a.ID,
		a.TestResultDocumentRef,
		a.TestNotes,
		a.TestResultUploadedAt,
	)
	if err != nil {
		return apperror.Store(err, "не удалось сохранить результат анализа")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Store(err, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.New(apperror.ErrCodeInvalidTransition, "назначение закрыто или не найдено")
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
