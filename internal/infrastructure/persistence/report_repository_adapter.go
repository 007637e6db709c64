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

const reportColumns = `id, location_key, district, locality_name, problem_type, source_type, description,
	status, active, submitted_at, upvotes, verified, channel`

type reportRow struct {
	ID           uuid.UUID      `db:"id"`
	LocationKey  string         `db:"location_key"`
	District     string         `db:"district"`
	LocalityName string         `db:"locality_name"`
	ProblemType  string         `db:"problem_type"`
	SourceType   string         `db:"source_type"`
	Description  sql.NullString `db:"description"`
	Status       string         `db:"status"`
	Active       bool           `db:"active"`
	SubmittedAt  time.Time      `db:"submitted_at"`
	Upvotes      int            `db:"upvotes"`
	Verified     bool           `db:"verified"`
	Channel      string         `db:"channel"`
}

func (row reportRow) toEntity() *entity.Report {
	r := &entity.Report{
		ID:           row.ID,
		LocationKey:  row.LocationKey,
		District:     row.District,
		LocalityName: row.LocalityName,
		ProblemType:  valueobject.ProblemType(row.ProblemType),
		SourceType:   valueobject.SourceType(row.SourceType),
		Status:       valueobject.ReportStatus(row.Status),
		SubmittedAt:  row.SubmittedAt,
		Upvotes:      row.Upvotes,
		Verified:     row.Verified,
		Channel:      valueobject.Channel(row.Channel),
	}
	if row.Description.Valid {
		d := row.Description.String
		r.Description = &d
	}
	return r
}

type ReportRepositoryAdapter struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewReportRepositoryAdapter(db *sqlx.DB, timeout time.Duration) *ReportRepositoryAdapter {
	return &ReportRepositoryAdapter{db: db, timeout: timeout}
}

var _ repository.ReportRepository = (*ReportRepositoryAdapter)(nil)

func (r *ReportRepositoryAdapter) Create(ctx context.Context, report *entity.Report) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO reports (id, location_key, district, locality_name, problem_type, source_type,
		                     description, status, submitted_at, upvotes, verified, channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		report.ID,
		report.LocationKey,
		report.District,
		report.LocalityName,
		string(report.ProblemType),
		string(report.SourceType),
		report.Description,
		string(report.Status),
		report.SubmittedAt,
		report.Upvotes,
		report.Verified,
		string(report.Channel),
	)
	if err != nil {
		return apperror.Store(err, "не удалось сохранить отчёт")
	}
	return nil
}

func (r *ReportRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var row reportRow
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, apperror.Store(err, "не удалось получить отчёт")
	}
	return row.toEntity(), nil
}

func (r *ReportRepositoryAdapter) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = ANY($1::uuid[])`
	return r.selectReports(ctx, query, pq.StringArray(uuidStrings(ids)))
}

func (r *ReportRepositoryAdapter) List(ctx context.Context, filter repository.ReportFilter) ([]*entity.Report, error) {
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
	if filter.LocationKey != "" {
		conditions = append(conditions, fmt.Sprintf("location_key = $%d", argIdx))
		args = append(args, filter.LocationKey)
		argIdx++
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "active")
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	return r.selectReports(ctx, query, args...)
}

func (r *ReportRepositoryAdapter) ListActive(ctx context.Context, district string) ([]*entity.Report, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + reportColumns + ` FROM reports WHERE active`
	var args []interface{}
	if district != "" {
		query += " AND district = $1"
		args = append(args, district)
	}
	query += " ORDER BY submitted_at, id"

	return r.selectReports(ctx, query, args...)
}

func (r *ReportRepositoryAdapter) UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.ReportStatus) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	// active пересчитывается той же записью, так как это генерируемая колонка
	query := `UPDATE reports SET status = $3 WHERE id = $1 AND status = $2`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return false, apperror.Store(err, "не удалось обновить статус отчёта")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperror.Store(err, "не удалось проверить результат обновления")
	}
	return rows == 1, nil
}

func (r *ReportRepositoryAdapter) IncrementUpvotes(ctx context.Context, id uuid.UUID) (int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var upvotes int
	query := `UPDATE reports SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes`
	if err := conn(ctx, r.db).GetContext(ctx, &upvotes, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.ErrReportNotFound
		}
		return 0, apperror.Store(err, "не удалось учесть голос")
	}
	return upvotes, nil
}

func (r *ReportRepositoryAdapter) MarkVerified(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE reports SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return apperror.Store(err, "не удалось подтвердить отчёт")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Store(err, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepositoryAdapter) selectReports(ctx context.Context, query string, args ...interface{}) ([]*entity.Report, error) {
	var rows []reportRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperror.Store(err, "не удалось получить отчёты")
	}

	reports := make([]*entity.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toEntity())
	}
	return reports, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
