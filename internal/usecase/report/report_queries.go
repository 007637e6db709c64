package report

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/repository"
	"github.com/ignatzorin/water-alert-backend/internal/logger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type ListRecentReportsUseCase struct {
	reportRepo repository.ReportRepository
}

func NewListRecentReportsUseCase(reportRepo repository.ReportRepository) *ListRecentReportsUseCase {
	return &ListRecentReportsUseCase{reportRepo: reportRepo}
}

// Execute возвращает последние отчёты, новые сначала.
func (uc *ListRecentReportsUseCase) Execute(ctx context.Context, district string, limit int) ([]*entity.Report, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return uc.reportRepo.List(ctx, repository.ReportFilter{
		District: strings.TrimSpace(district),
		Limit:    limit,
	})
}

type UpvoteReportUseCase struct {
	reportRepo repository.ReportRepository
}

func NewUpvoteReportUseCase(reportRepo repository.ReportRepository) *UpvoteReportUseCase {
	return &UpvoteReportUseCase{reportRepo: reportRepo}
}

// Execute возвращает новое число голосов.
func (uc *UpvoteReportUseCase) Execute(ctx context.Context, id uuid.UUID) (int, error) {
	return uc.reportRepo.IncrementUpvotes(ctx, id)
}

type VerifyReportUseCase struct {
	reportRepo repository.ReportRepository
}

func NewVerifyReportUseCase(reportRepo repository.ReportRepository) *VerifyReportUseCase {
	return &VerifyReportUseCase{reportRepo: reportRepo}
}

func (uc *VerifyReportUseCase) Execute(ctx context.Context, id uuid.UUID, verifiedBy string) (*entity.Report, error) {
	if err := uc.reportRepo.MarkVerified(ctx, id); err != nil {
		return nil, err
	}

	r, err := uc.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("report_id", id).WithField("verified_by", verifiedBy).Info("отчёт подтверждён")
	return r, nil
}
