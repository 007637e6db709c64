package valueobject

import "github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"

type ReportStatus string

const (
	ReportStatusReported     ReportStatus = "reported"
	ReportStatusContaminated ReportStatus = "contaminated"
	ReportStatusCleaned      ReportStatus = "cleaned"
)

// IsActive: отчёт участвует в агрегации, пока он не очищен.
func (s ReportStatus) IsActive() bool {
	return s == ReportStatusReported || s == ReportStatusContaminated
}

func (s ReportStatus) CanTransitionTo(newStatus ReportStatus) bool {
	transitions := map[ReportStatus][]ReportStatus{
		ReportStatusReported:     {ReportStatusContaminated},
		ReportStatusContaminated: {ReportStatusCleaned},
		ReportStatusCleaned:      {},
	}

	return contains(transitions[s], newStatus)
}

type AssignmentStatus string

const (
	AssignmentStatusPendingLabVisit  AssignmentStatus = "pending_lab_visit"
	AssignmentStatusSolutionUploaded AssignmentStatus = "solution_uploaded"
	AssignmentStatusCleaned          AssignmentStatus = "cleaned"
)

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusPendingLabVisit, AssignmentStatusSolutionUploaded, AssignmentStatusCleaned:
		return true
	}
	return false
}

func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentStatusPendingLabVisit || s == AssignmentStatusSolutionUploaded
}

func (s AssignmentStatus) CanTransitionTo(newStatus AssignmentStatus) bool {
	transitions := map[AssignmentStatus][]AssignmentStatus{
		AssignmentStatusPendingLabVisit:  {AssignmentStatusSolutionUploaded},
		AssignmentStatusSolutionUploaded: {AssignmentStatusCleaned},
		AssignmentStatusCleaned:          {},
	}

	return contains(transitions[s], newStatus)
}

func NewAssignmentStatus(status string) (AssignmentStatus, error) {
	s := AssignmentStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус назначения", "status")
	}
	return s, nil
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
