package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/validation"
)

type Assignment struct {
	ID                  uuid.UUID
	LocationKey         string
	District            string
	ReportIDs           []uuid.UUID
	Severity            valueobject.Severity
	Coordinates         *valueobject.Coordinates
	Status              valueobject.AssignmentStatus
	Notes               string
	SolutionDescription *string
	SolutionDocumentRef *string
	FinalNotes          *string
	CreatedAt           time.Time
	SolutionUploadedAt  *time.Time
	ConfirmedCleanAt    *time.Time

	// Результат лабораторного анализа. Статус назначения не меняет.
	TestResultDocumentRef *string
	TestNotes             *string
	TestResultUploadedAt  *time.Time
}

// AssignmentTransitioned — доменное событие смены статуса назначения.
// Его потребляет пропагатор статусов отчётов.
type AssignmentTransitioned struct {
	AssignmentID uuid.UUID
	LocationKey  string
	ReportIDs    []uuid.UUID
	OldStatus    valueobject.AssignmentStatus
	NewStatus    valueobject.AssignmentStatus
	At           time.Time
}

func NewAssignment(locationKey, district string, reportIDs []uuid.UUID, severity valueobject.Severity, coords *valueobject.Coordinates, notes string, now time.Time) (*Assignment, error) {
	if !valueobject.IsValidLocationKey(locationKey) {
		return nil, apperror.Validation("некорректный PIN-код локации", "location_key")
	}
	if len(reportIDs) == 0 {
		return nil, apperror.New(apperror.ErrCodeInvalidReportSet, "список отчётов пуст")
	}
	if !severity.IsEscalatable() {
		return nil, apperror.Validation("уровень серьёзности должен быть mild, medium или severe", "severity")
	}
	if err := validation.ValidateText("notes", "заметки", notes, validation.MaxNotesLength); err != nil {
		return nil, err
	}
	if coords != nil {
		if err := coords.Validate(); err != nil {
			return nil, err
		}
		c := *coords
		coords = &c
	}

	ids := make([]uuid.UUID, len(reportIDs))
	copy(ids, reportIDs)

	return &Assignment{
		ID:          uuid.New(),
		LocationKey: locationKey,
		District:    district,
		ReportIDs:   ids,
		Severity:    severity,
		Coordinates: coords,
		Status:      valueobject.AssignmentStatusPendingLabVisit,
		Notes:       strings.TrimSpace(notes),
		CreatedAt:   now,
	}, nil
}

func (a *Assignment) Active() bool {
	return a.Status.IsActive()
}

// UploadSolution фиксирует решение лаборатории. Статусы отчётов не меняются.
func (a *Assignment) UploadSolution(description, documentRef string, now time.Time) (AssignmentTransitioned, error) {
	description = strings.TrimSpace(description)
	documentRef = strings.TrimSpace(documentRef)

	var missing []string
	if description == "" {
		missing = append(missing, "solution_description")
	}
	if documentRef == "" {
		missing = append(missing, "document_ref")
	}
	if len(missing) > 0 {
		return AssignmentTransitioned{}, apperror.Validation("не заполнены обязательные поля", missing...)
	}
	if err := validation.ValidateText("solution_description", "описание решения", description, validation.MaxSolutionLength); err != nil {
		return AssignmentTransitioned{}, err
	}

	ev, err := a.transition(valueobject.AssignmentStatusSolutionUploaded, notBefore(now, a.CreatedAt))
	if err != nil {
		return AssignmentTransitioned{}, err
	}

	at := ev.At
	a.SolutionDescription = &description
	a.SolutionDocumentRef = &documentRef
	a.SolutionUploadedAt = &at
	return ev, nil
}

// ConfirmClean закрывает назначение. Событие требует перевести все отчёты в cleaned.
func (a *Assignment) ConfirmClean(finalNotes string, now time.Time) (AssignmentTransitioned, error) {
	if err := validation.ValidateText("final_notes", "итоговые заметки", finalNotes, validation.MaxNotesLength); err != nil {
		return AssignmentTransitioned{}, err
	}

	prev := a.CreatedAt
	if a.SolutionUploadedAt != nil {
		prev = *a.SolutionUploadedAt
	}

	ev, err := a.transition(valueobject.AssignmentStatusCleaned, notBefore(now, prev))
	if err != nil {
		return AssignmentTransitioned{}, err
	}

	at := ev.At
	a.ConfirmedCleanAt = &at
	if notes := strings.TrimSpace(finalNotes); notes != "" {
		a.FinalNotes = &notes
	}
	return ev, nil
}

// RecordTestResult сохраняет результат анализа воды. Повторная загрузка заменяет предыдущую.
func (a *Assignment) RecordTestResult(notes, documentRef string, now time.Time) error {
	documentRef = strings.TrimSpace(documentRef)
	if documentRef == "" {
		return apperror.Validation("не заполнены обязательные поля", "document_ref")
	}
	if err := validation.ValidateText("test_notes", "заметки к анализу", notes, validation.MaxNotesLength); err != nil {
		return err
	}
	if !a.Active() {
		return apperror.New(apperror.ErrCodeInvalidTransition, "назначение уже закрыто")
	}

	at := notBefore(now, a.CreatedAt)
	a.TestResultDocumentRef = &documentRef
	a.TestResultUploadedAt = &at
	a.TestNotes = nil
	if n := strings.TrimSpace(notes); n != "" {
		a.TestNotes = &n
	}
	return nil
}

// SetCoordinates задаёт координаты позже эскалации. Для закрытого назначения не имеет смысла.
func (a *Assignment) SetCoordinates(c valueobject.Coordinates) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !a.Active() {
		return apperror.New(apperror.ErrCodeInvalidTransition, "назначение уже закрыто")
	}
	a.Coordinates = &c
	return nil
}

func (a *Assignment) transition(to valueobject.AssignmentStatus, at time.Time) (AssignmentTransitioned, error) {
	if !a.Status.CanTransitionTo(to) {
		return AssignmentTransitioned{}, apperror.New(apperror.ErrCodeInvalidTransition,
			"недопустимый переход статуса назначения: "+string(a.Status)+" -> "+string(to))
	}

	ev := AssignmentTransitioned{
		AssignmentID: a.ID,
		LocationKey:  a.LocationKey,
		ReportIDs:    append([]uuid.UUID(nil), a.ReportIDs...),
		OldStatus:    a.Status,
		NewStatus:    to,
		At:           at,
	}
	a.Status = to
	return ev, nil
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}
