package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
	"github.com/ignatzorin/water-alert-backend/internal/validation"
)

type Report struct {
	ID           uuid.UUID
	LocationKey  string
	District     string
	LocalityName string
	ProblemType  valueobject.ProblemType
	SourceType   valueobject.SourceType
	Description  *string
	Status       valueobject.ReportStatus
	SubmittedAt  time.Time
	Upvotes      int
	Verified     bool
	Channel      valueobject.Channel
}

type NewReportParams struct {
	ProblemType  string
	SourceType   string
	LocationKey  string
	District     string
	LocalityName string
	Description  *string
	Channel      string
}

// NewReport проверяет обязательные поля и возвращает отчёт в статусе reported.
// Все отсутствующие поля перечисляются в одной ошибке валидации.
func NewReport(p NewReportParams, now time.Time) (*Report, error) {
	required := []struct {
		field string
		value string
	}{
		{"problem_type", p.ProblemType},
		{"source_type", p.SourceType},
		{"location_key", p.LocationKey},
		{"district", p.District},
		{"locality_name", p.LocalityName},
		{"channel", p.Channel},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.Validation("не заполнены обязательные поля", missing...)
	}
	if err := validation.ValidateReportText(p.District, p.LocalityName, p.Description); err != nil {
		return nil, err
	}

	locationKey, ok := valueobject.NormalizeLocationKey(p.LocationKey)
	if !ok {
		return nil, apperror.Validation("некорректный PIN-код локации", "location_key")
	}

	channel, err := valueobject.NewChannel(p.Channel)
	if err != nil {
		return nil, err
	}

	problem, err := valueobject.NewProblemType(p.ProblemType)
	if err != nil {
		return nil, err
	}

	source, err := valueobject.NewSourceType(p.SourceType)
	if err != nil {
		return nil, err
	}

	var description *string
	if p.Description != nil {
		if d := strings.TrimSpace(*p.Description); d != "" {
			description = &d
		}
	}

	return &Report{
		ID:           uuid.New(),
		LocationKey:  locationKey,
		District:     strings.TrimSpace(p.District),
		LocalityName: strings.TrimSpace(p.LocalityName),
		ProblemType:  problem,
		SourceType:   source,
		Description:  description,
		Status:       valueobject.ReportStatusReported,
		SubmittedAt:  now,
		Channel:      channel,
	}, nil
}

// Active выводится из статуса и никогда не хранится отдельно.
func (r *Report) Active() bool {
	return r.Status.IsActive()
}

func (r *Report) TransitionTo(status valueobject.ReportStatus) error {
	if !r.Status.CanTransitionTo(status) {
		return apperror.New(apperror.ErrCodeInvalidTransition,
			"недопустимый переход статуса отчёта: "+string(r.Status)+" -> "+string(status))
	}
	r.Status = status
	return nil
}

func (r *Report) Upvote() {
	r.Upvotes++
}

func (r *Report) Verify() {
	r.Verified = true
}
