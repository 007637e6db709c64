package report

import (
	"context"

	"github.com/ignatzorin/water-alert-backend/internal/domain/entity"
	"github.com/ignatzorin/water-alert-backend/internal/domain/valueobject"
	"github.com/ignatzorin/water-alert-backend/internal/sms"
	"github.com/ignatzorin/water-alert-backend/internal/validation"
)

// PlaceResolver находит населённый пункт и район по PIN-коду.
type PlaceResolver interface {
	Place(pin string) (locality, district string, ok bool)
}

const unknownPlace = "Unknown"

type SubmitSMSReportUseCase struct {
	submit   *SubmitReportUseCase
	resolver PlaceResolver
}

func NewSubmitSMSReportUseCase(submit *SubmitReportUseCase, resolver PlaceResolver) *SubmitSMSReportUseCase {
	return &SubmitSMSReportUseCase{submit: submit, resolver: resolver}
}

// Execute разбирает текст SMS и подаёт отчёт с каналом sms.
// Свободные метки проблемы и источника сводятся к словарю, нераспознанные становятся other.
func (uc *SubmitSMSReportUseCase) Execute(ctx context.Context, text string) (*entity.Report, sms.Parsed, error) {
	if err := validation.ValidateSMSText(text); err != nil {
		return nil, sms.Parsed{}, err
	}

	parsed, err := sms.Parse(text)
	if err != nil {
		return nil, parsed, err
	}

	locality := parsed.LocalityName
	district := ""
	if uc.resolver != nil {
		if loc, dist, ok := uc.resolver.Place(parsed.PinCode); ok {
			district = dist
			if locality == "" {
				locality = loc
			}
		}
	}
	if locality == "" {
		locality = unknownPlace
	}
	if district == "" {
		district = unknownPlace
	}

	var description *string
	if parsed.Description != "" {
		d := parsed.Description
		description = &d
	}

	r, err := uc.submit.Execute(ctx, SubmitReportInput{
		ProblemType:  string(valueobject.ParseProblemLabel(parsed.Problem)),
		SourceType:   string(valueobject.ParseSourceLabel(parsed.Source)),
		LocationKey:  parsed.PinCode,
		District:     district,
		LocalityName: locality,
		Description:  description,
		Channel:      string(valueobject.ChannelSMS),
	})
	if err != nil {
		return nil, parsed, err
	}
	return r, parsed, nil
}
