package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxDistrictLength    = 100
	MaxLocalityLength    = 150
	MaxDescriptionLength = 2000
	MaxNotesLength       = 5000
	MaxSolutionLength    = 5000
	MaxSMSTextLength     = 1000
)

// ValidateLength проверяет длину строки в символах. field попадает в ошибку валидации.
func ValidateLength(field, label, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation(fmt.Sprintf("%s должно быть не менее %d символов", label, min), field)
	}
	if max > 0 && length > max {
		return apperror.Validation(fmt.Sprintf("%s должно быть не более %d символов", label, max), field)
	}
	return nil
}

// ValidatePrintable отклоняет управляющие символы, кроме перевода строки и табуляции.
func ValidatePrintable(field, label, value string) error {
	for _, r := range value {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return apperror.Validation(label+" содержит недопустимые символы", field)
		}
	}
	return nil
}

// ValidateText проверяет длину и печатные символы. Пустое значение допустимо.
func ValidateText(field, label, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if err := ValidateLength(field, label, value, 0, max); err != nil {
		return err
	}

	return ValidatePrintable(field, label, value)
}

// ValidateReportText проверяет свободные текстовые поля отчёта.
func ValidateReportText(district, locality string, description *string) error {
	if err := ValidateText("district", "название района", district, MaxDistrictLength); err != nil {
		return err
	}
	if err := ValidateText("locality_name", "название населённого пункта", locality, MaxLocalityLength); err != nil {
		return err
	}
	if description != nil {
		if err := ValidateText("description", "описание", *description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSMSText проверяет сырой текст SMS до разбора.
func ValidateSMSText(text string) error {
	return ValidateLength("text", "текст SMS", text, 0, MaxSMSTextLength)
}
