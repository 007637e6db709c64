package valueobject

import "github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"

type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityMild   Severity = "mild"
	SeverityMedium Severity = "medium"
	SeveritySevere Severity = "severe"
)

// Пороги по количеству активных отчётов. Нижняя граница относится к более высокому уровню.
const (
	MildThreshold   = 5
	MediumThreshold = 10
	SevereThreshold = 20

	EscalationThreshold = MildThreshold
)

func SeverityForCount(count int) Severity {
	switch {
	case count >= SevereThreshold:
		return SeveritySevere
	case count >= MediumThreshold:
		return SeverityMedium
	case count >= MildThreshold:
		return SeverityMild
	default:
		return SeverityNone
	}
}

func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityMild, SeverityMedium, SeveritySevere:
		return true
	}
	return false
}

// IsEscalatable сообщает, можно ли с этим уровнем создать назначение.
func (s Severity) IsEscalatable() bool {
	return s == SeverityMild || s == SeverityMedium || s == SeveritySevere
}

func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityMedium:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

func NewSeverity(severity string) (Severity, error) {
	s := Severity(severity)
	if !s.IsValid() {
		return "", apperror.Validation("некорректный уровень серьёзности", "severity")
	}
	return s, nil
}
