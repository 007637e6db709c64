package valueobject

import (
	"strings"
	"unicode"

	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

type ProblemType string

const (
	ProblemHealthSymptoms    ProblemType = "health_symptoms"
	ProblemMetallicTaste     ProblemType = "metallic_taste"
	ProblemReddishBrownWater ProblemType = "reddish_brown_water"
	ProblemPungentSmell      ProblemType = "pungent_smell"
	ProblemMuddyWater        ProblemType = "muddy_water"
	ProblemOther             ProblemType = "other"
)

func (p ProblemType) IsValid() bool {
	switch p {
	case ProblemHealthSymptoms, ProblemMetallicTaste, ProblemReddishBrownWater,
		ProblemPungentSmell, ProblemMuddyWater, ProblemOther:
		return true
	}
	return false
}

func NewProblemType(problem string) (ProblemType, error) {
	p := ProblemType(strings.TrimSpace(problem))
	if !p.IsValid() {
		return "", apperror.Validation("неизвестный тип проблемы", "problem_type")
	}
	return p, nil
}

// ParseProblemLabel сопоставляет свободный текст (например, из SMS) со словарём.
// Нераспознанное значение становится ProblemOther.
func ParseProblemLabel(label string) ProblemType {
	if p, err := NewProblemType(label); err == nil {
		return p
	}
	norm := normalizeLabel(label)
	switch {
	case strings.Contains(norm, "health"), strings.Contains(norm, "symptom"), strings.Contains(norm, "sick"):
		return ProblemHealthSymptoms
	case strings.Contains(norm, "metal"):
		return ProblemMetallicTaste
	case strings.Contains(norm, "red"), strings.Contains(norm, "brown"), strings.Contains(norm, "rust"):
		return ProblemReddishBrownWater
	case strings.Contains(norm, "smell"), strings.Contains(norm, "odor"), strings.Contains(norm, "odour"):
		return ProblemPungentSmell
	case strings.Contains(norm, "mud"), strings.Contains(norm, "turbid"), strings.Contains(norm, "dirty"):
		return ProblemMuddyWater
	default:
		return ProblemOther
	}
}

type SourceType string

const (
	SourceTubeWell      SourceType = "tube_well"
	SourcePipedSupply   SourceType = "piped_supply"
	SourceDugWell       SourceType = "dug_well"
	SourceHandpump      SourceType = "handpump"
	SourcePondReservoir SourceType = "pond_reservoir"
	SourceOther         SourceType = "other"
)

func (s SourceType) IsValid() bool {
	switch s {
	case SourceTubeWell, SourcePipedSupply, SourceDugWell, SourceHandpump, SourcePondReservoir, SourceOther:
		return true
	}
	return false
}

func NewSourceType(source string) (SourceType, error) {
	s := SourceType(strings.TrimSpace(source))
	if !s.IsValid() {
		return "", apperror.Validation("неизвестный тип источника", "source_type")
	}
	return s, nil
}

// ParseSourceLabel делает то же, что ParseProblemLabel, для источника воды.
func ParseSourceLabel(label string) SourceType {
	if s, err := NewSourceType(label); err == nil {
		return s
	}
	norm := normalizeLabel(label)
	switch {
	case strings.Contains(norm, "tube"), strings.Contains(norm, "bore"):
		return SourceTubeWell
	case strings.Contains(norm, "pipe"), strings.Contains(norm, "tap"), strings.Contains(norm, "supply"):
		return SourcePipedSupply
	case strings.Contains(norm, "dug"), strings.Contains(norm, "open well"):
		return SourceDugWell
	case strings.Contains(norm, "hand"):
		return SourceHandpump
	case strings.Contains(norm, "pond"), strings.Contains(norm, "reservoir"), strings.Contains(norm, "lake"):
		return SourcePondReservoir
	default:
		return SourceOther
	}
}

type Channel string

const (
	ChannelWeb Channel = "web"
	ChannelSMS Channel = "sms"
)

func (c Channel) IsValid() bool {
	return c == ChannelWeb || c == ChannelSMS
}

func NewChannel(channel string) (Channel, error) {
	c := Channel(channel)
	if !c.IsValid() {
		return "", apperror.Validation("неизвестный канал подачи", "channel")
	}
	return c, nil
}

func normalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
