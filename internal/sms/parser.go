package sms

import (
	"regexp"
	"strings"

	"github.com/ignatzorin/water-alert-backend/internal/pkg/apperror"
)

type MessageFormat string

const (
	FormatCompact    MessageFormat = "compact"
	FormatStructured MessageFormat = "structured"

	compactPrefix = "WQ|"
)

// Parsed содержит поля отчёта, извлечённые из текста SMS. Метки проблемы и источника
// остаются свободным текстом и сопоставляются со словарём при подаче отчёта.
type Parsed struct {
	Format       MessageFormat
	PinCode      string
	Problem      string
	Source       string
	LocalityName string
	Description  string
}

var (
	pinRe         = regexp.MustCompile(`(?i)PIN\s*(?:CODE)?:\s*(\d+)`)
	issueRe       = regexp.MustCompile(`(?i)ISSUE\s*(?:TYPE)?:\s*([^\n]+)`)
	problemRe     = regexp.MustCompile(`(?i)PROBLEM:\s*([^\n]+)`)
	sourceRe      = regexp.MustCompile(`(?i)SOURCE\s*(?:TYPE)?:\s*([^\n]+)`)
	locationRe    = regexp.MustCompile(`(?i)LOCATION:\s*([^\n]+)`)
	descriptionRe = regexp.MustCompile(`(?i)DESCRIPTION:\s*([^\n]+)`)
)

// Parse распознаёт компактный формат WQ|PIN|ISSUE|SOURCE|DESCRIPTION
// и структурированный формат из строк "КЛЮЧ: значение".
func Parse(text string) (Parsed, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Parsed{}, apperror.Validation("пустой текст SMS", "text")
	}

	if strings.HasPrefix(strings.ToUpper(text), compactPrefix) {
		return parseCompact(text)
	}

	upper := strings.ToUpper(text)
	if strings.Contains(upper, "PIN") || strings.Contains(upper, "CODE") {
		return parseStructured(text)
	}

	return Parsed{}, apperror.Validation(
		`нераспознанный формат SMS: ожидается "WQ|..." или строка "PIN CODE: ..."`, "text")
}

func parseCompact(text string) (Parsed, error) {
	parts := strings.Split(text, "|")
	if len(parts) < 4 {
		return Parsed{}, apperror.Validation("ожидается формат WQ|PINCODE|ISSUE|SOURCE|DESCRIPTION", "text")
	}

	p := Parsed{
		Format:  FormatCompact,
		PinCode: strings.TrimSpace(parts[1]),
		Problem: strings.TrimSpace(parts[2]),
		Source:  strings.TrimSpace(parts[3]),
	}
	if len(parts) > 4 {
		// описание может само содержать разделитель
		p.Description = strings.TrimSpace(strings.Join(parts[4:], "|"))
	}

	return p, p.validate()
}

func parseStructured(text string) (Parsed, error) {
	p := Parsed{
		Format:       FormatStructured,
		PinCode:      firstMatch(pinRe, text),
		Source:       firstMatch(sourceRe, text),
		LocalityName: firstMatch(locationRe, text),
		Description:  firstMatch(descriptionRe, text),
	}
	p.Problem = firstMatch(issueRe, text)
	if p.Problem == "" {
		p.Problem = firstMatch(problemRe, text)
	}

	return p, p.validate()
}

func (p Parsed) validate() error {
	var missing []string
	if p.PinCode == "" || !isDigits(p.PinCode) {
		missing = append(missing, "pin_code")
	}
	if p.Problem == "" {
		missing = append(missing, "problem")
	}
	if p.Source == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		return apperror.Validation("в SMS не хватает обязательных полей", missing...)
	}
	return nil
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
