package sms

import (
	"fmt"
	"strings"
	"time"
)

const separator = "━━━━━━━━━━━━━━━━━━━━"

type ReportFields struct {
	PinCode      string
	Problem      string
	Source       string
	LocalityName string
	Description  string
}

type Formatted struct {
	Readable     string
	Compact      string
	Instructions string
}

// Format готовит текст отчёта для отправки по SMS без интернета.
func Format(f ReportFields, now time.Time) Formatted {
	locality := f.LocalityName
	if locality == "" {
		locality = "Not specified"
	}
	description := f.Description
	if description == "" {
		description = "Reported water quality issue"
	}

	var b strings.Builder
	b.WriteString("WATER QUALITY REPORT\n")
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "PIN CODE: %s\n", f.PinCode)
	fmt.Fprintf(&b, "LOCATION: %s\n", locality)
	fmt.Fprintf(&b, "ISSUE TYPE: %s\n", f.Problem)
	fmt.Fprintf(&b, "SOURCE TYPE: %s\n", f.Source)
	fmt.Fprintf(&b, "DESCRIPTION: %s\n", description)
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Timestamp: %s", now.UTC().Format(time.RFC3339))

	return Formatted{
		Readable:     b.String(),
		Compact:      strings.Join([]string{"WQ", f.PinCode, f.Problem, f.Source, f.Description}, "|"),
		Instructions: "Copy this text and send it via SMS to report offline. It will be processed automatically.",
	}
}

// Instructions возвращает справку по форматам SMS для пользователей.
func Instructions() string {
	return `OFFLINE WATER QUALITY REPORTING VIA SMS

Format 1 - COMPACT:
WQ|PINCODE|ISSUE|SOURCE|DESCRIPTION

Example:
WQ|781014|Health symptoms|Tube well|Water taste bad

Format 2 - STRUCTURED:
PIN CODE: 781014
LOCATION: Guwahati
ISSUE: Health symptoms
SOURCE: Tube well
DESCRIPTION: Water causing health issues

VALID ISSUE TYPES:
- Health symptoms
- Metallic taste
- Reddish brown water
- Pungent smell
- Muddy water

VALID SOURCE TYPES:
- Tube well/Borewell
- Piped water supply
- Dug well/Open well
- Handpump
- Ponds/Reservoir`
}
