package export

import (
	"strings"
	"time"
	"unicode"

	"github.com/tietracker/tiexport/internal/domain/entity"
)

const (
	fallbackFilename = "export"
	shareSubjectBase = "Tie Tracker"
)

// Filename derives the output file name from the client and the date range
func Filename(invoice *entity.Invoice, from, to *time.Time) string {
	name := sanitizeName(invoice.ClientName())
	if name == "" {
		name = fallbackFilename
	}

	var b strings.Builder
	b.WriteString(name)
	if from != nil {
		b.WriteString("-")
		b.WriteString(from.Format(entity.DayLayout))
	}
	if to != nil {
		b.WriteString("-")
		b.WriteString(to.Format(entity.DayLayout))
	}
	b.WriteString(".")
	b.WriteString(entity.SpreadsheetExtension)
	return b.String()
}

// ShareSubject returns the subject line used when sharing an export
func ShareSubject(invoice *entity.Invoice) string {
	if name := invoice.ClientName(); name != "" {
		return shareSubjectBase + " - " + name
	}
	return shareSubjectBase
}

// reservedChars cannot appear in file names on at least one supported platform.
const reservedChars = `/\:*?"<>|`

// sanitizeName replaces path separators, parent references, reserved
// characters and control characters so the client name can be used as a
// file name
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(reservedChars, r), r == 0:
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, name)
	if strings.Trim(name, "_. ") == "" {
		return ""
	}
	return name
}
