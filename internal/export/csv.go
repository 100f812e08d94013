// Package export renders leads for spreadsheet import.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	"leadsync/internal/model"
)

// DateLayout is the "Date Found" column format. Dates are rendered in UTC.
const DateLayout = "2006-01-02"

// Header is the fixed CSV column order.
var Header = []string{"Author", "Platform", "Title", "URL", "Relevance", "Date Found", "Snippet"}

// CSV renders leads as comma-separated text with a header row. Every field,
// header included, is double-quoted with embedded quotes doubled.
func CSV(leads []model.Lead) string {
	rows := make([]string, 0, len(leads)+1)
	rows = append(rows, joinRow(Header))
	for _, l := range leads {
		rows = append(rows, joinRow(Row(l)))
	}
	return strings.Join(rows, "\n") + "\n"
}

// WriteCSV writes CSV(leads) to w.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	_, err := io.WriteString(w, CSV(leads))
	return err
}

// Row returns the unquoted field values of one lead in Header order.
func Row(l model.Lead) []string {
	return []string{
		l.Author,
		l.Platform,
		l.Title,
		l.URL,
		strconv.Itoa(l.RelevanceScore),
		formatDate(l.DetectedAt),
		l.Snippet,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func joinRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = escapeField(f)
	}
	return strings.Join(quoted, ",")
}

// escapeField wraps a value in double quotes, doubling any inner quote.
func escapeField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
