package render

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// FormatDate renders an ISO date the way en-US long dates read
// ("February 1, 2025"). Values that do not parse are returned unchanged.
func FormatDate(raw string) string {
	return formatDate(raw, "January 2, 2006")
}

// FormatLongDate is FormatDate with the weekday ("Saturday, February 1, 2025").
func FormatLongDate(raw string) string {
	return formatDate(raw, "Monday, January 2, 2006")
}

func formatDate(raw, out string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return raw
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(out)
		}
	}
	return raw
}
