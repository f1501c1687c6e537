package adapter

import (
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

const isoPattern = `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`

var (
	isoLeading  = regexp.MustCompile(`^` + isoPattern)
	isoAnywhere = regexp.MustCompile(isoPattern)

	// ISO layouts in the order they are tried. Fractional seconds are accepted
	// by time.Parse even when the layout does not name them.
	isoLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05",
	}
)

// timeFormat is a source-specific timestamp shape tried after the ISO forms.
type timeFormat struct {
	pattern *regexp.Regexp
	layout  string
}

var (
	// spacedFormat matches "2024-01-01 12:00:00" anywhere in the line.
	spacedFormat = timeFormat{
		pattern: regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`),
		layout:  "2006-01-02 15:04:05",
	}

	// bracketedFormat matches the CI console style "[2024-01-01 12:00:00]".
	bracketedFormat = timeFormat{
		pattern: regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`),
		layout:  "2006-01-02 15:04:05",
	}
)

// extractTimestamp finds the first parsable timestamp in line.
//
// An ISO-8601 timestamp at the start of the line wins, then one anywhere in the
// line, then each of formats in order. Timestamps without a zone are UTC.
func extractTimestamp(line string, formats ...timeFormat) (time.Time, bool) {
	if ts, ok := parseISO(isoLeading.FindString(line)); ok {
		return ts, true
	}
	if ts, ok := parseISO(isoAnywhere.FindString(line)); ok {
		return ts, true
	}

	for _, f := range formats {
		m := f.pattern.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		if ts, err := time.ParseInLocation(f.layout, m[1], time.UTC); err == nil {
			return ts, true
		}
	}

	return time.Time{}, false
}

func parseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// StripStreamHeader removes the container runtime's 8-byte multiplexing header
// (stream byte 0/1/2, three zero bytes, 4-byte length) when present, then any
// leading control characters and ANSI escape sequences.
func StripStreamHeader(line string) string {
	if len(line) >= 8 && line[0] <= 2 && line[1] == 0 && line[2] == 0 && line[3] == 0 {
		line = line[8:]
	}
	line = strings.TrimLeftFunc(line, func(r rune) bool {
		return r < 0x20
	})
	return ansi.Strip(line)
}
