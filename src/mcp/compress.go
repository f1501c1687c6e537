package mcp

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// timestampPattern matches a leading timestamp such as
// 2024-05-21T10:00:05.123Z, 2024-05-21 10:00:05,123 or 2024-05-21T10:00:05+00:00.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.,]?\d*Z?([+-]\d{2}:?\d{2})?\s*`)

// hashPattern matches container IDs, image digests and git SHAs.
var hashPattern = regexp.MustCompile(`\b[a-f0-9]{12,}\b`)

// longPathPattern matches absolute paths three or more directories deep and
// captures the file name with an optional line number.
var longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// minPrefixLength is the shortest shared prefix worth replacing.
const minPrefixLength = 20

// maxSampleLength bounds a compressed sample line.
const maxSampleLength = 240

func stripTimestamp(line string) string {
	return timestampPattern.ReplaceAllString(line, "")
}

func maskHashes(line string) string {
	return hashPattern.ReplaceAllString(line, "<HASH>")
}

func compressPath(line string) string {
	return longPathPattern.ReplaceAllString(line, ".../$1")
}

func normalizeWhitespace(line string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// CompressLine shrinks a log message for an LLM context window. Escape
// sequences and the leading timestamp are removed, hashes masked, deep paths
// shortened and whitespace collapsed before truncating.
func CompressLine(line string) string {
	line = ansi.Strip(line)
	line = stripTimestamp(line)
	line = maskHashes(line)
	line = compressPath(line)
	line = normalizeWhitespace(line)
	return ansi.Truncate(line, maxSampleLength, "...")
}

// CompressLines compresses each line and then drops a long prefix they all
// share (pod names, log group paths).
func CompressLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = CompressLine(line)
	}
	return removeCommonPrefix(out)
}

func findCommonPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for len(prefix) > 0 && !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			break
		}
	}
	// Lines may share the leading bytes of different multi-byte runes.
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}

	if len(prefix) < minPrefixLength {
		return ""
	}
	return prefix
}

func removeCommonPrefix(lines []string) []string {
	prefix := findCommonPrefix(lines)
	if prefix == "" {
		return lines
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "... " + line[len(prefix):]
	}
	return out
}
