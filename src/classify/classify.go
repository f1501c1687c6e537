// Package classify assigns category, severity, error type, tags and a
// remediation hint to canonical log records.
//
// Classification is a pure function of the message text. The rule table is
// scanned in order and the first matching rule decides the category, severity
// and suggested fix; rules are never combined.
package classify

import (
	"regexp"
	"strings"

	"opslens/src/contracts"
)

var (
	errorTypePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Error:\s*([A-Za-z]+Error)`),
		regexp.MustCompile(`Exception:\s*([A-Za-z]+Exception)`),
		regexp.MustCompile(`([A-Z][a-z]+(?:[A-Z][a-z]+)*(?:Error|Exception))`),
	}

	labelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)service[:\s]+([a-z0-9-]+)`),
		regexp.MustCompile(`(?i)pod[:\s]+([a-z0-9-]+)`),
		regexp.MustCompile(`(?i)namespace[:\s]+([a-z0-9-]+)`),
	}

	statusPattern = regexp.MustCompile(`\b([45]\d{2})\b`)
)

// Classify derives the classified form of a single record.
func Classify(raw contracts.RawLog) contracts.ClassifiedLog {
	category := contracts.CategoryUnknown
	severity := baselineSeverity(raw.Message)
	var fix string

	if rule, ok := Match(raw.Message); ok {
		category = rule.Category
		severity = rule.Severity
		fix = rule.SuggestedFix
	}

	if category == contracts.CategoryUnknown && severity == contracts.SeverityError {
		category = contracts.CategoryApplication
	}

	return contracts.ClassifiedLog{
		RawLog:       raw,
		Category:     category,
		Severity:     severity,
		ErrorType:    extractErrorType(raw.Message),
		SuggestedFix: fix,
		Tags:         extractTags(raw.Message),
	}
}

// Batch classifies each record independently, preserving order.
func Batch(raws []contracts.RawLog) []contracts.ClassifiedLog {
	out := make([]contracts.ClassifiedLog, len(raws))
	for i, raw := range raws {
		out[i] = Classify(raw)
	}
	return out
}

// Match returns the first rule whose pattern matches message.
func Match(message string) (Rule, bool) {
	for _, rule := range rules {
		if rule.Matches(message) {
			return rule, true
		}
	}
	return Rule{}, false
}

// GroupByPattern groups records by "<category>-<errorType>", using "general"
// when no error type was extracted.
func GroupByPattern(logs []contracts.ClassifiedLog) map[string][]contracts.ClassifiedLog {
	groups := make(map[string][]contracts.ClassifiedLog)
	for _, log := range logs {
		errorType := log.ErrorType
		if errorType == "" {
			errorType = "general"
		}
		key := string(log.Category) + "-" + errorType
		groups[key] = append(groups[key], log)
	}
	return groups
}

func baselineSeverity(message string) contracts.Severity {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "critical"), strings.Contains(lower, "fatal"):
		return contracts.SeverityCritical
	case strings.Contains(lower, "error"), strings.Contains(lower, "fail"):
		return contracts.SeverityError
	case strings.Contains(lower, "warn"):
		return contracts.SeverityWarning
	case strings.Contains(lower, "debug"):
		return contracts.SeverityDebug
	}
	return contracts.SeverityInfo
}

func extractErrorType(message string) string {
	for _, p := range errorTypePatterns {
		if m := p.FindStringSubmatch(message); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// extractTags returns label values and the first 4xx/5xx status code,
// deduplicated in extraction order.
func extractTags(message string) []string {
	tags := []string{}
	seen := make(map[string]bool)

	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, p := range labelPatterns {
		if m := p.FindStringSubmatch(message); len(m) > 1 {
			add(m[1])
		}
	}
	if m := statusPattern.FindStringSubmatch(message); len(m) > 1 {
		add("status-" + m[1])
	}

	return tags
}
