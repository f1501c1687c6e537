package mcp

import (
	"sort"

	"github.com/charmbracelet/x/ansi"

	"opslens/src/classify"
	"opslens/src/contracts"
)

// Sample limits per pattern. Error patterns get more examples since they are
// the likely root causes.
const (
	ErrorPatternSamples = 3
	OtherPatternSamples = 1
)

// Default pattern limits for a manifest.
const (
	DefaultErrorLimit = 15
	DefaultOtherLimit = 5
)

// maxManifestIDs bounds the log IDs listed per expanded pattern.
const maxManifestIDs = 10

// maxSummaryLength bounds the sample of a summarized pattern, in cells.
const maxSummaryLength = 100

// BuildDigest groups logs by category and error type. A pattern takes the
// worst severity of its records and the suggested fix of the first record
// that has one. Patterns are ordered by severity, then count, then ID.
func BuildDigest(source contracts.Source, logs []contracts.ClassifiedLog) Digest {
	groups := classify.GroupByPattern(logs)

	patterns := make([]Pattern, 0, len(groups))
	for id, members := range groups {
		patterns = append(patterns, toPattern(id, members))
	}
	sort.Slice(patterns, func(i, j int) bool {
		a, b := patterns[i], patterns[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ID < b.ID
	})

	d := Digest{
		Source:        source,
		TotalLogs:     len(logs),
		ErrorPatterns: []Pattern{},
		OtherPatterns: []Pattern{},
	}
	for _, p := range patterns {
		if p.Severity.IsError() {
			d.ErrorPatterns = append(d.ErrorPatterns, p)
		} else {
			d.OtherPatterns = append(d.OtherPatterns, p)
		}
	}
	return d
}

func toPattern(id string, members []contracts.ClassifiedLog) Pattern {
	p := Pattern{
		ID:        id,
		Category:  members[0].Category,
		Severity:  members[0].Severity,
		ErrorType: members[0].ErrorType,
		Count:     len(members),
		LogIDs:    make([]string, 0, len(members)),
	}

	var messages []string
	for _, log := range members {
		if log.Severity.Rank() > p.Severity.Rank() {
			p.Severity = log.Severity
		}
		if p.SuggestedFix == "" {
			p.SuggestedFix = log.SuggestedFix
		}
		p.LogIDs = append(p.LogIDs, log.ID)
		messages = append(messages, log.Message)
	}

	limit := OtherPatternSamples
	if p.Severity.IsError() {
		limit = ErrorPatternSamples
	}
	p.Samples = uniqueSamples(messages, limit)
	return p
}

// uniqueSamples returns up to limit distinct compressed messages in record order.
func uniqueSamples(messages []string, limit int) []string {
	seen := make(map[string]bool)
	samples := []string{}
	for _, msg := range messages {
		c := CompressLine(msg)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		samples = append(samples, c)
		if len(samples) == limit {
			break
		}
	}
	return CompressLines(samples)
}

// ToManifest trims a digest for an LLM response. Up to errorLimit error
// patterns are kept with their samples; up to otherLimit of the rest are
// reduced to summaries. Non-positive limits use the defaults.
func ToManifest(requestID string, d Digest, errorLimit, otherLimit int) Manifest {
	if errorLimit <= 0 {
		errorLimit = DefaultErrorLimit
	}
	if otherLimit <= 0 {
		otherLimit = DefaultOtherLimit
	}

	m := Manifest{
		RequestID:     requestID,
		Source:        d.Source,
		TotalLogs:     d.TotalLogs,
		ErrorPatterns: []Pattern{},
		OtherPatterns: []PatternSummary{},
	}

	for i, p := range d.ErrorPatterns {
		if i == errorLimit {
			break
		}
		if len(p.LogIDs) > maxManifestIDs {
			p.LogIDs = p.LogIDs[:maxManifestIDs]
		}
		m.ErrorPatterns = append(m.ErrorPatterns, p)
	}
	for i, p := range d.OtherPatterns {
		if i == otherLimit {
			break
		}
		m.OtherPatterns = append(m.OtherPatterns, toSummary(p))
	}
	return m
}

func toSummary(p Pattern) PatternSummary {
	s := PatternSummary{
		ID:       p.ID,
		Category: p.Category,
		Severity: p.Severity,
		Count:    p.Count,
	}
	if len(p.Samples) > 0 {
		s.Sample = ansi.Truncate(p.Samples[0], maxSummaryLength, "...")
	}
	return s
}
