// Package mcp serves log collection, querying and analytics as MCP tools so an
// LLM client can triage infrastructure logs.
package mcp

import "opslens/src/contracts"

// Digest is the full pattern breakdown of one collection or query.
type Digest struct {
	Source        contracts.Source `json:"source,omitempty"`
	TotalLogs     int              `json:"total_logs"`
	ErrorPatterns []Pattern        `json:"error_patterns"`
	OtherPatterns []Pattern        `json:"other_patterns"`
}

// Pattern is a group of records sharing category and error type.
type Pattern struct {
	ID           string             `json:"id"`
	Category     contracts.Category `json:"category"`
	Severity     contracts.Severity `json:"severity"`
	ErrorType    string             `json:"error_type,omitempty"`
	Count        int                `json:"count"`
	SuggestedFix string             `json:"suggested_fix,omitempty"`
	Samples      []string           `json:"samples"`
	LogIDs       []string           `json:"log_ids"`
}

// Manifest is the lightweight response returned by collect and digest tools.
// Error patterns are expanded; the rest are summaries to drill into with
// get_pattern_details.
type Manifest struct {
	RequestID     string           `json:"request_id"`
	Source        contracts.Source `json:"source,omitempty"`
	TotalLogs     int              `json:"total_logs"`
	ErrorPatterns []Pattern        `json:"error_patterns"`
	OtherPatterns []PatternSummary `json:"other_patterns"`
}

// PatternSummary is a Pattern without samples or IDs.
type PatternSummary struct {
	ID       string             `json:"id"`
	Category contracts.Category `json:"category"`
	Severity contracts.Severity `json:"severity"`
	Count    int                `json:"count"`
	Sample   string             `json:"sample"`
}
