// Package contracts defines the canonical log records and the messages exchanged
// between collectors, the ingest agent and the query surfaces.
package contracts

import "time"

// RawLog is a single log line converted into the canonical schema by a source adapter.
// It is never modified after creation.
type RawLog struct {
	// Unique identifier assigned at normalization time.
	ID string `json:"id"`
	// Originating system.
	Source Source `json:"source"`
	// Time extracted from the line, or the ingestion time when none could be parsed.
	Timestamp time.Time `json:"timestamp"`
	// Free-text message after source-specific cleanup.
	Message string `json:"message"`
	// Source-specific key/value pairs (namespace/pod, container id, job, log group...).
	Metadata map[string]string `json:"metadata,omitempty"`
	// Original unparsed text, kept for audit.
	RawData string `json:"rawData"`
}

// ClassifiedLog is a RawLog plus the fields derived by the classification engine.
type ClassifiedLog struct {
	RawLog
	Category     Category `json:"category"`
	Severity     Severity `json:"severity"`
	ErrorType    string   `json:"errorType,omitempty"`
	SuggestedFix string   `json:"suggestedFix,omitempty"`
	Tags         []string `json:"tags"`
}

// RawBatchMessage carries raw lines from a collector to the ingest agent.
// Published to: opslens.logs.raw
// Key: {source}
type RawBatchMessage struct {
	RequestID   string            `json:"request_id"`
	Source      string            `json:"source"`
	Metadata    map[string]string `json:"metadata"`
	Lines       []string          `json:"lines"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	Timestamp   string            `json:"timestamp"`
}

// TopicNames defines the broker topic names.
const (
	// TopicLogsRaw contains raw line batches awaiting normalization and classification.
	TopicLogsRaw = "opslens.logs.raw"
)
