// Package adapter converts source-specific raw text into canonical RawLog records.
//
// Every source gets the same line handling (split, trim, drop blanks, assign an
// ID, keep the original text) and differs only in how a line is cleaned before
// parsing and which extra timestamp formats are recognised.
package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"opslens/src/contracts"
)

// Metadata is the source-specific key/value context attached to every record.
type Metadata map[string]string

// Clock returns the ingestion time used when no timestamp can be parsed.
type Clock func() time.Time

// Event is an upstream record that is already structured (orchestrator events,
// runtime container events, CI job status, cloud log events).
type Event struct {
	Time     time.Time
	Message  string
	Metadata Metadata
	// Raw is serialized to JSON and kept as the record's RawData.
	Raw any
}

// Adapter normalizes one source's output into RawLog records.
type Adapter interface {
	// Source returns the source this adapter handles.
	Source() contracts.Source

	// Normalize splits lines into records. It never fails: unparsable
	// timestamps fall back to the ingestion time.
	Normalize(meta Metadata, lines []string) []contracts.RawLog

	// FromEvents converts structured events into records.
	FromEvents(events []Event) []contracts.RawLog
}

// Option configures an adapter.
type Option func(*lineAdapter)

// WithClock overrides the ingestion clock.
func WithClock(clock Clock) Option {
	return func(a *lineAdapter) {
		a.clock = clock
	}
}

// lineAdapter is the shared implementation behind every source.
type lineAdapter struct {
	source  contracts.Source
	clean   func(string) string
	formats []timeFormat
	clock   Clock
}

func newLineAdapter(source contracts.Source, clean func(string) string, formats []timeFormat, opts ...Option) *lineAdapter {
	a := &lineAdapter{
		source:  source,
		clean:   clean,
		formats: formats,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewOrchestrator returns the adapter for container orchestrator pod logs.
func NewOrchestrator(opts ...Option) Adapter {
	return newLineAdapter(contracts.SourceOrchestrator, nil, []timeFormat{spacedFormat}, opts...)
}

// NewRuntime returns the adapter for container runtime logs.
// Lines have the runtime's stream header and ANSI sequences removed.
func NewRuntime(opts ...Option) Adapter {
	return newLineAdapter(contracts.SourceRuntime, StripStreamHeader, nil, opts...)
}

// NewCI returns the adapter for CI console output.
func NewCI(opts ...Option) Adapter {
	return newLineAdapter(contracts.SourceCI, nil, []timeFormat{bracketedFormat}, opts...)
}

// NewCloudLog returns the adapter for cloud log service events.
func NewCloudLog(opts ...Option) Adapter {
	return newLineAdapter(contracts.SourceCloudLog, nil, []timeFormat{spacedFormat}, opts...)
}

// For returns the adapter registered for source.
func For(source contracts.Source, opts ...Option) (Adapter, error) {
	switch source {
	case contracts.SourceOrchestrator:
		return NewOrchestrator(opts...), nil
	case contracts.SourceRuntime:
		return NewRuntime(opts...), nil
	case contracts.SourceCI:
		return NewCI(opts...), nil
	case contracts.SourceCloudLog:
		return NewCloudLog(opts...), nil
	}
	return nil, fmt.Errorf("no adapter for source %q", source)
}

func (a *lineAdapter) Source() contracts.Source {
	return a.source
}

func (a *lineAdapter) Normalize(meta Metadata, lines []string) []contracts.RawLog {
	var records []contracts.RawLog

	for _, chunk := range lines {
		a.splitLines(chunk, func(line, message string) {
			ts, ok := extractTimestamp(message, a.formats...)
			if !ok {
				ts = a.clock()
			}

			records = append(records, contracts.RawLog{
				ID:        uuid.NewString(),
				Source:    a.source,
				Timestamp: ts,
				Message:   message,
				Metadata:  copyMetadata(meta),
				RawData:   line,
			})
		})
	}

	return records
}

// FromEvents applies the same split, trim and blank-line rules as Normalize
// to each event's message. Every record keeps the event's time and the
// event's JSON as RawData.
func (a *lineAdapter) FromEvents(events []Event) []contracts.RawLog {
	records := make([]contracts.RawLog, 0, len(events))

	for _, ev := range events {
		ts := ev.Time
		if ts.IsZero() {
			ts = a.clock()
		}

		raw := ""
		if ev.Raw != nil {
			if data, err := json.Marshal(ev.Raw); err == nil {
				raw = string(data)
			}
		}

		a.splitLines(ev.Message, func(line, message string) {
			rawData := raw
			if rawData == "" {
				rawData = line
			}
			records = append(records, contracts.RawLog{
				ID:        uuid.NewString(),
				Source:    a.source,
				Timestamp: ts,
				Message:   message,
				Metadata:  copyMetadata(ev.Metadata),
				RawData:   rawData,
			})
		})
	}

	return records
}

// splitLines calls emit for every non-blank line of text with the line as
// received and its cleaned, trimmed message.
func (a *lineAdapter) splitLines(text string, emit func(line, message string)) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		message := line
		if a.clean != nil {
			message = a.clean(message)
		}
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		emit(line, message)
	}
}

// copyMetadata creates a copy of metadata map, dropping empty values.
func copyMetadata(original Metadata) map[string]string {
	if len(original) == 0 {
		return nil
	}
	out := make(map[string]string, len(original))
	for k, v := range original {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
