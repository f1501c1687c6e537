package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"opslens/src/adapter"
	"opslens/src/collector"
	"opslens/src/contracts"
)

// TargetChunkSize is the target payload size of each published message (500KB).
const TargetChunkSize = 500 * 1024

// ChunkLines splits lines into messages of at most TargetChunkSize bytes of
// line content. A single line larger than the target gets its own message.
// Blank lines are dropped; every message carries its own copy of metadata.
func ChunkLines(requestID string, source contracts.Source, metadata map[string]string, lines []string) []contracts.RawBatchMessage {
	var all []string
	for _, chunk := range lines {
		for _, line := range strings.Split(chunk, "\n") {
			if strings.TrimSpace(line) != "" {
				all = append(all, line)
			}
		}
	}
	if len(all) == 0 {
		return []contracts.RawBatchMessage{}
	}

	var (
		chunks      []contracts.RawBatchMessage
		current     []string
		currentSize int
	)
	flush := func() {
		chunks = append(chunks, contracts.RawBatchMessage{
			RequestID:  requestID,
			Source:     string(source),
			Metadata:   copyMetadata(metadata),
			Lines:      current,
			ChunkIndex: len(chunks),
		})
		current = nil
		currentSize = 0
	}

	for _, line := range all {
		lineSize := len(line) + 1 // +1 for newline
		if currentSize+lineSize > TargetChunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, line)
		currentSize += lineSize
	}
	flush()

	stamp := time.Now().UTC().Format(time.RFC3339)
	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
		chunks[i].Timestamp = stamp
	}
	return chunks
}

// ChunkBatches converts collected batches into broker messages. Structured
// events become lines prefixed with their RFC 3339 time, grouped by identical
// metadata, so the receiving adapter recovers both.
func ChunkBatches(requestID string, source contracts.Source, batches []collector.Batch) []contracts.RawBatchMessage {
	msgs := []contracts.RawBatchMessage{}
	for _, b := range batches {
		if len(b.Lines) > 0 {
			msgs = append(msgs, ChunkLines(requestID, source, b.Metadata, b.Lines)...)
		}
		for _, group := range groupEvents(b.Events) {
			msgs = append(msgs, ChunkLines(requestID, source, group.metadata, group.lines)...)
		}
	}
	return msgs
}

type eventGroup struct {
	metadata adapter.Metadata
	lines    []string
}

func groupEvents(events []adapter.Event) []*eventGroup {
	var (
		groups []*eventGroup
		byKey  = make(map[string]*eventGroup)
	)
	for _, ev := range events {
		key := metadataKey(ev.Metadata)
		g, ok := byKey[key]
		if !ok {
			g = &eventGroup{metadata: ev.Metadata}
			byKey[key] = g
			groups = append(groups, g)
		}
		line := strings.ReplaceAll(ev.Message, "\n", " ")
		if !ev.Time.IsZero() {
			line = ev.Time.UTC().Format(time.RFC3339Nano) + " " + line
		}
		g.lines = append(g.lines, line)
	}
	return groups
}

func metadataKey(meta adapter.Metadata) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(meta[k])
		sb.WriteByte(0)
	}
	return sb.String()
}

// copyMetadata creates a copy of the metadata map.
func copyMetadata(original map[string]string) map[string]string {
	out := make(map[string]string, len(original))
	for k, v := range original {
		out[k] = v
	}
	return out
}

// FormatChunkInfo returns a human-readable summary of a message.
func FormatChunkInfo(msg contracts.RawBatchMessage) string {
	return fmt.Sprintf("Chunk %d/%d: %s, %d lines",
		msg.ChunkIndex+1,
		msg.TotalChunks,
		msg.Source,
		len(msg.Lines))
}
