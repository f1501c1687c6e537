package ingest

import (
	"strings"
	"testing"
	"time"

	"opslens/src/adapter"
	"opslens/src/collector"
	"opslens/src/contracts"
)

func TestChunkLines_SmallContent(t *testing.T) {
	chunks := ChunkLines("req-1", contracts.SourceCI, nil, []string{"line1\nline2\n\nline3"})

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk for small content, got %d", len(chunks))
	}

	chunk := chunks[0]
	if got := strings.Join(chunk.Lines, "|"); got != "line1|line2|line3" {
		t.Errorf("Lines = %q", got)
	}
	if chunk.ChunkIndex != 0 || chunk.TotalChunks != 1 {
		t.Errorf("ChunkIndex/TotalChunks = %d/%d, want 0/1", chunk.ChunkIndex, chunk.TotalChunks)
	}
	if chunk.Source != "ci" || chunk.RequestID != "req-1" {
		t.Errorf("Source/RequestID = %q/%q", chunk.Source, chunk.RequestID)
	}
	if chunk.Timestamp == "" {
		t.Error("Timestamp not set")
	}
}

func TestChunkLines_EmptyContent(t *testing.T) {
	for _, lines := range [][]string{nil, {""}, {"  \n\n"}} {
		if chunks := ChunkLines("req-1", contracts.SourceCI, nil, lines); len(chunks) != 0 {
			t.Errorf("ChunkLines(%q) returned %d chunks, want 0", lines, len(chunks))
		}
	}
}

func TestChunkLines_LargeContent(t *testing.T) {
	lineContent := strings.Repeat("a", 1000) // 1KB per line
	var lines []string
	for i := 0; i < 600; i++ { // 600KB total
		lines = append(lines, lineContent)
	}

	chunks := ChunkLines("req-1", contracts.SourceRuntime, nil, lines)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks for 600KB, got %d", len(chunks))
	}

	total := 0
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("Chunk %d: index %d", i, chunk.ChunkIndex)
		}
		if chunk.TotalChunks != len(chunks) {
			t.Errorf("Chunk %d: total %d, want %d", i, chunk.TotalChunks, len(chunks))
		}
		size := 0
		for _, l := range chunk.Lines {
			size += len(l) + 1
		}
		if size > TargetChunkSize {
			t.Errorf("Chunk %d: size %d exceeds target", i, size)
		}
		total += len(chunk.Lines)
	}
	if total != 600 {
		t.Errorf("lines across chunks = %d, want 600 (no overlap, no loss)", total)
	}
}

func TestChunkLines_OversizedLine(t *testing.T) {
	big := strings.Repeat("x", TargetChunkSize+10)
	chunks := ChunkLines("req-1", contracts.SourceCI, nil, []string{"a", big, "b"})

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[1].Lines) != 1 || chunks[1].Lines[0] != big {
		t.Error("oversized line should be alone in its chunk")
	}
}

func TestChunkLines_Metadata(t *testing.T) {
	metadata := map[string]string{"jobName": "api", "buildNumber": "42"}

	var lines []string
	for i := 0; i < 1100; i++ {
		lines = append(lines, strings.Repeat("y", 1000))
	}
	chunks := ChunkLines("req-1", contracts.SourceCI, metadata, lines)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	chunks[0].Metadata["jobName"] = "changed"
	for i, chunk := range chunks[1:] {
		if chunk.Metadata["jobName"] != "api" || chunk.Metadata["buildNumber"] != "42" {
			t.Errorf("Chunk %d: Metadata = %v", i+1, chunk.Metadata)
		}
	}
	if metadata["jobName"] != "api" {
		t.Error("caller metadata was modified")
	}
}

func TestChunkBatches_Events(t *testing.T) {
	when := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	batches := []collector.Batch{
		{Metadata: adapter.Metadata{"jobName": "api"}, Lines: []string{"console line"}},
		{Events: []adapter.Event{
			{Time: when, Message: "Job api - Build #1: FAILURE", Metadata: adapter.Metadata{"jobName": "api"}},
			{Message: "Job web - Build #2:\nSUCCESS", Metadata: adapter.Metadata{"jobName": "web"}},
			{Time: when, Message: "Job api - Build #3: SUCCESS", Metadata: adapter.Metadata{"jobName": "api"}},
		}},
	}

	msgs := ChunkBatches("req-1", contracts.SourceCI, batches)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}

	if msgs[1].Metadata["jobName"] != "api" || len(msgs[1].Lines) != 2 {
		t.Fatalf("api events message = %+v", msgs[1])
	}
	if want := "2024-01-01T12:00:00Z Job api - Build #1: FAILURE"; msgs[1].Lines[0] != want {
		t.Errorf("Lines[0] = %q, want %q", msgs[1].Lines[0], want)
	}
	if want := "Job web - Build #2: SUCCESS"; msgs[2].Lines[0] != want {
		t.Errorf("web Lines[0] = %q, want %q", msgs[2].Lines[0], want)
	}
}

func TestFormatChunkInfo(t *testing.T) {
	chunk := ChunkLines("req-1", contracts.SourceCI, nil, []string{"line1\nline2"})[0]

	if got, want := FormatChunkInfo(chunk), "Chunk 1/1: ci, 2 lines"; got != want {
		t.Errorf("FormatChunkInfo() = %q, want %q", got, want)
	}
}
