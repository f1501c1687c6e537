// Package ingest moves raw log batches over the broker: the Agent consumes
// them into a pipeline, and Publish pushes collected batches onto the topic.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"opslens/src/broker"
	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/logger"
)

// DefaultGroupID is the consumer group of ingest agents.
const DefaultGroupID = "opslens-ingest"

// Sink normalizes, classifies and stores a source's batches.
// *pipeline.Service satisfies it.
type Sink interface {
	Ingest(source contracts.Source, batches []collector.Batch) []contracts.ClassifiedLog
}

// Agent consumes raw batch messages and hands them to a Sink.
type Agent struct {
	broker  broker.Broker
	sink    Sink
	topic   string
	groupID string
	logger  logger.Logger
}

// NewAgent creates a new ingest agent. Empty topic or groupID use
// contracts.TopicLogsRaw and DefaultGroupID.
func NewAgent(brk broker.Broker, sink Sink, topic, groupID string, log logger.Logger) *Agent {
	if topic == "" {
		topic = contracts.TopicLogsRaw
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}
	return &Agent{
		broker:  brk,
		sink:    sink,
		topic:   topic,
		groupID: groupID,
		logger:  log,
	}
}

// Topic returns the topic the agent consumes.
func (a *Agent) Topic() string {
	return a.topic
}

// Run starts the agent's main loop and blocks until ctx is done or the
// subscription closes.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("[IngestAgent] Starting...")

	msgChan, err := a.broker.Subscribe(ctx, a.topic, a.groupID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", a.topic, err)
	}

	a.logger.Info("[IngestAgent] Listening for raw batches on '%s' topic...", a.topic)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				a.logger.Info("[IngestAgent] Message channel closed, shutting down")
				return nil
			}

			if _, err := a.processMessage(msg); err != nil {
				a.logger.Error("[IngestAgent] Skipping message at offset %d: %v", msg.Offset, err)
			}

		case <-ctx.Done():
			a.logger.Info("[IngestAgent] Context cancelled, shutting down")
			return ctx.Err()
		}
	}
}

// processMessage stores one raw batch and returns the number of records.
func (a *Agent) processMessage(msg broker.Message) (int, error) {
	var batch contracts.RawBatchMessage
	if err := json.Unmarshal(msg.Value, &batch); err != nil {
		return 0, fmt.Errorf("failed to unmarshal raw batch: %w", err)
	}

	source, err := contracts.ParseSource(batch.Source)
	if err != nil {
		return 0, err
	}

	logs := a.sink.Ingest(source, []collector.Batch{{
		Metadata: batch.Metadata,
		Lines:    batch.Lines,
	}})

	a.logger.Debug("[IngestAgent] Request %s: stored %d logs (%s)",
		batch.RequestID, len(logs), FormatChunkInfo(batch))

	return len(logs), nil
}

// Publish chunks collected batches and publishes them to topic, keyed by
// source so one source's batches stay ordered. Returns the number of
// messages published.
func Publish(ctx context.Context, brk broker.Broker, topic, requestID string, source contracts.Source, batches []collector.Batch) (int, error) {
	if topic == "" {
		topic = contracts.TopicLogsRaw
	}

	published := 0
	for _, msg := range ChunkBatches(requestID, source, batches) {
		data, err := json.Marshal(msg)
		if err != nil {
			return published, fmt.Errorf("failed to marshal raw batch: %w", err)
		}
		if err := brk.Publish(ctx, topic, string(source), data); err != nil {
			return published, fmt.Errorf("failed to publish raw batch: %w", err)
		}
		published++
	}
	return published, nil
}
