// Package pipeline wires collectors, adapters, the classifier and the store
// together. It is shared by the HTTP server, the CLI and the MCP server.
package pipeline

import (
	"context"
	"errors"
	"time"

	"opslens/src/broker"
	"opslens/src/config"
	"opslens/src/ingest"
	"opslens/src/logger"
)

// Mode selects how raw batches reach the store.
type Mode int

const (
	// LocalMode keeps everything in-process. Published batches travel over
	// an in-memory broker to an ingest agent in the same process.
	LocalMode Mode = iota
	// DistributedMode consumes raw batches from Redpanda.
	DistributedMode
)

func (m Mode) String() string {
	switch m {
	case LocalMode:
		return "local"
	case DistributedMode:
		return "distributed"
	}
	return "unknown"
}

// subscribePoll is how often Start checks for the agent's subscription.
const subscribePoll = 5 * time.Millisecond

// DetectMode returns DistributedMode when broker addresses are configured.
func DetectMode(cfg *config.Config) Mode {
	if len(cfg.Broker.Brokers) > 0 {
		return DistributedMode
	}
	return LocalMode
}

// NewBroker creates the broker for the configured mode: Redpanda in
// DistributedMode, an InMemoryBroker in LocalMode.
func NewBroker(cfg *config.Config, log logger.Logger) (broker.Broker, error) {
	return broker.New(cfg.Broker.Brokers, broker.WithLogger(log))
}

// Start runs an ingest agent feeding svc as a goroutine until ctx is done or
// the broker is closed. The returned channel is closed when the agent exits.
//
// On an InMemoryBroker, which does not retain messages, Start returns only
// once the agent is subscribed, so everything published afterwards is
// ingested. Closing the broker then drains the agent.
func Start(ctx context.Context, brk broker.Broker, svc *Service, cfg *config.Config, log logger.Logger) <-chan struct{} {
	agent := ingest.NewAgent(brk, svc, cfg.Broker.Topic, cfg.Broker.GroupID, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("[Pipeline] Ingest agent error: %v", err)
		}
	}()

	if mem, ok := brk.(*broker.InMemoryBroker); ok {
		waitSubscribed(ctx, mem, agent.Topic(), done)
	}
	return done
}

func waitSubscribed(ctx context.Context, mem *broker.InMemoryBroker, topic string, done <-chan struct{}) {
	ticker := time.NewTicker(subscribePoll)
	defer ticker.Stop()

	for mem.SubscriberCount(topic) == 0 {
		select {
		case <-ticker.C:
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
