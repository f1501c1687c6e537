// Package collector defines the boundary to the upstream systems logs are
// pulled from. Each source has one Collector implementation, registered from
// its own subpackage.
package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"opslens/src/adapter"
	"opslens/src/contracts"
	"opslens/src/logger"
)

// Batch is the output of one upstream unit (a pod, a container, a build, a
// log stream): raw text lines sharing metadata plus already-structured events.
type Batch struct {
	Metadata adapter.Metadata
	Lines    []string
	Events   []adapter.Event
}

// Collector pulls raw output from one upstream system.
type Collector interface {
	// Source returns the source this collector feeds.
	Source() contracts.Source

	// Collect fetches a time-bounded snapshot. Failures to reach the upstream
	// are returned wrapped in ErrSourceUnreachable.
	Collect(ctx context.Context, cfg Config) ([]Batch, error)
}

// Factory builds a Collector.
type Factory func(log logger.Logger) Collector

var (
	registryMu sync.RWMutex
	registry   = make(map[contracts.Source]Factory)
)

// Register makes a collector factory available for source.
// Subpackages call it from init.
func Register(source contracts.Source, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[source] = factory
}

// Get builds the registered collector for source.
func Get(source contracts.Source, log logger.Logger) (Collector, error) {
	registryMu.RLock()
	factory, ok := registry[source]
	registryMu.RUnlock()

	if !ok {
		return nil, &UserError{
			Message: fmt.Sprintf("No collector available for source %s", source),
			Hint:    "This build collects from: " + joinSources(Registered()),
			Err:     fmt.Errorf("%w: %s", ErrUnknownSource, source),
		}
	}
	return factory(log), nil
}

// Registered lists the sources with a registered collector, sorted.
func Registered() []contracts.Source {
	registryMu.RLock()
	defer registryMu.RUnlock()

	sources := make([]contracts.Source, 0, len(registry))
	for s := range registry {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
