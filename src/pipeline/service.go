package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"opslens/src/adapter"
	"opslens/src/classify"
	"opslens/src/collector"
	"opslens/src/config"
	"opslens/src/contracts"
	"opslens/src/logger"
	"opslens/src/metrics"
	"opslens/src/store"
)

// LookupFunc resolves the collector for a source.
type LookupFunc func(source contracts.Source, log logger.Logger) (collector.Collector, error)

// DefaultsFunc returns the configured collector defaults for a source.
type DefaultsFunc func(source contracts.Source) map[string]any

// Request asks for one collection.
type Request struct {
	Source string           `json:"source"`
	Config collector.Config `json:"config"`
}

// Result is the outcome of one collection.
type Result struct {
	Source    contracts.Source          `json:"source"`
	Collected int                       `json:"collected"`
	Analyzed  int                       `json:"analyzed"`
	Logs      []contracts.ClassifiedLog `json:"logs"`
	// Err is set when the request was rejected (CollectAll only).
	Err error `json:"-"`
}

// Service runs collect → normalize → classify → append against one store.
type Service struct {
	store    store.Store
	log      logger.Logger
	metrics  *metrics.Metrics
	lookup   LookupFunc
	defaults DefaultsFunc
	clock    adapter.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records collection and classification counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLookup replaces the collector registry lookup.
func WithLookup(lookup LookupFunc) Option {
	return func(s *Service) { s.lookup = lookup }
}

// WithDefaults supplies per-source collector defaults merged under request config.
func WithDefaults(defaults DefaultsFunc) Option {
	return func(s *Service) { s.defaults = defaults }
}

// WithClock sets the fallback timestamp source for adapters.
func WithClock(clock adapter.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates a pipeline service appending to st.
func NewService(st store.Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		log:      log,
		lookup:   collector.Get,
		defaults: func(contracts.Source) map[string]any { return nil },
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig builds the service every binary runs: a store sized from
// cfg.Store.Capacity reporting to m, and collector defaults from cfg. m may be nil.
func NewFromConfig(cfg *config.Config, log logger.Logger, m *metrics.Metrics) *Service {
	st := store.NewInMemoryStore(cfg.Store.Capacity, store.WithAppendHook(m.ObserveStore))
	return NewService(st, log,
		WithMetrics(m),
		WithDefaults(func(src contracts.Source) map[string]any {
			return cfg.CollectorDefaults(string(src))
		}),
	)
}

// Store returns the store the service appends to.
func (s *Service) Store() store.Store {
	return s.store
}

// Collect fetches from the named source and stores the classified result.
//
// Invalid requests (unknown source, missing required config) return a
// *collector.UserError. A source that cannot be reached
// (collector.ErrSourceUnreachable) is logged and yields an empty result with
// a nil error. Any other collector error is returned as is.
func (s *Service) Collect(ctx context.Context, source string, cfg collector.Config) (Result, error) {
	src, batches, err := s.Fetch(ctx, source, cfg)
	if err != nil {
		return Result{}, err
	}

	logs := s.Ingest(src, batches)
	s.log.Info("[Pipeline] Stored %d logs from %s", len(logs), src)

	return Result{
		Source:    src,
		Collected: len(logs),
		Analyzed:  len(logs),
		Logs:      logs,
	}, nil
}

// Fetch resolves the source and its collector, merges configured defaults
// under cfg and collects raw batches without storing anything. Errors follow
// Collect; an unreachable source returns no batches and a nil error.
func (s *Service) Fetch(ctx context.Context, source string, cfg collector.Config) (contracts.Source, []collector.Batch, error) {
	src, err := contracts.ParseSource(source)
	if err != nil {
		return "", nil, collector.WrapError(fmt.Errorf("%w: %s", collector.ErrUnknownSource, source))
	}

	c, err := s.lookup(src, s.log)
	if err != nil {
		return src, nil, collector.WrapError(err)
	}

	merged := cfg.WithDefaults(s.defaults(src))
	if err := merged.Validate(src); err != nil {
		return src, nil, collector.WrapError(err)
	}

	s.log.Info("[Pipeline] Collecting logs from %s", src)

	batches, err := c.Collect(ctx, merged)
	if err != nil {
		s.metrics.ObserveCollectError(src)
		if errors.Is(err, collector.ErrSourceUnreachable) {
			s.log.Error("[Pipeline] Collection from %s failed: %v", src, err)
			return src, nil, nil
		}
		return src, nil, collector.WrapError(err)
	}
	return src, batches, nil
}

// CollectAll runs one collection per request concurrently. A failing request
// never cancels the others; its Result carries the error and no logs.
func (s *Service) CollectAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Collect(ctx, req.Source, req.Config)
			if err != nil {
				s.log.Error("[Pipeline] Rejected %s request: %v", req.Source, err)
				res = Result{Source: contracts.Source(req.Source), Logs: []contracts.ClassifiedLog{}, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Ingest normalizes, classifies and stores already-collected batches as a
// single append.
func (s *Service) Ingest(source contracts.Source, batches []collector.Batch) []contracts.ClassifiedLog {
	raws, err := Normalize(source, batches, adapter.WithClock(s.clock))
	if err != nil {
		s.log.Error("[Pipeline] %v", err)
		return []contracts.ClassifiedLog{}
	}
	s.metrics.ObserveCollected(source, len(raws))

	logs := classify.Batch(raws)
	s.metrics.ObserveClassified(logs)

	s.store.Append(logs)
	return logs
}

// Normalize converts collector batches into canonical records using the
// source's adapter, keeping batch order.
func Normalize(source contracts.Source, batches []collector.Batch, opts ...adapter.Option) ([]contracts.RawLog, error) {
	a, err := adapter.For(source, opts...)
	if err != nil {
		return nil, err
	}

	raws := []contracts.RawLog{}
	for _, b := range batches {
		if len(b.Lines) > 0 {
			raws = append(raws, a.Normalize(b.Metadata, b.Lines)...)
		}
		if len(b.Events) > 0 {
			raws = append(raws, a.FromEvents(b.Events)...)
		}
	}
	return raws, nil
}
