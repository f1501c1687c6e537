// Package docker collects container logs and container events from a
// container runtime daemon for the runtime source.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"opslens/src/adapter"
	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/logger"
)

const (
	// TailLines is the number of log lines read per container.
	TailLines = 50

	// EventWindow is how long container events are gathered before the
	// stream is closed.
	EventWindow = time.Second
)

func init() {
	collector.Register(contracts.SourceRuntime, func(log logger.Logger) collector.Collector {
		return New(log, nil)
	})
}

// API is the subset of the daemon client the collector uses.
type API interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error)
	Close() error
}

// ClientFunc builds a daemon client for a request's configuration.
type ClientFunc func(cfg collector.Config) (API, error)

// Collector implements collector.Collector for the container runtime.
type Collector struct {
	log       logger.Logger
	newClient ClientFunc
	now       func() time.Time
}

// New creates a runtime collector. A nil newClient connects to config.host or
// the daemon named by the DOCKER_* environment.
func New(log logger.Logger, newClient ClientFunc) *Collector {
	if newClient == nil {
		newClient = DefaultClient
	}
	return &Collector{
		log:       log,
		newClient: newClient,
		now:       time.Now,
	}
}

// Source returns the runtime source.
func (c *Collector) Source() contracts.Source {
	return contracts.SourceRuntime
}

// Collect reads the tail of every running container and the container events
// of the last EventWindow.
func (c *Collector) Collect(ctx context.Context, cfg collector.Config) ([]collector.Batch, error) {
	cli, err := c.newClient(cfg)
	if err != nil {
		return nil, collector.Unreachable(c.Source(), err)
	}
	defer cli.Close()

	containers, err := cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, collector.Unreachable(c.Source(), fmt.Errorf("failed to list containers: %w", err))
	}

	tail := strconv.Itoa(cfg.Int("tailLines", TailLines))

	var batches []collector.Batch
	for _, ctr := range containers {
		text, err := containerLogs(ctx, cli, ctr.ID, tail)
		if err != nil {
			c.log.Error("[DockerCollector] Failed to read logs for container %s: %v", shortID(ctr.ID), err)
			continue
		}

		batches = append(batches, collector.Batch{
			Metadata: adapter.Metadata{
				"containerId":   ctr.ID,
				"containerName": containerName(ctr.Names),
				"image":         ctr.Image,
				"state":         string(ctr.State),
			},
			Lines: []string{text},
		})
	}

	evs := c.containerEvents(ctx, cli)
	if len(evs) > 0 {
		batches = append(batches, collector.Batch{Events: evs})
	}

	c.log.Debug("[DockerCollector] Collected %d containers and %d events", len(containers), len(evs))
	return batches, nil
}

func containerLogs(ctx context.Context, cli API, id, tail string) (string, error) {
	rc, err := cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
		Tail:       tail,
	})
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// containerEvents gathers container events for EventWindow and then closes the
// subscription.
func (c *Collector) containerEvents(ctx context.Context, cli API) []adapter.Event {
	ctx, cancel := context.WithTimeout(ctx, EventWindow)
	defer cancel()

	now := c.now()
	msgs, errs := cli.Events(ctx, events.ListOptions{
		Since:   strconv.FormatInt(now.Add(-EventWindow).Unix(), 10),
		Until:   strconv.FormatInt(now.Unix(), 10),
		Filters: filters.NewArgs(filters.Arg("type", string(events.ContainerEventType))),
	})

	var out []adapter.Event
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return out
			}
			out = append(out, toEvent(msg))
		case err := <-errs:
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.DeadlineExceeded) {
				c.log.Error("[DockerCollector] Event stream failed: %v", err)
			}
			return out
		case <-ctx.Done():
			return out
		}
	}
}

func toEvent(msg events.Message) adapter.Event {
	name := msg.Actor.Attributes["name"]
	if name == "" {
		name = msg.Actor.ID
	}

	when := time.Unix(msg.Time, 0)
	if msg.TimeNano != 0 {
		when = time.Unix(0, msg.TimeNano)
	}

	return adapter.Event{
		Time:    when.UTC(),
		Message: fmt.Sprintf("Container %s: %s", msg.Action, name),
		Metadata: adapter.Metadata{
			"action":        string(msg.Action),
			"containerId":   msg.Actor.ID,
			"containerName": msg.Actor.Attributes["name"],
			"image":         msg.Actor.Attributes["image"],
		},
		Raw: msg,
	}
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// DefaultClient connects to config.host, or to the daemon named by the
// DOCKER_HOST environment.
func DefaultClient(cfg collector.Config) (API, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host := cfg.String("host"); host != "" {
		opts = append(opts, client.WithHost(host))
	}
	return client.NewClientWithOpts(opts...)
}
