package jenkins

import (
	"context"
	"fmt"
	"strconv"

	"opslens/src/adapter"
	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/logger"
)

// DefaultMaxConsoleLogs bounds how many failed builds have their console
// output fetched per collection.
const DefaultMaxConsoleLogs = 5

func init() {
	collector.Register(contracts.SourceCI, func(log logger.Logger) collector.Collector {
		return NewCollector(log)
	})
}

// Collector implements collector.Collector for Jenkins.
type Collector struct {
	log logger.Logger
}

// NewCollector creates a Jenkins collector.
func NewCollector(log logger.Logger) *Collector {
	return &Collector{log: log}
}

// Source returns the CI source.
func (c *Collector) Source() contracts.Source {
	return contracts.SourceCI
}

// Collect reports the status of every job's last build as an event and reads
// the console output of failed or unstable last builds.
//
// Required config: baseUrl. Optional: username, apiToken, maxConsoleLogs.
func (c *Collector) Collect(ctx context.Context, cfg collector.Config) ([]collector.Batch, error) {
	if err := cfg.Validate(c.Source()); err != nil {
		return nil, err
	}

	client := NewClient(cfg.String("baseUrl"), cfg.String("username"), cfg.String("apiToken"))

	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return nil, collector.Unreachable(c.Source(), err)
	}

	maxConsole := cfg.Int("maxConsoleLogs", DefaultMaxConsoleLogs)

	var (
		status  []adapter.Event
		batches []collector.Batch
	)
	for _, job := range jobs {
		if job.LastBuild == nil {
			continue
		}
		build := *job.LastBuild
		result := build.Result
		if result == "" {
			result = "IN_PROGRESS"
		}

		status = append(status, adapter.Event{
			Time:    build.Time(),
			Message: fmt.Sprintf("Job %s - Build #%d: %s", job.Name, build.Number, result),
			Metadata: adapter.Metadata{
				"jobName":     job.Name,
				"buildNumber": strconv.Itoa(build.Number),
				"result":      result,
			},
			Raw: job,
		})

		if !failed(result) || len(batches) >= maxConsole {
			continue
		}

		text, err := client.ConsoleText(ctx, job.Name, build.Number)
		if err != nil {
			c.log.Error("[JenkinsCollector] Failed to fetch console for %s #%d: %v", job.Name, build.Number, err)
			continue
		}
		batches = append(batches, collector.Batch{
			Metadata: adapter.Metadata{
				"jobName":     job.Name,
				"buildNumber": strconv.Itoa(build.Number),
			},
			Lines: []string{text},
		})
	}

	if len(status) > 0 {
		batches = append(batches, collector.Batch{Events: status})
	}

	c.log.Debug("[JenkinsCollector] Collected %d jobs", len(jobs))
	return batches, nil
}

func failed(result string) bool {
	return result == "FAILURE" || result == "UNSTABLE"
}
