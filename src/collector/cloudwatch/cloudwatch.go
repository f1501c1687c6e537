// Package cloudwatch collects log events from a cloud log service for the
// cloud-log source.
package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"opslens/src/adapter"
	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/logger"
)

const (
	// MaxLogGroups is the number of log groups read per collection.
	MaxLogGroups = 5

	// MaxStreams is the number of most recently active streams read per group.
	MaxStreams = 10

	// EventsPerGroup is split evenly across a group's streams.
	EventsPerGroup = 50
)

func init() {
	collector.Register(contracts.SourceCloudLog, func(log logger.Logger) collector.Collector {
		return New(log, nil)
	})
}

// API is the subset of the CloudWatch Logs client the collector uses.
type API interface {
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// ClientFunc builds a client for a request's configuration.
type ClientFunc func(ctx context.Context, cfg collector.Config) (API, error)

// Collector implements collector.Collector for CloudWatch Logs.
type Collector struct {
	log       logger.Logger
	newClient ClientFunc
}

// New creates a cloud-log collector. A nil newClient uses DefaultClient.
func New(log logger.Logger, newClient ClientFunc) *Collector {
	if newClient == nil {
		newClient = DefaultClient
	}
	return &Collector{log: log, newClient: newClient}
}

// Source returns the cloud-log source.
func (c *Collector) Source() contracts.Source {
	return contracts.SourceCloudLog
}

// Collect reads the most recent events of the most recently active streams of
// the first MaxLogGroups log groups.
//
// Required config: region. Optional: accessKeyId, secretAccessKey.
func (c *Collector) Collect(ctx context.Context, cfg collector.Config) ([]collector.Batch, error) {
	if err := cfg.Validate(c.Source()); err != nil {
		return nil, err
	}

	client, err := c.newClient(ctx, cfg)
	if err != nil {
		return nil, collector.Unreachable(c.Source(), err)
	}

	groups, err := client.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		Limit: aws.Int32(MaxLogGroups),
	})
	if err != nil {
		return nil, collector.Unreachable(c.Source(), fmt.Errorf("failed to list log groups: %w", err))
	}

	var batches []collector.Batch
	for i, group := range groups.LogGroups {
		if i >= MaxLogGroups {
			break
		}
		name := aws.ToString(group.LogGroupName)
		if name == "" {
			continue
		}

		events, err := c.groupEvents(ctx, client, name)
		if err != nil {
			c.log.Error("[CloudWatchCollector] Failed to read log group %s: %v", name, err)
			continue
		}
		if len(events) > 0 {
			batches = append(batches, collector.Batch{Events: events})
		}
	}

	c.log.Debug("[CloudWatchCollector] Collected %d log groups", len(batches))
	return batches, nil
}

func (c *Collector) groupEvents(ctx context.Context, client API, group string) ([]adapter.Event, error) {
	streams, err := client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(group),
		OrderBy:      types.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(MaxStreams),
	})
	if err != nil {
		return nil, err
	}
	if len(streams.LogStreams) == 0 {
		return nil, nil
	}

	perStream := EventsPerGroup / len(streams.LogStreams)
	if perStream < 1 {
		perStream = 1
	}

	var events []adapter.Event
	for _, stream := range streams.LogStreams {
		name := aws.ToString(stream.LogStreamName)
		if name == "" {
			continue
		}

		out, err := client.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(group),
			LogStreamName: aws.String(name),
			Limit:         aws.Int32(int32(perStream)),
			StartFromHead: aws.Bool(false),
		})
		if err != nil {
			c.log.Error("[CloudWatchCollector] Failed to read stream %s/%s: %v", group, name, err)
			continue
		}

		for _, ev := range out.Events {
			events = append(events, toEvent(group, name, ev))
		}
	}
	return events, nil
}

func toEvent(group, stream string, ev types.OutputLogEvent) adapter.Event {
	var when time.Time
	if ev.Timestamp != nil {
		when = time.UnixMilli(*ev.Timestamp).UTC()
	}
	return adapter.Event{
		Time:    when,
		Message: aws.ToString(ev.Message),
		Metadata: adapter.Metadata{
			"logGroup":  group,
			"logStream": stream,
		},
		Raw: ev,
	}
}

// DefaultClient loads the shared AWS configuration for config.region, with
// static credentials when accessKeyId and secretAccessKey are both set.
func DefaultClient(ctx context.Context, cfg collector.Config) (API, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.String("region")),
	}
	if id, secret := cfg.String("accessKeyId"), cfg.String("secretAccessKey"); id != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, cfg.String("sessionToken")),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cloudwatchlogs.NewFromConfig(awsCfg), nil
}
