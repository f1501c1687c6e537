package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/ingest"
	"opslens/src/pipeline"
	"opslens/src/render"
)

// collectOutput is one source's entry in --json output.
type collectOutput struct {
	pipeline.Result
	Error string `json:"error,omitempty"`
}

func newCollectCmd(a *app) *cobra.Command {
	var (
		settings map[string]string
		publish  bool
		asJSON   bool
		width    int
	)

	cmd := &cobra.Command{
		Use:   "collect <source>...",
		Short: "Collect and classify logs from one or more sources",
		Long: `Collect logs from orchestrator (kubernetes), runtime (docker), ci (jenkins)
or cloud-log (cloudwatch) and print the classified records. Several sources
are collected concurrently; a failing source does not stop the others.

Collector settings come from the config file and can be overridden per run:

  opslens collect ci --set baseUrl=https://jenkins.example.com --set jobName=deploy

With --publish the raw batches go through the broker instead. In distributed
mode a separate "opslens serve" ingests them; in local mode they are ingested
in-process and the stored records are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromSettings(settings)
			out := cmd.OutOrStdout()

			if publish {
				return publishCollected(cmd, a, args, cfg, asJSON, width)
			}

			reqs := make([]pipeline.Request, len(args))
			for i, source := range args {
				reqs[i] = pipeline.Request{Source: source, Config: cfg}
			}
			results := a.svc.CollectAll(cmd.Context(), reqs)

			if asJSON {
				outputs := make([]collectOutput, len(results))
				for i, res := range results {
					outputs[i] = collectOutput{Result: res}
					if res.Err != nil {
						outputs[i].Error = res.Err.Error()
					}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(outputs); err != nil {
					return err
				}
			} else {
				r := render.New(out, render.WithWidth(width))
				for _, res := range results {
					if res.Err == nil {
						r.Collected(res.Source, res.Logs)
					}
				}
			}

			return collectErrors(results)
		},
	}

	cmd.Flags().StringToStringVar(&settings, "set", nil, "Collector setting as key=value (repeatable, applies to every source)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish raw batches to the broker instead of classifying directly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().IntVar(&width, "width", render.DefaultWidth, "Output width")
	return cmd
}

// collectErrors reports rejected requests. A single failure keeps its hint.
func collectErrors(results []pipeline.Result) error {
	var failed []pipeline.Result
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}

	switch {
	case len(failed) == 0:
		return nil
	case len(results) == 1:
		return describeError(failed[0].Err)
	}

	msgs := make([]string, len(failed))
	for i, res := range failed {
		msgs[i] = fmt.Sprintf("%s: %v", res.Source, describeError(res.Err))
	}
	return fmt.Errorf("%d of %d sources failed:\n%s", len(failed), len(results), strings.Join(msgs, "\n"))
}

func publishCollected(cmd *cobra.Command, a *app, sources []string, cfg collector.Config, asJSON bool, width int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	brk, err := pipeline.NewBroker(a.cfg, a.log)
	if err != nil {
		return err
	}
	defer brk.Close()

	local := pipeline.DetectMode(a.cfg) == pipeline.LocalMode
	var ingested <-chan struct{}
	if local {
		ingested = pipeline.Start(ctx, brk, a.svc, a.cfg, a.log)
	}

	requestID := uuid.NewString()
	published := make([]string, 0, len(sources))
	for _, source := range sources {
		src, batches, err := a.svc.Fetch(ctx, source, cfg)
		if err != nil {
			return describeError(err)
		}

		n, err := ingest.Publish(ctx, brk, a.cfg.Broker.Topic, requestID, src, batches)
		if err != nil {
			return err
		}
		published = append(published, string(src))
		if !asJSON {
			fmt.Fprintf(out, "Published %d chunks from %s (request %s)\n", n, src, requestID)
		}
	}

	if !local {
		return nil
	}

	// Closing the in-memory broker lets the agent finish what is buffered.
	brk.Close()
	<-ingested

	logs := a.svc.Store().All()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(logs)
	}
	render.New(out, render.WithWidth(width)).Collected(contracts.Source(strings.Join(published, ",")), logs)
	return nil
}

// configFromSettings converts --set pairs to a collector config. Values stay
// strings; collectors parse numbers themselves.
func configFromSettings(settings map[string]string) collector.Config {
	cfg := make(collector.Config, len(settings))
	for k, v := range settings {
		cfg[k] = v
	}
	return cfg
}

// describeError adds the hint of a user error to its message.
func describeError(err error) error {
	if userErr, ok := collector.AsUserError(err); ok && userErr.Hint != "" {
		return fmt.Errorf("%s\nHint: %s", userErr.Message, userErr.Hint)
	}
	return err
}
