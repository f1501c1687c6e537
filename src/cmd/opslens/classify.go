package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"opslens/src/adapter"
	"opslens/src/analytics"
	"opslens/src/classify"
	"opslens/src/collector"
	"opslens/src/contracts"
	"opslens/src/render"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

func newClassifyCmd(a *app) *cobra.Command {
	var (
		source  string
		asJSON  bool
		summary bool
		width   int
	)

	cmd := &cobra.Command{
		Use:   "classify [file...]",
		Short: "Classify log lines from files or stdin",
		Long: `Run log lines through a source adapter and the classification rules
without contacting any upstream system. Reads stdin when no file is given.

  kubectl logs deploy/api | opslens classify --source orchestrator --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := contracts.ParseSource(source)
			if err != nil {
				return fmt.Errorf("invalid --source %q: %w", source, err)
			}

			var batches []collector.Batch
			if len(args) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				batches = append(batches, collector.Batch{Metadata: adapter.Metadata{"file": "stdin"}, Lines: lines})
			}
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				lines, err := readLines(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				batches = append(batches, collector.Batch{Metadata: adapter.Metadata{"file": path}, Lines: lines})
			}

			logs := a.svc.Ingest(src, batches)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if summary {
					return enc.Encode(analytics.Summarize(logs, time.Now()))
				}
				return enc.Encode(logs)
			}

			r := render.New(out, render.WithWidth(width))
			if summary {
				r.Summary(analytics.Summarize(logs, time.Now()))
				return nil
			}
			r.Logs(logs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", string(contracts.SourceCI), "Source adapter to parse lines with")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print analytics instead of individual records")
	cmd.Flags().IntVar(&width, "width", render.DefaultWidth, "Output width")
	return cmd
}

func newRulesCmd(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the classification rules in evaluation order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			render.New(cmd.OutOrStdout(), render.WithWidth(width)).Rules(classify.Rules())
		},
	}

	cmd.Flags().IntVar(&width, "width", render.DefaultWidth, "Output width")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
