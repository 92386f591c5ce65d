/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chainguard.dev/ragjudge/evaluation/dataset"
	"chainguard.dev/ragjudge/evaluation/evaluator"
	"chainguard.dev/ragjudge/evaluation/judge"
	"chainguard.dev/ragjudge/evaluation/metric"
	"chainguard.dev/ragjudge/evaluation/report"
	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const defaultDataset = "esn_qa_dataset"

// resolveDataset maps a bare dataset name to datasets/<name>.csv and leaves
// anything that looks like a path alone.
func resolveDataset(nameOrPath string) string {
	if strings.ContainsRune(nameOrPath, filepath.Separator) || strings.Contains(nameOrPath, "/") || filepath.Ext(nameOrPath) != "" {
		return nameOrPath
	}
	return filepath.Join("datasets", nameOrPath+".csv")
}

// parseMetrics parses a comma separated metric list. Empty means all.
func parseMetrics(list string) ([]metric.Name, error) {
	if strings.TrimSpace(list) == "" {
		return metric.All(), nil
	}
	var out []metric.Name
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, err := metric.Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// csvSibling returns the CSV export path next to a JSON results path.
func csvSibling(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".csv"
}

type runOptions struct {
	dataset     string
	model       string
	maxSamples  int
	output      string
	metrics     string
	structured  bool
	noSave      bool
	estimate    bool
	metricsAddr string
	threshold   float64
}

func buildRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a dataset",
		Example: `  # Evaluate the first ten samples of datasets/esn_qa_dataset.csv
  ragjudge run --max-samples 10

  # Only correctness and faithfulness, judged by Claude
  ragjudge run --dataset ./qa.yaml --model claude-haiku-4-5 --metrics correctness,faithfulness`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluation(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataset, "dataset", defaultDataset, "Dataset name under datasets/ or a path to a .csv, .json or .yaml file")
	cmd.Flags().StringVar(&opts.model, "model", judge.DefaultModel, "Judge model")
	cmd.Flags().IntVar(&opts.maxSamples, "max-samples", 0, "Evaluate at most this many samples (0 for all)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Results JSON path (default: a new file in --results-dir)")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "Comma separated metrics to run (default: all)")
	cmd.Flags().BoolVar(&opts.structured, "structured", false, "Ask the judge for a JSON verdict")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not write results to disk")
	cmd.Flags().BoolVar(&opts.estimate, "estimate", false, "Print the estimated judge cost and exit")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0.7, "Flag metrics whose average is below this score")
	return cmd
}

func runEvaluation(ctx context.Context, stdout, stderr io.Writer, root *rootOptions, opts *runOptions) error {
	metrics, err := parseMetrics(opts.metrics)
	if err != nil {
		return err
	}
	datasetPath := resolveDataset(opts.dataset)

	if opts.estimate {
		ds, err := dataset.Load(ctx, datasetPath)
		if err != nil {
			return err
		}
		cost := judge.EstimateCost(len(ds.Truncate(opts.maxSamples)), len(metrics))
		fmt.Fprintf(stdout, "%d judge calls, ~%d input / ~%d output tokens, ~$%.4f\n",
			cost.Calls, cost.InputTokens, cost.OutputTokens, cost.USD)
		return nil
	}

	env, err := loadEnv(ctx)
	if err != nil {
		return fmt.Errorf("processing environment: %w", err)
	}
	jc, err := env.judgeConfig(opts.model)
	if err != nil {
		return err
	}
	jc.Structured = opts.structured

	cfg := evaluator.Config{
		DatasetPath:  datasetPath,
		ModelName:    opts.model,
		Judge:        jc,
		MetricsToRun: metrics,
		MaxSamples:   opts.maxSamples,
		SaveResults:  !opts.noSave,
	}
	if cfg.SaveResults {
		cfg.OutputPath = opts.output
		if cfg.OutputPath == "" {
			name := strings.TrimSuffix(filepath.Base(datasetPath), filepath.Ext(datasetPath))
			cfg.OutputPath = root.store().Path(name, time.Now())
		}
		cfg.CSVPath = csvSibling(cfg.OutputPath)
	}

	if opts.metricsAddr != "" {
		stop := serveMetrics(ctx, opts.metricsAddr)
		defer stop()
	}

	progress := make(chan evaluator.Progress)
	ev, err := evaluator.NewFromConfig(ctx, cfg, evaluator.WithProgressChannel(progress))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range progress {
			fmt.Fprintf(stderr, "\r%s", renderProgress(p))
		}
		fmt.Fprintln(stderr)
	}()

	clog.InfoContextf(ctx, "Evaluating %s with %s", datasetPath, cfg.JudgeConfig().Model)
	summary, err := ev.Evaluate(ctx, nil)
	close(progress)
	wg.Wait()

	var perr *evaluator.PersistenceError
	switch {
	case err == nil:
	case errors.As(err, &perr):
		clog.ErrorContextf(ctx, "Saving results: %v", err)
	case errors.Is(err, context.Canceled) && summary != nil:
		clog.WarnContextf(ctx, "Evaluation interrupted after %d samples", summary.CompletedSamples)
	default:
		return err
	}

	if err := printSummary(stdout, summary, opts.threshold); err != nil {
		return err
	}
	if cfg.SaveResults && perr == nil && ctx.Err() == nil {
		fmt.Fprintf(stdout, "\nResults saved to %s and %s\n", cfg.OutputPath, cfg.CSVPath)
	}
	return nil
}

func printSummary(w io.Writer, s *evaluator.Summary, threshold float64) error {
	fmt.Fprintf(w, "Evaluation %s on %s: %d/%d samples completed, %d failed, %.1fs\n\n",
		s.EvaluationID, s.DatasetName, s.CompletedSamples, s.TotalSamples, s.FailedSamples, s.DurationSeconds)
	if err := report.Metrics(w, s); err != nil {
		return err
	}
	tree, below := report.Tree(s, threshold)
	fmt.Fprintf(w, "\n%s", tree)
	if below {
		fmt.Fprintf(w, "\nSome metrics averaged below %.2f\n", threshold)
	}
	return nil
}

// serveMetrics exposes the default Prometheus registry until the returned
// function is called.
func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.WarnContextf(ctx, "Metrics server stopped: %v", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func buildResultsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect saved evaluations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved evaluations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := root.store().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No evaluations in %s\n", root.resultsDir)
				return nil
			}
			return report.Runs(cmd.OutOrStdout(), entries)
		},
	}

	var (
		threshold float64
		samples   bool
	)
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one saved evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.store().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := printSummary(w, s, threshold); err != nil {
				return err
			}
			if samples {
				fmt.Fprintln(w)
				return report.Results(w, s)
			}
			return nil
		},
	}
	show.Flags().Float64Var(&threshold, "threshold", 0.7, "Flag metrics whose average is below this score")
	show.Flags().BoolVar(&samples, "samples", false, "Also print per-sample scores")

	cmd.AddCommand(list, show)
	return cmd
}

func buildExportCmd(root *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a saved evaluation as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.store().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return export(w, s, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Export format: csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func export(w io.Writer, s *evaluator.Summary, format string) error {
	switch strings.ToLower(format) {
	case "csv":
		return evaluator.WriteCSV(w, s)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	return fmt.Errorf("unsupported export format %q (expected csv or json)", format)
}

func buildPingCmd() *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the judge model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := loadEnv(ctx)
			if err != nil {
				return fmt.Errorf("processing environment: %w", err)
			}
			jc, err := env.judgeConfig(model)
			if err != nil {
				return err
			}
			client, err := judge.New(ctx, jc)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", model)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", judge.DefaultModel, "Judge model")
	return cmd
}
