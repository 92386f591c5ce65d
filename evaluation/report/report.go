/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders evaluation summaries for terminals and markdown.
package report

import (
	"fmt"
	"io"
	"strings"

	"chainguard.dev/ragjudge/evaluation/evaluator"
	"chainguard.dev/ragjudge/evaluation/metric"
	"chainguard.dev/ragjudge/evaluation/stats"
	"chainguard.dev/ragjudge/evaluation/store"
)

// Metrics writes one row per metric with its statistics and bucket counts.
// Only metrics with at least one score are listed.
func Metrics(w io.Writer, s *evaluator.Summary) error {
	headers := []string{"Metric", "Average", "Min", "Max", "Median", "Std Dev"}
	headers = append(headers, stats.Buckets()...)
	table := createStandardTable(headers, w)

	for _, name := range metric.All() {
		m, ok := s.Metrics[name]
		if !ok || distributionTotal(m.Distribution) == 0 {
			continue
		}
		row := []string{
			string(name),
			fmt.Sprintf("%.3f", m.Average),
			fmt.Sprintf("%.3f", m.Min),
			fmt.Sprintf("%.3f", m.Max),
			fmt.Sprintf("%.3f", m.Median),
			fmt.Sprintf("%.3f", m.StdDev),
		}
		for _, b := range stats.Buckets() {
			row = append(row, fmt.Sprint(m.Distribution[b]))
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Results writes one row per evaluated sample with its score for each metric.
// Metrics that were not run show as "-".
func Results(w io.Writer, s *evaluator.Summary) error {
	headers := []string{"Sample"}
	for _, name := range metric.All() {
		headers = append(headers, string(name))
	}
	table := createStandardTable(headers, w)

	for _, r := range s.Results {
		row := []string{r.SampleID}
		for _, name := range metric.All() {
			if score, ok := r.Scores.Get(name); ok {
				row = append(row, fmt.Sprintf("%.2f", score.Score))
			} else {
				row = append(row, "-")
			}
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Runs writes a listing of stored evaluations with their metric averages.
func Runs(w io.Writer, entries []store.Entry) error {
	headers := []string{"ID", "Dataset", "Started", "Samples", "Duration"}
	for _, name := range metric.All() {
		headers = append(headers, string(name))
	}
	table := createStandardTable(headers, w)

	for _, e := range entries {
		row := []string{
			e.EvaluationID,
			e.DatasetName,
			e.StartedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", e.CompletedSamples, e.TotalSamples),
			fmt.Sprintf("%.1fs", e.DurationSeconds),
		}
		for _, name := range metric.All() {
			row = append(row, fmt.Sprintf("%.2f", e.Averages[name]))
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Tree renders the summary as an indented tree of metrics and their score
// buckets, flagging metrics whose average falls below threshold. It reports
// whether any metric did.
func Tree(s *evaluator.Summary, threshold float64) (string, bool) {
	var b strings.Builder
	below := false

	for _, name := range metric.All() {
		m, ok := s.Metrics[name]
		n := distributionTotal(m.Distribution)
		if !ok || n == 0 {
			continue
		}

		value := fmt.Sprintf("%.2f avg", m.Average)
		if m.Average < threshold {
			below = true
			value = "❌ " + value
		}
		fmt.Fprintf(&b, "%s [%s] (%d %s)\n", name, value, n, plural(n, "result", "results"))

		for _, bucket := range stats.Buckets() {
			if c := m.Distribution[bucket]; c > 0 {
				fmt.Fprintf(&b, "  %s [%d] %s\n", bucket, c, strings.Repeat("#", c))
			}
		}
	}
	return b.String(), below
}

func distributionTotal(d stats.Distribution) int {
	total := 0
	for _, c := range d {
		total += c
	}
	return total
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
