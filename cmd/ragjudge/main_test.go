/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chainguard.dev/ragjudge/evaluation/evaluator"
	"chainguard.dev/ragjudge/evaluation/metric"
	"chainguard.dev/ragjudge/evaluation/stats"
	"chainguard.dev/ragjudge/evaluation/store"
	"github.com/google/go-cmp/cmp"
)

func TestResolveDataset(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "esn_qa_dataset", want: filepath.Join("datasets", "esn_qa_dataset.csv")},
		{in: "qa.yaml", want: "qa.yaml"},
		{in: "data/qa", want: "data/qa"},
	}
	for _, tt := range tests {
		if got := resolveDataset(tt.in); got != tt.want {
			t.Errorf("resolveDataset(%q): got = %q, wanted = %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMetrics(t *testing.T) {
	got, err := parseMetrics("faithfulness, correctness,")
	if err != nil {
		t.Fatalf("parseMetrics() = %v", err)
	}
	if diff := cmp.Diff([]metric.Name{metric.Faithfulness, metric.Correctness}, got); diff != "" {
		t.Errorf("parseMetrics() mismatch (-want +got):\n%s", diff)
	}

	all, err := parseMetrics("")
	if err != nil || len(all) != 4 {
		t.Errorf("parseMetrics(\"\"): got = %v, %v", all, err)
	}
	if _, err := parseMetrics("bleu"); err == nil {
		t.Error("parseMetrics(bleu): expected error")
	}
}

func TestAPIKey(t *testing.T) {
	env := envConfig{GoogleAPIKey: "g", AnthropicAPIKey: "a", OpenAIAPIKey: "o"}
	for model, want := range map[string]string{
		"gemini-2.5-flash-lite": "g",
		"claude-haiku-4-5":      "a",
		"gpt-4o-mini":           "o",
	} {
		got, err := env.apiKey(model)
		if err != nil || got != want {
			t.Errorf("apiKey(%q): got = %q, %v, wanted = %q", model, got, err, want)
		}
	}
	if _, err := env.apiKey("llama-3"); err == nil {
		t.Error("apiKey(llama-3): expected error")
	}
}

func TestJudgeConfigFromEnv(t *testing.T) {
	env := envConfig{AnthropicAPIKey: "a", RetryAttempts: 5, RetryDelay: 2 * time.Second, RequestsPerSecond: 1.5}
	jc, err := env.judgeConfig("claude-haiku-4-5")
	if err != nil {
		t.Fatalf("judgeConfig() = %v", err)
	}
	if jc.APIKey != "a" || jc.RetryAttempts != 5 || jc.RetryDelay != 2*time.Second || jc.RequestsPerSecond != 1.5 {
		t.Errorf("judgeConfig(): got = %+v", jc)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JUDGE_RETRY_DELAY", "250ms")

	env, err := loadEnv(context.Background())
	if err != nil {
		t.Fatalf("loadEnv() = %v", err)
	}
	if env.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey: got = %q, wanted = %q", env.OpenAIAPIKey, "sk-test")
	}
	if env.RetryDelay != 250*time.Millisecond {
		t.Errorf("RetryDelay: got = %v, wanted = 250ms", env.RetryDelay)
	}
	if env.RetryAttempts != 3 {
		t.Errorf("RetryAttempts: got = %d, wanted = 3", env.RetryAttempts)
	}
}

func TestRenderProgress(t *testing.T) {
	got := renderProgress(evaluator.Progress{
		CurrentSample:          1,
		TotalSamples:           4,
		CurrentMetric:          metric.Faithfulness,
		Status:                 evaluator.StatusRunning,
		ProgressPercentage:     25,
		EstimatedTimeRemaining: 3*time.Second + 400*time.Millisecond,
	})
	if n := strings.Count(got, "█"); n != 10 {
		t.Errorf("filled cells: got = %d, wanted = 10", n)
	}
	if n := strings.Count(got, "░"); n != 30 {
		t.Errorf("empty cells: got = %d, wanted = 30", n)
	}
	for _, want := range []string{"25.0%", "1/4", "faithfulness", "ETA 3s"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderProgress() = %q, should contain %q", got, want)
		}
	}

	done := renderProgress(evaluator.Progress{CurrentSample: 4, TotalSamples: 4, Status: evaluator.StatusCompleted, ProgressPercentage: 100})
	if strings.Count(done, "█") != 40 || !strings.Contains(done, "completed") {
		t.Errorf("renderProgress(done) = %q", done)
	}
}

func TestCSVSibling(t *testing.T) {
	if got := csvSibling("out/123_qa_results.json"); got != "out/123_qa_results.csv" {
		t.Errorf("csvSibling: got = %q", got)
	}
}

func savedSummary(t *testing.T, dir string) *evaluator.Summary {
	t.Helper()
	s := &evaluator.Summary{
		EvaluationID:     "eval-1",
		DatasetName:      "qa",
		TotalSamples:     1,
		CompletedSamples: 1,
		StartedAt:        time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		Metrics: map[metric.Name]stats.Summary{
			metric.Correctness: stats.Summarize([]float64{0.9}),
		},
		Results: []evaluator.Result{{
			SampleID: "sample_1",
			Query:    "q",
			Scores:   metric.Scores{Correctness: &metric.CorrectnessScore{Score: metric.Score{Score: 0.9, Reasoning: "good"}}},
		}},
	}
	st := store.Store{Dir: dir}
	if err := evaluator.SaveJSON(s, st.Path(s.DatasetName, s.StartedAt)); err != nil {
		t.Fatal(err)
	}
	return s
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := buildRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestResultsCommands(t *testing.T) {
	dir := t.TempDir()
	savedSummary(t, dir)

	list := execute(t, "--results-dir", dir, "results", "list")
	if !strings.Contains(list, "eval-1") {
		t.Errorf("results list = %q, should contain eval-1", list)
	}

	show := execute(t, "--results-dir", dir, "results", "show", "eval-1", "--samples")
	for _, want := range []string{"1/1 samples completed", "correctness", "sample_1"} {
		if !strings.Contains(show, want) {
			t.Errorf("results show = %q, should contain %q", show, want)
		}
	}

	empty := execute(t, "--results-dir", filepath.Join(dir, "none"), "results", "list")
	if !strings.Contains(empty, "No evaluations") {
		t.Errorf("results list (empty) = %q", empty)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	savedSummary(t, dir)

	csv := execute(t, "--results-dir", dir, "export", "eval-1", "--format", "csv")
	if !strings.HasPrefix(csv, "sample_id,query,generation,ground_truth,context,correctness_score") {
		t.Errorf("csv export header = %q", strings.SplitN(csv, "\n", 2)[0])
	}
	if !strings.Contains(csv, "sample_1,q,,,,0.900,good") {
		t.Errorf("csv export = %q", csv)
	}

	js := execute(t, "--results-dir", dir, "export", "eval-1")
	if !strings.Contains(js, `"evaluation_id": "eval-1"`) {
		t.Errorf("json export = %q", js)
	}

	var buf bytes.Buffer
	if err := export(&buf, &evaluator.Summary{}, "xml"); err == nil {
		t.Error("export(xml): expected error")
	}
}

func TestRunEstimate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qa.csv")
	writeFile(t, path, "input,output,expected_output\nq1,a1,t1\nq2,a2,t2\n")

	out := execute(t, "run", "--dataset", path, "--metrics", "correctness,faithfulness", "--estimate")
	if !strings.Contains(out, "4 judge calls") {
		t.Errorf("run --estimate = %q", out)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
