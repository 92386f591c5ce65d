/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metric

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/ragjudge/evaluation/dataset"
	"chainguard.dev/ragjudge/evaluation/templates"
	"github.com/google/go-cmp/cmp"
)

// fakeJudge replies with a fixed raw response and records what it was asked.
type fakeJudge struct {
	raw   string
	err   error
	calls []call
}

type call struct {
	template string
	vars     map[string]string
}

func (f *fakeJudge) Evaluate(ctx context.Context, tmpl *templates.Template, vars map[string]string) (templates.Response, error) {
	f.calls = append(f.calls, call{template: tmpl.Name, vars: vars})
	if f.err != nil {
		return templates.Response{}, f.err
	}
	return tmpl.Parse(ctx, f.raw), nil
}

var richSample = dataset.Sample{
	ID:          "s1",
	Query:       "How do I get a residence permit?",
	Generation:  "Apply at the immigration office.",
	GroundTruth: "Book an appointment at the immigration office.",
	Metadata: map[string]any{
		"category":        "visa",
		"source":          "guide.pdf",
		"question_number": float64(7),
	},
}

var bareSample = dataset.Sample{
	ID:          "s2",
	Query:       "Hi?",
	Generation:  "Hello.",
	GroundTruth: "Hello.",
}

func TestParseAndOrdered(t *testing.T) {
	if n, err := Parse(" Faithfulness "); err != nil || n != Faithfulness {
		t.Errorf("Parse() = %q, %v", n, err)
	}
	if _, err := Parse("bleu"); err == nil {
		t.Error("Parse(bleu): expected error")
	}

	got, err := Ordered([]Name{Faithfulness, Correctness, Faithfulness})
	if err != nil {
		t.Fatalf("Ordered() = %v", err)
	}
	if diff := cmp.Diff([]Name{Correctness, Faithfulness}, got); diff != "" {
		t.Errorf("Ordered() mismatch (-want +got):\n%s", diff)
	}
	if _, err := Ordered([]Name{"bleu"}); err == nil {
		t.Error("Ordered(bleu): expected error")
	}
}

func TestEvaluateCorrectness(t *testing.T) {
	tests := []struct {
		name         string
		sample       dataset.Sample
		raw          string
		wantQuery    string
		wantKeyFacts bool
		wantSupport  bool
	}{{
		name:         "with metadata",
		sample:       richSample,
		raw:          "Score: 0.8\nReasoning: close",
		wantQuery:    "How do I get a residence permit?\n[Metadata: Category: visa | Source: guide.pdf | Question #7]",
		wantKeyFacts: true,
		wantSupport:  true,
	}, {
		name:        "without metadata",
		sample:      bareSample,
		raw:         "Score: 0.6",
		wantQuery:   "Hi?",
		wantSupport: true,
	}, {
		name:      "boundary is exclusive",
		sample:    bareSample,
		raw:       "Score: 0.5",
		wantQuery: "Hi?",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &fakeJudge{raw: tt.raw}
			got, err := EvaluateCorrectness(context.Background(), tt.sample, j, templates.DefaultRegistry())
			if err != nil {
				t.Fatalf("EvaluateCorrectness() = %v", err)
			}
			if len(j.calls) != 1 {
				t.Fatalf("judge calls: got = %d, wanted = 1", len(j.calls))
			}
			if q := j.calls[0].vars["query"]; q != tt.wantQuery {
				t.Errorf("query: got = %q, wanted = %q", q, tt.wantQuery)
			}
			if got.KeyFactsIncluded != tt.wantKeyFacts || got.FactualSupport != tt.wantSupport {
				t.Errorf("flags: got = %v/%v, wanted = %v/%v", got.KeyFactsIncluded, got.FactualSupport, tt.wantKeyFacts, tt.wantSupport)
			}
			if got.Metadata["raw_response"] != tt.raw {
				t.Errorf("raw_response: got = %v, wanted = %q", got.Metadata["raw_response"], tt.raw)
			}
		})
	}
}

func TestEvaluateContextPrecision(t *testing.T) {
	t.Run("explicit context", func(t *testing.T) {
		s := bareSample
		s.Context = "Greetings are polite."
		j := &fakeJudge{raw: "Score: 0.65"}
		got, err := EvaluateContextPrecision(context.Background(), s, j, templates.DefaultRegistry())
		if err != nil {
			t.Fatalf("EvaluateContextPrecision() = %v", err)
		}
		if j.calls[0].vars["context"] != "Greetings are polite." {
			t.Errorf("context: got = %q", j.calls[0].vars["context"])
		}
		if !got.ContextUseful || !got.ContextRelevant {
			t.Errorf("flags: got = %v/%v, wanted = true/true", got.ContextUseful, got.ContextRelevant)
		}
		if got.Metadata["had_explicit_context"] != true {
			t.Errorf("had_explicit_context: got = %v", got.Metadata["had_explicit_context"])
		}
	})

	t.Run("metadata context", func(t *testing.T) {
		j := &fakeJudge{raw: "Score: 0.5"}
		got, err := EvaluateContextPrecision(context.Background(), richSample, j, templates.DefaultRegistry())
		if err != nil {
			t.Fatalf("EvaluateContextPrecision() = %v", err)
		}
		want := "Topic: visa\nSource Document: guide.pdf\nQuestion Number: 7"
		if j.calls[0].vars["context"] != want {
			t.Errorf("context: got = %q, wanted = %q", j.calls[0].vars["context"], want)
		}
		if got.ContextUseful || !got.ContextRelevant {
			t.Errorf("flags: got = %v/%v, wanted = false/true", got.ContextUseful, got.ContextRelevant)
		}
		if got.Metadata["used_metadata_as_context"] != true {
			t.Errorf("used_metadata_as_context: got = %v", got.Metadata["used_metadata_as_context"])
		}
	})

	t.Run("no context skips the judge", func(t *testing.T) {
		j := &fakeJudge{err: errors.New("must not be called")}
		got, err := EvaluateContextPrecision(context.Background(), bareSample, j, templates.DefaultRegistry())
		if err != nil {
			t.Fatalf("EvaluateContextPrecision() = %v", err)
		}
		if len(j.calls) != 0 {
			t.Errorf("judge calls: got = %d, wanted = 0", len(j.calls))
		}
		if got.Score.Score != 0.5 || got.ContextUseful || got.ContextRelevant || got.Reasoning != "no context available" {
			t.Errorf("neutral result: got = %+v", got)
		}
	})
}

func TestEvaluateAnswerRelevance(t *testing.T) {
	tests := []struct {
		name             string
		sample           dataset.Sample
		raw              string
		wantMeta         string
		wantNoncommittal int
		wantQuestion     string
	}{{
		name:         "committal",
		sample:       richSample,
		raw:          "Generated Question: How do I get a permit?\nNoncommittal: 0\nScore: 0.9\nReasoning: direct",
		wantMeta:     "[Context: Category: visa | Source: guide.pdf]",
		wantQuestion: "How do I get a permit?",
	}, {
		name:             "evasive",
		sample:           bareSample,
		raw:              "Noncommittal: 1\nScore: 0.2\nReasoning: I'm not sure",
		wantMeta:         "none",
		wantNoncommittal: 1,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &fakeJudge{raw: tt.raw}
			got, err := EvaluateAnswerRelevance(context.Background(), tt.sample, j, templates.DefaultRegistry())
			if err != nil {
				t.Fatalf("EvaluateAnswerRelevance() = %v", err)
			}
			if v := j.calls[0].vars; v["answer"] != tt.sample.Generation || v["metadata"] != tt.wantMeta {
				t.Errorf("vars: got = %v", v)
			}
			if got.Noncommittal != tt.wantNoncommittal {
				t.Errorf("Noncommittal: got = %d, wanted = %d", got.Noncommittal, tt.wantNoncommittal)
			}
			if got.GeneratedQuestion != tt.wantQuestion {
				t.Errorf("GeneratedQuestion: got = %q, wanted = %q", got.GeneratedQuestion, tt.wantQuestion)
			}
			if got.Metadata["has_evasive_language"] != (tt.wantNoncommittal == 1) {
				t.Errorf("has_evasive_language: got = %v", got.Metadata["has_evasive_language"])
			}
		})
	}
}

func TestEvaluateFaithfulness(t *testing.T) {
	t.Run("statements from reasoning", func(t *testing.T) {
		j := &fakeJudge{raw: "Score: 0.75\nReasoning:\n1. One holds.\n2. Two holds.\n3. Three holds.\n4. Four fails."}
		got, err := EvaluateFaithfulness(context.Background(), richSample, j, templates.DefaultRegistry())
		if err != nil {
			t.Fatalf("EvaluateFaithfulness() = %v", err)
		}
		v := j.calls[0].vars
		if v["question"] != "[Question #7] How do I get a residence permit?" {
			t.Errorf("question: got = %q", v["question"])
		}
		if v["context"] != "Topic: visa\nReference: guide.pdf" {
			t.Errorf("context: got = %q", v["context"])
		}
		want := []string{"One holds.", "Two holds.", "Three holds.", "Four fails."}
		if diff := cmp.Diff(want, got.Statements); diff != "" {
			t.Errorf("Statements mismatch (-want +got):\n%s", diff)
		}
		if got.TotalStatements != 4 || got.FaithfulStatements != 3 {
			t.Errorf("counts: got = %d/%d, wanted = 3/4", got.FaithfulStatements, got.TotalStatements)
		}
		if got.Metadata["is_faithful"] != true {
			t.Errorf("is_faithful: got = %v", got.Metadata["is_faithful"])
		}
	})

	t.Run("fallback estimate", func(t *testing.T) {
		j := &fakeJudge{raw: "Score: 0.34\nReasoning: mostly unsupported"}
		got, err := EvaluateFaithfulness(context.Background(), bareSample, j, templates.DefaultRegistry())
		if err != nil {
			t.Fatalf("EvaluateFaithfulness() = %v", err)
		}
		if j.calls[0].vars["context"] != "No additional context provided" {
			t.Errorf("context: got = %q", j.calls[0].vars["context"])
		}
		if got.TotalStatements != 10 || got.FaithfulStatements != 3 || len(got.Statements) != 0 {
			t.Errorf("counts: got = %+v", got)
		}
	})
}

func TestRun(t *testing.T) {
	j := &fakeJudge{raw: "Score: 0.9"}
	var scores Scores
	for _, name := range All() {
		if err := Run(context.Background(), name, richSample, j, templates.DefaultRegistry(), &scores); err != nil {
			t.Fatalf("Run(%s) = %v", name, err)
		}
	}
	for _, name := range All() {
		s, ok := scores.Get(name)
		if !ok || s.Score != 0.9 {
			t.Errorf("Get(%s) = %v, %v", name, s, ok)
		}
	}
	if err := Run(context.Background(), "bleu", richSample, j, templates.DefaultRegistry(), &scores); err == nil {
		t.Error("Run(bleu): expected error")
	}

	j.err = errors.New("judge down")
	var failed Scores
	if err := Run(context.Background(), Correctness, richSample, j, templates.DefaultRegistry(), &failed); err == nil {
		t.Error("Run(): expected judge error")
	}
	if _, ok := failed.Get(Correctness); ok {
		t.Error("failed metric should not be recorded")
	}
}

func TestScoresJSON(t *testing.T) {
	scores := Scores{
		Correctness: &CorrectnessScore{
			Score:            Score{Score: 0.8, Reasoning: "ok"},
			KeyFactsIncluded: true,
			FactualSupport:   true,
		},
	}
	b, err := json.Marshal(scores)
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	want := `{"correctness":{"score":0.8,"reasoning":"ok","key_facts_included":true,"factual_support":true}}`
	if got != want {
		t.Errorf("json: got = %s, wanted = %s", got, want)
	}
	if strings.Contains(got, "faithfulness") {
		t.Error("metrics that were not run must be omitted")
	}
}
