/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metric

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"chainguard.dev/ragjudge/evaluation/dataset"
	"chainguard.dev/ragjudge/evaluation/templates"
)

// Name identifies a quality dimension. Names double as registry keys.
type Name string

const (
	Correctness      Name = templates.CorrectnessKey
	ContextPrecision Name = templates.ContextPrecisionKey
	AnswerRelevance  Name = templates.AnswerRelevanceKey
	Faithfulness     Name = templates.FaithfulnessKey
)

// All returns every metric in evaluation order.
func All() []Name {
	return []Name{Correctness, ContextPrecision, AnswerRelevance, Faithfulness}
}

// Parse converts a string into a known metric name.
func Parse(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(All(), n) {
		return "", fmt.Errorf("unknown metric %q (expected one of %s)", s, strings.Join(names(All()), ", "))
	}
	return n, nil
}

// Ordered returns the distinct requested metrics in evaluation order.
func Ordered(requested []Name) ([]Name, error) {
	for _, n := range requested {
		if !slices.Contains(All(), n) {
			return nil, fmt.Errorf("unknown metric %q", n)
		}
	}
	var out []Name
	for _, n := range All() {
		if slices.Contains(requested, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func names(ns []Name) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = string(n)
	}
	return out
}

// Judge evaluates a filled template. *judge.Client satisfies it.
type Judge interface {
	Evaluate(ctx context.Context, tmpl *templates.Template, vars map[string]string) (templates.Response, error)
}

// Score is the part every metric result shares.
type Score struct {
	Score     float64        `json:"score"`
	Reasoning string         `json:"reasoning"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CorrectnessScore grades whether the generation matches the ground truth.
type CorrectnessScore struct {
	Score
	KeyFactsIncluded bool `json:"key_facts_included"`
	FactualSupport   bool `json:"factual_support"`
}

// ContextPrecisionScore grades whether the context helped the answer.
type ContextPrecisionScore struct {
	Score
	ContextUseful   bool `json:"context_useful"`
	ContextRelevant bool `json:"context_relevant"`
}

// AnswerRelevanceScore grades whether the answer is direct.
type AnswerRelevanceScore struct {
	Score
	// Noncommittal is 1 for evasive answers, else 0.
	Noncommittal      int    `json:"noncommittal"`
	GeneratedQuestion string `json:"generated_question,omitempty"`
}

// FaithfulnessScore grades how many of the answer's statements hold.
type FaithfulnessScore struct {
	Score
	Statements         []string `json:"statements"`
	FaithfulStatements int      `json:"faithful_statements"`
	TotalStatements    int      `json:"total_statements"`
}

// Scores holds the result of each metric that was run. Nil means not run.
type Scores struct {
	Correctness      *CorrectnessScore      `json:"correctness,omitempty"`
	ContextPrecision *ContextPrecisionScore `json:"context_precision,omitempty"`
	AnswerRelevance  *AnswerRelevanceScore  `json:"answer_relevance,omitempty"`
	Faithfulness     *FaithfulnessScore     `json:"faithfulness,omitempty"`
}

// Get returns the shared score of the named metric, if it was run.
func (s *Scores) Get(name Name) (Score, bool) {
	switch name {
	case Correctness:
		if s.Correctness != nil {
			return s.Correctness.Score, true
		}
	case ContextPrecision:
		if s.ContextPrecision != nil {
			return s.ContextPrecision.Score, true
		}
	case AnswerRelevance:
		if s.AnswerRelevance != nil {
			return s.AnswerRelevance.Score, true
		}
	case Faithfulness:
		if s.Faithfulness != nil {
			return s.Faithfulness.Score, true
		}
	}
	return Score{}, false
}

// Run evaluates one metric for sample and stores the result in scores.
func Run(ctx context.Context, name Name, sample dataset.Sample, judge Judge, registry *templates.Registry, scores *Scores) error {
	var err error
	switch name {
	case Correctness:
		scores.Correctness, err = EvaluateCorrectness(ctx, sample, judge, registry)
	case ContextPrecision:
		scores.ContextPrecision, err = EvaluateContextPrecision(ctx, sample, judge, registry)
	case AnswerRelevance:
		scores.AnswerRelevance, err = EvaluateAnswerRelevance(ctx, sample, judge, registry)
	case Faithfulness:
		scores.Faithfulness, err = EvaluateFaithfulness(ctx, sample, judge, registry)
	default:
		return fmt.Errorf("unknown metric %q", name)
	}
	return err
}

func evaluate(ctx context.Context, name Name, judge Judge, registry *templates.Registry, vars map[string]string) (templates.Response, error) {
	tmpl, err := registry.Lookup(string(name))
	if err != nil {
		return templates.Response{}, err
	}
	return judge.Evaluate(ctx, tmpl, vars)
}

// baseMetadata is the metadata every judged metric records.
func baseMetadata(resp templates.Response, sample dataset.Sample) map[string]any {
	meta := map[string]any{"raw_response": resp.RawResponse}
	if len(sample.Metadata) > 0 {
		meta["sample_metadata"] = sample.Metadata
	}
	return meta
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func labeled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + value
}
