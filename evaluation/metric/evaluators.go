/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metric

import (
	"context"
	"math"
	"regexp"
	"strings"

	"chainguard.dev/ragjudge/evaluation/dataset"
	"chainguard.dev/ragjudge/evaluation/templates"
)

const (
	noContextReasoning     = "no context available"
	noContextPlaceholder   = "No additional context provided"
	emptyMetadataDigest    = "none"
	defaultStatementsGuess = 10
)

// EvaluateCorrectness grades the generation against the ground truth.
func EvaluateCorrectness(ctx context.Context, sample dataset.Sample, judge Judge, registry *templates.Registry) (*CorrectnessScore, error) {
	query := sample.Query
	if digest := joinNonEmpty(" | ",
		labeled("Category: ", sample.Category()),
		labeled("Source: ", sample.Source()),
		labeled("Question #", sample.QuestionNumber()),
	); digest != "" {
		query += "\n[Metadata: " + digest + "]"
	}

	resp, err := evaluate(ctx, Correctness, judge, registry, map[string]string{
		"query":        query,
		"generation":   sample.Generation,
		"ground_truth": sample.GroundTruth,
	})
	if err != nil {
		return nil, err
	}

	return &CorrectnessScore{
		Score:            Score{Score: resp.Score, Reasoning: resp.Reasoning, Metadata: baseMetadata(resp, sample)},
		KeyFactsIncluded: resp.Score > 0.7,
		FactualSupport:   resp.Score > 0.5,
	}, nil
}

// EvaluateContextPrecision grades whether the sample's context was useful.
// Without explicit context or metadata the judge is not called and a
// neutral 0.5 is returned.
func EvaluateContextPrecision(ctx context.Context, sample dataset.Sample, judge Judge, registry *templates.Registry) (*ContextPrecisionScore, error) {
	contextText := sample.Context
	if contextText == "" && len(sample.Metadata) > 0 {
		contextText = joinNonEmpty("\n",
			labeled("Topic: ", sample.Category()),
			labeled("Source Document: ", sample.Source()),
			labeled("Question Number: ", sample.QuestionNumber()),
		)
		if contextText == "" {
			contextText = "No context available"
		}
	}
	if contextText == "" {
		return &ContextPrecisionScore{
			Score: Score{
				Score:     0.5,
				Reasoning: noContextReasoning,
				Metadata:  map[string]any{"had_context": false, "used_metadata": false},
			},
		}, nil
	}

	resp, err := evaluate(ctx, ContextPrecision, judge, registry, map[string]string{
		"question": sample.Query,
		"answer":   sample.Generation,
		"context":  contextText,
	})
	if err != nil {
		return nil, err
	}

	meta := baseMetadata(resp, sample)
	meta["had_explicit_context"] = sample.Context != ""
	meta["used_metadata_as_context"] = sample.Context == ""
	return &ContextPrecisionScore{
		Score:           Score{Score: resp.Score, Reasoning: resp.Reasoning, Metadata: meta},
		ContextUseful:   resp.Score > 0.6,
		ContextRelevant: resp.Score > 0.4,
	}, nil
}

// EvaluateAnswerRelevance grades whether the generation is a direct answer.
func EvaluateAnswerRelevance(ctx context.Context, sample dataset.Sample, judge Judge, registry *templates.Registry) (*AnswerRelevanceScore, error) {
	digest := joinNonEmpty(" | ",
		labeled("Category: ", sample.Category()),
		labeled("Source: ", sample.Source()),
	)
	if digest == "" {
		digest = emptyMetadataDigest
	} else {
		digest = "[Context: " + digest + "]"
	}

	resp, err := evaluate(ctx, AnswerRelevance, judge, registry, map[string]string{
		"answer":   sample.Generation,
		"metadata": digest,
	})
	if err != nil {
		return nil, err
	}

	meta := baseMetadata(resp, sample)
	meta["is_relevant"] = resp.Score > 0.6
	meta["has_evasive_language"] = resp.Score < 0.4

	score := &AnswerRelevanceScore{
		Score: Score{Score: resp.Score, Reasoning: resp.Reasoning, Metadata: meta},
	}
	if resp.Score < 0.4 {
		score.Noncommittal = 1
	}
	if q, ok := resp.Metadata["generated_question"].(string); ok {
		score.GeneratedQuestion = q
	}
	return score, nil
}

var numberedStatement = regexp.MustCompile(`(?m)^\s*\d+\.\s+(.+?)\s*$`)

// EvaluateFaithfulness breaks the generation into statements and grades how
// many are supported.
func EvaluateFaithfulness(ctx context.Context, sample dataset.Sample, judge Judge, registry *templates.Registry) (*FaithfulnessScore, error) {
	question := sample.Query
	if n := sample.QuestionNumber(); n != "" {
		question = "[Question #" + n + "] " + question
	}
	contextText := sample.Context
	if contextText == "" {
		contextText = joinNonEmpty("\n",
			labeled("Topic: ", sample.Category()),
			labeled("Reference: ", sample.Source()),
		)
	}
	if contextText == "" {
		contextText = noContextPlaceholder
	}

	resp, err := evaluate(ctx, Faithfulness, judge, registry, map[string]string{
		"question": question,
		"answer":   sample.Generation,
		"context":  contextText,
	})
	if err != nil {
		return nil, err
	}

	statements := recoverStatements(resp)
	total := len(statements)
	if total == 0 {
		total = defaultStatementsGuess
	}

	meta := baseMetadata(resp, sample)
	meta["used_metadata_context"] = sample.Context == "" && len(sample.Metadata) > 0
	meta["is_faithful"] = resp.Score > 0.7

	return &FaithfulnessScore{
		Score:              Score{Score: resp.Score, Reasoning: resp.Reasoning, Metadata: meta},
		Statements:         statements,
		FaithfulStatements: int(math.Round(resp.Score * float64(total))),
		TotalStatements:    total,
	}, nil
}

// recoverStatements reads a numbered list out of the reasoning, falling back
// to the statements the parser found in the full reply.
func recoverStatements(resp templates.Response) []string {
	statements := []string{}
	for _, m := range numberedStatement.FindAllStringSubmatch(resp.Reasoning, -1) {
		statements = append(statements, strings.TrimSpace(m[1]))
	}
	if len(statements) > 0 {
		return statements
	}
	if parsed, ok := resp.Metadata["statements"].([]string); ok {
		statements = append(statements, parsed...)
	}
	return statements
}
