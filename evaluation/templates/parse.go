/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package templates

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"
)

var (
	labeledScorePattern = regexp.MustCompile(`(?i)score[:\s]+([0-9]*\.?[0-9]+)`)
	bareScorePattern    = regexp.MustCompile(`\b(0\.[0-9]+|1\.0|1)\b`)
	reasoningPattern    = regexp.MustCompile(`(?is)(?:reasoning|explanation)[:\s]+(.+)`)
)

// ExtractScore pulls a numeric score out of free text.
// A "Score: x" label wins over a bare number; with neither, 0 is returned
// and a warning is logged. The result is not clamped.
func ExtractScore(ctx context.Context, text string) float64 {
	if m := labeledScorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	if m := bareScorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}

	clog.FromContext(ctx).With("response", truncate(text, 200)).
		Warn("Could not extract score from judge response, defaulting to 0")
	return 0
}

// ExtractReasoning returns the text after a Reasoning: or Explanation: label,
// or the whole trimmed text when there is no label.
func ExtractReasoning(text string) string {
	if m := reasoningPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// Clamp limits score to [0, 1]. NaN maps to 0.
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(1, score))
}

// ParseBasic parses a score and reasoning, preferring a structured verdict.
func ParseBasic(ctx context.Context, raw string) Response {
	if v, ok := parseVerdict(raw); ok {
		return v.response(raw)
	}
	return Response{
		Score:       Clamp(ExtractScore(ctx, raw)),
		Reasoning:   ExtractReasoning(raw),
		RawResponse: raw,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
