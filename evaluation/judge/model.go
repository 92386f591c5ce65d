/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/ragjudge/evaluation/telemetry"
)

// Model sends a single prompt to an LLM and returns its text reply.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Model.
func (f ModelFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Provider names the API family that serves a model.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
)

// ProviderFor picks the provider from the model name's prefix.
func ProviderFor(model string) (Provider, error) {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini-"):
		return ProviderGemini, nil
	case strings.HasPrefix(m, "claude-"):
		return ProviderClaude, nil
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return ProviderOpenAI, nil
	}
	return "", fmt.Errorf("unsupported model: %s (expected gemini-*, claude-* or gpt-*)", model)
}

// NewModel creates the backend for cfg.Model. cfg should already carry defaults.
func NewModel(ctx context.Context, cfg Config, tel *telemetry.Judge) (Model, error) {
	b, err := ProviderFor(cfg.Model)
	if err != nil {
		return nil, err
	}
	switch b {
	case ProviderClaude:
		return newClaude(cfg, tel), nil
	case ProviderOpenAI:
		return newOpenAI(cfg, tel), nil
	default:
		return newGemini(ctx, cfg, tel)
	}
}
