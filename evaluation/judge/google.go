/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/ragjudge/evaluation/retry"
	"chainguard.dev/ragjudge/evaluation/telemetry"
	"google.golang.org/genai"
)

// gemini implements Model using the Gemini API.
type gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	tel    *telemetry.Judge
}

func newGemini(ctx context.Context, cfg Config, tel *telemetry.Judge) (Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	temperature := float32(cfg.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(cfg.MaxTokens),
	}
	if cfg.Structured {
		config.ResponseMIMEType = "application/json"
	}

	return &gemini{
		client: client,
		model:  cfg.Model,
		config: config,
		tel:    tel,
	}, nil
}

// Generate implements Model.
func (g *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		if isAuthGeminiError(err) {
			return "", retry.Permanent(err)
		}
		return "", err
	}
	if resp.UsageMetadata != nil {
		g.tel.RecordTokens(ctx, g.model, int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no content generated - no candidates")
	}
	return resp.Text(), nil
}

// isAuthGeminiError reports whether err is a credential problem that retrying cannot fix.
func isAuthGeminiError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "API_KEY_INVALID") ||
		strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "UNAUTHENTICATED") ||
		strings.Contains(errStr, "Error 401") ||
		strings.Contains(errStr, "Error 403")
}
