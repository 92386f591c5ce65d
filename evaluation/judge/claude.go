/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"
	"strings"

	"chainguard.dev/ragjudge/evaluation/retry"
	"chainguard.dev/ragjudge/evaluation/telemetry"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claude implements Model using the Anthropic Messages API.
type claude struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	tel         *telemetry.Judge
}

func newClaude(cfg Config, tel *telemetry.Judge) Model {
	return &claude{
		// The SDK retries on its own; attempts are counted by the judge client.
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		tel:         tel,
	}
}

// Generate implements Model.
func (c *claude) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if isAuthClaudeError(err) {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	c.tel.RecordTokens(ctx, c.model, message.Usage.InputTokens, message.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("no text content in response")
	}
	return text.String(), nil
}

func isAuthClaudeError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return true
		}
	}
	return false
}
