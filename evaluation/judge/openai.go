/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"context"
	"errors"

	"chainguard.dev/ragjudge/evaluation/retry"
	"chainguard.dev/ragjudge/evaluation/telemetry"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAI implements Model using the Chat Completions API.
type openAI struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
	tel         *telemetry.Judge
}

func newOpenAI(cfg Config, tel *telemetry.Judge) Model {
	return &openAI{
		client:      openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		tel:         tel,
	}
}

// Generate implements Model.
func (o *openAI) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(o.temperature),
		MaxCompletionTokens: openai.Int(o.maxTokens),
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if isAuthOpenAIError(err) {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	o.tel.RecordTokens(ctx, o.model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	if len(completion.Choices) == 0 {
		return "", errors.New("no content generated - no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func isAuthOpenAIError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return true
		}
	}
	return false
}
