/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements ragjudge, a CLI that scores RAG question answering
// datasets with an LLM judge and manages the saved results.
//
// Run an evaluation over datasets/esn_qa_dataset.csv:
//
//	ragjudge run --dataset esn_qa_dataset --max-samples 10
//
// The judge API key is read from GOOGLE_GENERATIVE_AI_API_KEY,
// ANTHROPIC_API_KEY or OPENAI_API_KEY depending on the model.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/ragjudge/evaluation/judge"
	"chainguard.dev/ragjudge/evaluation/store"
	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

type envConfig struct {
	GoogleAPIKey    string `env:"GOOGLE_GENERATIVE_AI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`

	RetryAttempts     int           `env:"JUDGE_RETRY_ATTEMPTS,default=3"`
	RetryDelay        time.Duration `env:"JUDGE_RETRY_DELAY,default=1s"`
	RequestsPerSecond float64       `env:"JUDGE_RPS,default=0"`
}

// apiKey returns the key for the provider serving model.
func (e envConfig) apiKey(model string) (string, error) {
	p, err := judge.ProviderFor(model)
	if err != nil {
		return "", err
	}
	switch p {
	case judge.ProviderClaude:
		return e.AnthropicAPIKey, nil
	case judge.ProviderOpenAI:
		return e.OpenAIAPIKey, nil
	default:
		return e.GoogleAPIKey, nil
	}
}

// judgeConfig builds the judge configuration for model from the environment.
func (e envConfig) judgeConfig(model string) (judge.Config, error) {
	key, err := e.apiKey(model)
	if err != nil {
		return judge.Config{}, err
	}
	return judge.Config{
		Model:             model,
		APIKey:            key,
		RetryAttempts:     e.RetryAttempts,
		RetryDelay:        e.RetryDelay,
		RequestsPerSecond: e.RequestsPerSecond,
	}, nil
}

func loadEnv(ctx context.Context) (envConfig, error) {
	var env envConfig
	err := envconfig.Process(ctx, &env)
	return env, err
}

type rootOptions struct {
	resultsDir string
}

func (o *rootOptions) store() store.Store { return store.Store{Dir: o.resultsDir} }

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = clog.WithLogger(ctx, clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "ragjudge: %v", err)
	}
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "ragjudge",
		Short: "Score RAG answers with an LLM judge",
		Long: `ragjudge evaluates generated answers against ground truth with an LLM judge.

Metrics: correctness, context_precision, answer_relevance, faithfulness.
Supported judges: gemini-*, claude-*, gpt-*.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.resultsDir, "results-dir", store.DefaultDir,
		"Directory evaluation results are saved to and read from")

	cmd.AddCommand(
		buildRunCmd(opts),
		buildResultsCmd(opts),
		buildExportCmd(opts),
		buildPingCmd(),
	)
	return cmd
}
