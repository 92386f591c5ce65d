/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"errors"
	"time"

	"chainguard.dev/ragjudge/evaluation/retry"
)

// DefaultModel is the judge model used when none is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Config configures a judge client.
type Config struct {
	// Model selects the backend by prefix (gemini-, claude-, gpt-/o1/o3/o4).
	Model string `json:"model"`
	// APIKey authenticates against the backend. Required.
	APIKey string `json:"-"`
	// Temperature for generation (default: 0.1).
	Temperature float64 `json:"temperature"`
	// MaxTokens caps the reply length (default: 2048).
	MaxTokens int `json:"max_tokens"`
	// RetryAttempts is the total number of tries per evaluation (default: 3).
	RetryAttempts int `json:"retry_attempts"`
	// RetryDelay is multiplied by the attempt number between tries (default: 1s).
	RetryDelay time.Duration `json:"retry_delay"`
	// BatchDelay is the pause between chunks in BatchEvaluate (default: 500ms).
	BatchDelay time.Duration `json:"batch_delay"`
	// RequestsPerSecond limits model calls; 0 means unlimited.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	// Structured asks the judge for a JSON verdict.
	Structured bool `json:"structured,omitempty"`
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2048
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	return c
}

// Validate checks that the configuration can build a client.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("judge API key is required")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requests per second cannot be negative")
	}
	return c.retry().Validate()
}

func (c Config) retry() retry.Config {
	return retry.Config{Attempts: c.RetryAttempts, Delay: c.RetryDelay}
}
