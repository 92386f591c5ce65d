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
	"time"

	"chainguard.dev/ragjudge/evaluation/retry"
	"chainguard.dev/ragjudge/evaluation/telemetry"
	"chainguard.dev/ragjudge/evaluation/templates"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConcurrency is the BatchEvaluate chunk size used when none is given.
const DefaultConcurrency = 3

// Client fills templates, sends them to a Model and parses the replies.
// It holds no per-run state and is safe for concurrent use.
type Client struct {
	model   Model
	cfg     Config
	limiter *rate.Limiter
	tel     *telemetry.Judge
}

// New builds a Client with the backend selected by cfg.Model.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tel := telemetry.NewJudge()
	model, err := NewModel(ctx, cfg, tel)
	if err != nil {
		return nil, err
	}
	return newClient(model, cfg, tel), nil
}

// NewClient wraps an existing Model. Unset fields of cfg take their defaults
// and the API key is not required.
func NewClient(model Model, cfg Config) *Client {
	return newClient(model, cfg.WithDefaults(), telemetry.NewJudge())
}

func newClient(model Model, cfg Config, tel *telemetry.Judge) *Client {
	c := &Client{model: model, cfg: cfg, tel: tel}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// ValidScore reports whether score lies in [0, 1].
func ValidScore(score float64) bool {
	return score >= 0 && score <= 1
}

// Evaluate fills tmpl with vars, asks the model and parses its reply.
// Failed calls and out-of-range scores are retried with a linear backoff;
// when every attempt fails a *JudgeCallError is returned.
func (c *Client) Evaluate(ctx context.Context, tmpl *templates.Template, vars map[string]string) (templates.Response, error) {
	if tmpl == nil {
		return templates.Response{}, errors.New("template is required")
	}

	prompt := templates.Fill(tmpl.Text, vars)
	if c.cfg.Structured {
		prompt += templates.StructuredSuffix()
	}

	ctx, span := c.tel.StartEvaluation(ctx, c.cfg.Model, tmpl.Name)
	start := time.Now()

	resp, attempts, err := retry.Do(ctx, c.cfg.retry(), tmpl.Name, func(int) (templates.Response, error) {
		raw, err := c.generate(ctx, prompt)
		if err != nil {
			return templates.Response{}, err
		}
		resp := tmpl.Parse(ctx, raw)
		if !ValidScore(resp.Score) {
			return templates.Response{}, fmt.Errorf("invalid score %v: must be between 0.0 and 1.0", resp.Score)
		}
		return resp, nil
	})
	if err != nil {
		err = &JudgeCallError{Template: tmpl.Name, Attempts: attempts, Err: err}
	}
	c.tel.RecordEvaluation(ctx, span, c.cfg.Model, tmpl.Name, attempts, time.Since(start), err)
	if err != nil {
		return templates.Response{}, err
	}
	return resp, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return c.model.Generate(ctx, prompt)
}

// Item is one BatchEvaluate request.
type Item struct {
	Template  *templates.Template
	Variables map[string]string
}

// BatchEvaluate evaluates items in chunks of concurrency, running each chunk
// in parallel and pausing BatchDelay between chunks. Results are returned in
// input order. The first item that fails fails the whole batch.
func (c *Client) BatchEvaluate(ctx context.Context, items []Item, concurrency int) ([]templates.Response, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]templates.Response, len(items))
	for start := 0; start < len(items); start += concurrency {
		end := min(start+concurrency, len(items))

		eg, egCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			eg.Go(func() error {
				resp, err := c.Evaluate(egCtx, items[i].Template, items[i].Variables)
				if err != nil {
					return fmt.Errorf("batch item %d: %w", i, err)
				}
				results[i] = resp
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		if end < len(items) && c.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.BatchDelay):
			}
		}
	}
	return results, nil
}

// Ping sends a trivial prompt to check that the model is reachable.
func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.generate(ctx, "Say OK")
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return errors.New("connection test failed: empty reply")
	}
	return nil
}
