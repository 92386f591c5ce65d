/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/ragjudge/evaluation/retry"
)

func TestDo_Success(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	got, attempts, err := retry.Do(context.Background(), retry.Config{Attempts: 3, Delay: time.Millisecond}, "test_op", func(int) (string, error) {
		calls.Add(1)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("result = %q, wanted = %q", got, "ok")
	}
	if attempts != 1 || calls.Load() != 1 {
		t.Errorf("attempts = %d, calls = %d, wanted = 1", attempts, calls.Load())
	}
}

func TestDo_LinearBackoff(t *testing.T) {
	t.Parallel()
	const delay = 20 * time.Millisecond
	var stamps []time.Time

	_, attempts, err := retry.Do(context.Background(), retry.Config{Attempts: 3, Delay: delay}, "test_op", func(attempt int) (int, error) {
		stamps = append(stamps, time.Now())
		if attempt < 3 {
			return 0, errors.New("transient")
		}
		return attempt, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, wanted = 3", attempts)
	}
	if gap := stamps[1].Sub(stamps[0]); gap < delay {
		t.Errorf("first gap = %v, wanted >= %v", gap, delay)
	}
	if gap := stamps[2].Sub(stamps[1]); gap < 2*delay {
		t.Errorf("second gap = %v, wanted >= %v", gap, 2*delay)
	}
}

func TestDo_Exhausted(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("boom")
	var calls atomic.Int32

	_, attempts, err := retry.Do(context.Background(), retry.Config{Attempts: 3, Delay: time.Millisecond}, "test_op", func(int) (int, error) {
		calls.Add(1)
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, wanted wrapping %v", err, sentinel)
	}
	if attempts != 3 || calls.Load() != 3 {
		t.Errorf("attempts = %d, calls = %d, wanted = 3", attempts, calls.Load())
	}
}

func TestDo_Permanent(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("unauthorized")
	var calls atomic.Int32

	_, _, err := retry.Do(context.Background(), retry.Config{Attempts: 5, Delay: time.Millisecond}, "test_op", func(int) (int, error) {
		calls.Add(1)
		return 0, retry.Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) || !retry.IsPermanent(err) {
		t.Fatalf("err = %v, wanted permanent %v", err, sentinel)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, wanted = 1", got)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	start := time.Now()
	_, _, err := retry.Do(ctx, retry.Config{Attempts: 3, Delay: time.Hour}, "test_op", func(int) (int, error) {
		calls.Add(1)
		cancel()
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, wanted context.Canceled", err)
	}
	if time.Since(start) > time.Minute {
		t.Error("backoff was not interrupted")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, wanted = 1", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     retry.Config
		wantErr bool
	}{
		{"default", retry.DefaultConfig(), false},
		{"zero attempts", retry.Config{Attempts: 0}, true},
		{"negative delay", retry.Config{Attempts: 1, Delay: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
