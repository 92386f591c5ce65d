/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package store lists and retrieves evaluation summaries saved in a
// results directory.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"chainguard.dev/ragjudge/evaluation/evaluator"
	"chainguard.dev/ragjudge/evaluation/metric"
	"github.com/chainguard-dev/clog"
)

// DefaultDir is where the CLI keeps results unless told otherwise.
const DefaultDir = "datasets/evaluation_results"

// ErrNotFound is returned by Get when no summary has the requested id.
var ErrNotFound = errors.New("evaluation not found")

// Store is a directory of summaries written by evaluator.SaveJSON.
type Store struct {
	Dir string
}

// Entry is the listing view of one saved summary.
type Entry struct {
	EvaluationID     string                  `json:"evaluation_id"`
	DatasetName      string                  `json:"dataset_name"`
	TotalSamples     int                     `json:"total_samples"`
	CompletedSamples int                     `json:"completed_samples"`
	StartedAt        time.Time               `json:"started_at"`
	CompletedAt      time.Time               `json:"completed_at"`
	DurationSeconds  float64                 `json:"duration_seconds"`
	Averages         map[metric.Name]float64 `json:"metrics_summary"`
	Path             string                  `json:"-"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Path returns the file a run of dataset started at t is saved to:
// <unix-millis>_<dataset>_results.json inside Dir.
func (s Store) Path(dataset string, t time.Time) string {
	name := unsafeName.ReplaceAllString(dataset, "_")
	if name == "" {
		name = "dataset"
	}
	return filepath.Join(s.Dir, fmt.Sprintf("%d_%s_results.json", t.UnixMilli(), name))
}

func (s Store) files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		out = append(out, filepath.Join(s.Dir, e.Name()))
	}
	return out, nil
}

// List returns every readable summary, newest first. Files that cannot be
// parsed are logged and skipped. A missing directory lists as empty.
func (s Store) List(ctx context.Context) ([]Entry, error) {
	files, err := s.files()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.Dir, err)
	}

	entries := make([]Entry, 0, len(files))
	for _, path := range files {
		summary, err := evaluator.LoadJSON(path)
		if err != nil {
			clog.FromContext(ctx).With("path", path).With("error", err.Error()).
				Warn("Skipping unreadable results file")
			continue
		}
		entries = append(entries, entryFor(path, summary))
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return entries, nil
}

// Get returns the summary with the given evaluation id. A file whose name
// contains id is preferred; otherwise every file is checked.
func (s Store) Get(ctx context.Context, id string) (*evaluator.Summary, error) {
	if id == "" {
		return nil, errors.New("evaluation id is required")
	}
	files, err := s.files()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.Dir, err)
	}

	for _, path := range files {
		if strings.Contains(filepath.Base(path), id) {
			return evaluator.LoadJSON(path)
		}
	}
	for _, path := range files {
		summary, err := evaluator.LoadJSON(path)
		if err != nil {
			clog.FromContext(ctx).With("path", path).With("error", err.Error()).
				Debug("Skipping unreadable results file")
			continue
		}
		if summary.EvaluationID == id {
			return summary, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func entryFor(path string, s *evaluator.Summary) Entry {
	averages := make(map[metric.Name]float64, len(metric.All()))
	for _, name := range metric.All() {
		averages[name] = s.Metrics[name].Average
	}
	return Entry{
		EvaluationID:     s.EvaluationID,
		DatasetName:      s.DatasetName,
		TotalSamples:     s.TotalSamples,
		CompletedSamples: s.CompletedSamples,
		StartedAt:        s.StartedAt,
		CompletedAt:      s.CompletedAt,
		DurationSeconds:  s.DurationSeconds,
		Averages:         averages,
		Path:             path,
	}
}
