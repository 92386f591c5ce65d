/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Sample is one (question, generated answer, expected answer) triple.
// Samples are read-only once loaded.
type Sample struct {
	ID          string         `json:"id" yaml:"id"`
	Query       string         `json:"query" yaml:"query"`
	Generation  string         `json:"generation" yaml:"generation"`
	GroundTruth string         `json:"ground_truth" yaml:"ground_truth"`
	Context     string         `json:"context,omitempty" yaml:"context,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Category returns metadata["category"] as a string, or "".
func (s Sample) Category() string { return s.metaString("category") }

// Source returns metadata["source"] as a string, or "".
func (s Sample) Source() string { return s.metaString("source") }

// QuestionNumber returns metadata["question_number"], which may be stored
// as a number or a string, formatted as text.
func (s Sample) QuestionNumber() string { return s.metaString("question_number") }

func (s Sample) metaString(key string) string {
	v, ok := s.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Dataset is an ordered list of samples.
type Dataset struct {
	Name     string    `json:"name" yaml:"name"`
	Samples  []Sample  `json:"samples" yaml:"samples"`
	Source   string    `json:"source,omitempty" yaml:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at" yaml:"-"`
}

// Truncate returns the first n samples, or all of them when n <= 0.
func (d *Dataset) Truncate(n int) []Sample {
	if n <= 0 || n >= len(d.Samples) {
		return d.Samples
	}
	return d.Samples[:n]
}

func defaultID(i int) string {
	return fmt.Sprintf("sample_%d", i+1)
}

// normalize fills ids and metadata-derived context the way every loader does.
func normalize(samples []Sample) {
	for i := range samples {
		if samples[i].ID == "" {
			samples[i].ID = defaultID(i)
		}
		if samples[i].Context == "" {
			if c, ok := samples[i].Metadata["context"].(string); ok {
				samples[i].Context = c
			}
		}
	}
}
