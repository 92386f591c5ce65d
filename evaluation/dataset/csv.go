/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chainguard-dev/clog"
)

// Column aliases accepted in CSV headers, in order of preference.
var (
	queryColumns       = []string{"input", "query", "question"}
	generationColumns  = []string{"generation", "output", "answer"}
	groundTruthColumns = []string{"expected_output", "ground_truth", "expected"}
)

// ParseCSV reads samples from a CSV stream with a header row.
// Headers are matched case-insensitively; a metadata column holding JSON is
// decoded into Sample.Metadata, and malformed JSON is logged and ignored.
func ParseCSV(ctx context.Context, r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty CSV: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}

	var samples []Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if isBlank(record) {
			continue
		}

		get := func(names ...string) string {
			for _, name := range names {
				if i, ok := columns[name]; ok && i < len(record) && record[i] != "" {
					return record[i]
				}
			}
			return ""
		}

		var metadata map[string]any
		if raw := strings.TrimSpace(get("metadata")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
				clog.FromContext(ctx).With("row", len(samples)+1).With("error", err.Error()).
					Warn("Failed to parse sample metadata, ignoring it")
				metadata = nil
			}
		}

		samples = append(samples, Sample{
			ID:          get("id"),
			Query:       get(queryColumns...),
			Generation:  get(generationColumns...),
			GroundTruth: get(groundTruthColumns...),
			Context:     get("context"),
			Metadata:    metadata,
		})
	}

	normalize(samples)
	return samples, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
