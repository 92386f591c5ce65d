/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluator

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"chainguard.dev/ragjudge/evaluation/metric"
)

// SaveJSON writes s to path as indented JSON, creating parent directories.
func SaveJSON(s *Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadJSON reads a summary written by SaveJSON.
func LoadJSON(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// csvHeader is the column layout of ExportCSV.
func csvHeader() []string {
	header := []string{"sample_id", "query", "generation", "ground_truth", "context"}
	for _, name := range metric.All() {
		header = append(header, string(name)+"_score", string(name)+"_reasoning")
	}
	return append(header, "timestamp")
}

// ExportCSV writes one row per result to path. Scores are formatted with
// three decimals; metrics that were not run leave both cells empty.
func ExportCSV(s *Summary, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes the CSV export of s to w.
func WriteCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader()); err != nil {
		return err
	}
	for _, r := range s.Results {
		row := []string{r.SampleID, r.Query, r.Generation, r.GroundTruth, r.Context}
		for _, name := range metric.All() {
			if score, ok := r.Scores.Get(name); ok {
				row = append(row, strconv.FormatFloat(score.Score, 'f', 3, 64), score.Reasoning)
			} else {
				row = append(row, "", "")
			}
		}
		row = append(row, r.Timestamp.Format(time.RFC3339))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSVScores reads the score columns of a CSV export, keyed by sample id.
// Empty score cells are omitted.
func ReadCSVScores(r io.Reader) (map[string]map[metric.Name]float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	idCol, ok := cols["sample_id"]
	if !ok {
		return nil, errors.New("missing sample_id column")
	}

	out := make(map[string]map[metric.Name]float64)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		scores := make(map[metric.Name]float64)
		for _, name := range metric.All() {
			col, ok := cols[string(name)+"_score"]
			if !ok || col >= len(row) || row[col] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, fmt.Errorf("sample %s: %s_score: %w", row[idCol], name, err)
			}
			scores[name] = v
		}
		out[row[idCol]] = scores
	}
}
