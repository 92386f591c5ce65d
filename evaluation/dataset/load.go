/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader reads a dataset from a path.
type Loader interface {
	Load(ctx context.Context, path string) (*Dataset, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (*Dataset, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (*Dataset, error) {
	return f(ctx, path)
}

// FileLoader loads .csv, .json, .yaml and .yml files from disk.
var FileLoader Loader = LoaderFunc(Load)

// Load reads the dataset at path, choosing the format by extension.
// The dataset is named after the file without its extension.
func Load(ctx context.Context, path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var ds *Dataset
	switch ext {
	case ".csv":
		samples, err := ParseCSV(ctx, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		ds = &Dataset{Samples: samples}
	case ".json":
		ds, err = parseDocument(data, json.Unmarshal)
	case ".yaml", ".yml":
		ds, err = parseDocument(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (expected .csv, .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if ds.Name == "" {
		ds.Name = name
	}
	ds.Source = path
	ds.LoadedAt = time.Now().UTC()
	return ds, nil
}

// parseDocument accepts either a bare list of samples or an object with
// name and samples fields.
func parseDocument(data []byte, unmarshal func([]byte, any) error) (*Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty dataset document")
	}

	ds := &Dataset{}
	if err := unmarshal(data, &ds.Samples); err != nil {
		ds = &Dataset{}
		if err := unmarshal(data, ds); err != nil {
			return nil, err
		}
	}
	normalize(ds.Samples)
	return ds, nil
}
