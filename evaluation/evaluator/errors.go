/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evaluator

import "fmt"

// ConfigError reports an invalid evaluation configuration. It is raised
// before any sample is processed.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("invalid evaluation config: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// DatasetLoadError reports a dataset that could not be read or parsed.
type DatasetLoadError struct {
	Path string
	Err  error
}

func (e *DatasetLoadError) Error() string {
	return fmt.Sprintf("loading dataset %s: %v", e.Path, e.Err)
}
func (e *DatasetLoadError) Unwrap() error { return e.Err }

// PersistenceError reports a failure to write results. The summary returned
// alongside it is complete.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("writing results to %s: %v", e.Path, e.Err)
}
func (e *PersistenceError) Unwrap() error { return e.Err }
