/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import "fmt"

// JudgeCallError is returned when an evaluation fails after all retries.
type JudgeCallError struct {
	// Template is the name of the template being evaluated.
	Template string
	// Attempts is the number of model calls made.
	Attempts int
	// Err is the error of the last attempt.
	Err error
}

func (e *JudgeCallError) Error() string {
	return fmt.Sprintf("judge call for %q failed after %d attempts: %v", e.Template, e.Attempts, e.Err)
}

func (e *JudgeCallError) Unwrap() error {
	return e.Err
}
