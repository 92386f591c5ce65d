/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"strings"
	"time"

	"chainguard.dev/ragjudge/evaluation/evaluator"
)

const barWidth = 40

// renderProgress formats p as a single status line with a 40 cell bar.
func renderProgress(p evaluator.Progress) string {
	filled := int(p.ProgressPercentage / 100 * barWidth)
	filled = max(0, min(barWidth, filled))

	var b strings.Builder
	fmt.Fprintf(&b, "[%s%s] %5.1f%% %d/%d",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled),
		p.ProgressPercentage, p.CurrentSample, p.TotalSamples)

	switch {
	case p.Status != evaluator.StatusRunning:
		fmt.Fprintf(&b, " %s", p.Status)
	case p.CurrentMetric != "":
		fmt.Fprintf(&b, " %s", p.CurrentMetric)
	}
	if p.EstimatedTimeRemaining > 0 {
		fmt.Fprintf(&b, " ETA %s", p.EstimatedTimeRemaining.Round(time.Second))
	}
	// Pad so a shorter line fully overwrites the previous one.
	return fmt.Sprintf("%-100s", b.String())
}
