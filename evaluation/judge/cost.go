/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

// Per-call token estimates and Gemini Flash-Lite list prices in USD per million tokens.
const (
	estimatedInputTokens  = 500
	estimatedOutputTokens = 300
	inputPricePerMillion  = 0.075
	outputPricePerMillion = 0.30
)

// Cost is a rough estimate of what an evaluation run will spend.
type Cost struct {
	Calls        int     `json:"calls"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	USD          float64 `json:"usd"`
}

// EstimateCost assumes one judge call per sample and metric.
func EstimateCost(samples, metrics int) Cost {
	calls := max(samples, 0) * max(metrics, 0)
	in := int64(calls) * estimatedInputTokens
	out := int64(calls) * estimatedOutputTokens
	return Cost{
		Calls:        calls,
		InputTokens:  in,
		OutputTokens: out,
		USD:          float64(in)/1e6*inputPricePerMillion + float64(out)/1e6*outputPricePerMillion,
	}
}
