/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package stats

import (
	"math"
	"slices"
)

// Bucket labels of a score distribution, lowest first.
const (
	Bucket0to2  = "0.0-0.2"
	Bucket2to4  = "0.2-0.4"
	Bucket4to6  = "0.4-0.6"
	Bucket6to8  = "0.6-0.8"
	Bucket8to10 = "0.8-1.0"
)

// Buckets returns the distribution labels in ascending order.
func Buckets() []string {
	return []string{Bucket0to2, Bucket2to4, Bucket4to6, Bucket6to8, Bucket8to10}
}

// Distribution counts scores per bucket. It always carries all five keys.
type Distribution map[string]int

// Summary describes the scores of one metric across a run.
type Summary struct {
	Average      float64      `json:"average"`
	Min          float64      `json:"min"`
	Max          float64      `json:"max"`
	Median       float64      `json:"median"`
	StdDev       float64      `json:"std_dev"`
	Distribution Distribution `json:"distribution"`
}

// Empty returns the summary of no scores: zeros and empty buckets.
func Empty() Summary {
	return Summary{Distribution: newDistribution()}
}

func newDistribution() Distribution {
	d := make(Distribution, 5)
	for _, b := range Buckets() {
		d[b] = 0
	}
	return d
}

// Summarize computes the statistics of scores. The median is the element at
// index n/2 of the sorted scores, so for even n it is the upper of the two
// middle values. StdDev is the population standard deviation.
func Summarize(scores []float64) Summary {
	if len(scores) == 0 {
		return Empty()
	}

	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	n := float64(len(sorted))
	mean := sum / n

	var sq float64
	for _, s := range sorted {
		sq += (s - mean) * (s - mean)
	}

	dist := newDistribution()
	for _, s := range sorted {
		dist[bucketFor(s)]++
	}

	return Summary{
		Average:      mean,
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Median:       sorted[len(sorted)/2],
		StdDev:       math.Sqrt(sq / n),
		Distribution: dist,
	}
}

// bucketFor places s in a half-open bucket; the top bucket also includes 1.0.
// Scores outside [0, 1] land in the nearest edge bucket.
func bucketFor(s float64) string {
	switch {
	case s < 0.2:
		return Bucket0to2
	case s < 0.4:
		return Bucket2to4
	case s < 0.6:
		return Bucket4to6
	case s < 0.8:
		return Bucket6to8
	default:
		return Bucket8to10
	}
}
