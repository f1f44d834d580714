package search

import (
	"fmt"
	"sort"

	"codextuner/internal/profile"
)

// Metric selects the ranking rule used to compare candidate results.
type Metric string

const (
	// MetricObjective ranks by the benchmark's balanced objective first.
	MetricObjective Metric = "objective"
	// MetricScore ranks by average score first.
	MetricScore Metric = "score"
	// MetricInsane ranks by max score first and unlocks the chaos strategy.
	MetricInsane Metric = "insane"
)

func ParseMetric(raw string) (Metric, error) {
	switch Metric(raw) {
	case MetricObjective, MetricScore, MetricInsane:
		return Metric(raw), nil
	default:
		return "", fmt.Errorf("unknown selection metric: %s", raw)
	}
}

// Result is one candidate's benchmark outcome plus its position within the
// session.
type Result struct {
	Iteration      int
	Candidate      int
	Strategy       string
	ObjectiveValue float64
	AvgScore       float64
	MaxScore       int
	AvgFrames      float64
	OutDir         string
	Profile        profile.Profile
}

// Tuple projects a result onto the metric's 4-tuple, compared
// lexicographically descending.
func (m Metric) Tuple(r Result) [4]float64 {
	switch m {
	case MetricScore:
		return [4]float64{r.AvgScore, float64(r.MaxScore), r.ObjectiveValue, r.AvgFrames}
	case MetricInsane:
		return [4]float64{float64(r.MaxScore), r.AvgScore, r.ObjectiveValue, r.AvgFrames}
	default:
		return [4]float64{r.ObjectiveValue, r.AvgScore, float64(r.MaxScore), r.AvgFrames}
	}
}

// Better reports whether a strictly outranks b under the metric.
func (m Metric) Better(a, b Result) bool {
	left, right := m.Tuple(a), m.Tuple(b)
	for i := range left {
		if left[i] != right[i] {
			return left[i] > right[i]
		}
	}
	return false
}

// Rank returns a copy of results sorted best-first under the metric. Ties
// keep their evaluation order.
func (m Metric) Rank(results []Result) []Result {
	ranked := append([]Result(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return m.Better(ranked[i], ranked[j])
	})
	return ranked
}
