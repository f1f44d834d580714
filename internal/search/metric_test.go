package search

import (
	"math"
	"testing"
)

func result(objective, avgScore float64, maxScore int, avgFrames float64) Result {
	return Result{
		ObjectiveValue: objective,
		AvgScore:       avgScore,
		MaxScore:       maxScore,
		AvgFrames:      avgFrames,
	}
}

func TestParseMetric(t *testing.T) {
	for _, raw := range []string{"objective", "score", "insane"} {
		if _, err := ParseMetric(raw); err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
	}
	if _, err := ParseMetric("bogus"); err == nil {
		t.Fatal("expected unknown metric error")
	}
}

func TestMetricPriorities(t *testing.T) {
	highObjective := result(10, 1, 1, 1)
	highAvg := result(1, 10, 1, 1)
	highMax := result(1, 1, 10, 1)

	if !MetricObjective.Better(highObjective, highAvg) {
		t.Fatal("objective metric should prefer objective value")
	}
	if !MetricScore.Better(highAvg, highObjective) {
		t.Fatal("score metric should prefer avg score")
	}
	if !MetricInsane.Better(highMax, highAvg) {
		t.Fatal("insane metric should prefer max score")
	}
}

func TestMetricTieBreaks(t *testing.T) {
	a := result(5, 2, 3, 100)
	b := result(5, 2, 3, 90)
	if !MetricObjective.Better(a, b) {
		t.Fatal("avg frames should break full ties")
	}
	equal := result(5, 2, 3, 100)
	if MetricObjective.Better(a, equal) || MetricObjective.Better(equal, a) {
		t.Fatal("identical tuples must not outrank each other")
	}
}

func TestMetricStrictTotalOrder(t *testing.T) {
	rows := []Result{
		result(5, 1, 0, 0),
		result(3, 9, 2, 1),
		result(3, 9, 1, 7),
		result(-2, 0, 0, 0),
	}
	for _, metric := range []Metric{MetricObjective, MetricScore, MetricInsane} {
		for i, a := range rows {
			for j, b := range rows {
				if i == j {
					continue
				}
				forward := metric.Better(a, b)
				backward := metric.Better(b, a)
				if forward && backward {
					t.Fatalf("metric %s is not antisymmetric for %d/%d", metric, i, j)
				}
				if !forward && !backward && metric.Tuple(a) != metric.Tuple(b) {
					t.Fatalf("metric %s has incomparable distinct rows %d/%d", metric, i, j)
				}
			}
		}

		ranked := metric.Rank(rows)
		for i := 0; i+1 < len(ranked); i++ {
			if metric.Better(ranked[i+1], ranked[i]) {
				t.Fatalf("metric %s rank order violated at %d", metric, i)
			}
		}
		// Transitivity along the ranked chain.
		for i := 0; i+2 < len(ranked); i++ {
			if metric.Better(ranked[i+2], ranked[i]) {
				t.Fatalf("metric %s is not transitive at %d", metric, i)
			}
		}
	}
}

func TestSentinelRanksLast(t *testing.T) {
	sentinel := result(math.Inf(-1), math.Inf(-1), 0, 0)
	modest := result(-1000, 0, 0, 0)
	for _, metric := range []Metric{MetricObjective, MetricScore, MetricInsane} {
		if !metric.Better(modest, sentinel) {
			t.Fatalf("metric %s: real result should outrank sentinel", metric)
		}
		if metric.Better(sentinel, modest) {
			t.Fatalf("metric %s: sentinel must never outrank a real result", metric)
		}
	}
}

func TestRankStableOnTies(t *testing.T) {
	first := result(1, 1, 1, 1)
	first.Candidate = 0
	second := result(1, 1, 1, 1)
	second.Candidate = 1

	ranked := MetricScore.Rank([]Result{first, second})
	if ranked[0].Candidate != 0 || ranked[1].Candidate != 1 {
		t.Fatalf("tie order changed: %d then %d", ranked[0].Candidate, ranked[1].Candidate)
	}
}
