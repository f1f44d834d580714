package search

import (
	"math/rand"
	"reflect"
	"testing"

	"codextuner/internal/profile"
)

func testIncumbent() profile.Profile {
	return profile.Normalize(nil)
}

func strategies(candidates []Candidate) []string {
	tags := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		tags = append(tags, candidate.Strategy)
	}
	return tags
}

func hasStrategy(candidates []Candidate, tag string) bool {
	for _, candidate := range candidates {
		if candidate.Strategy == tag {
			return true
		}
	}
	return false
}

func TestPlanDeterministicForSeed(t *testing.T) {
	in := PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18}

	first := &Generator{Rand: rand.New(rand.NewSource(7)), Count: 6, Metric: MetricScore}
	second := &Generator{Rand: rand.New(rand.NewSource(7)), Count: 6, Metric: MetricScore}

	a, err := first.Plan(in)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	b, err := second.Plan(in)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different candidates:\n%v\n%v", strategies(a), strategies(b))
	}
}

func TestPlanIncumbentFirstAndDistinct(t *testing.T) {
	gen := &Generator{Rand: rand.New(rand.NewSource(11)), Count: 6, Metric: MetricScore}
	candidates, err := gen.Plan(PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(candidates) != 6 {
		t.Fatalf("expected 6 candidates, got %d", len(candidates))
	}
	if candidates[0].Strategy != StrategyIncumbent {
		t.Fatalf("first candidate must be the incumbent carry-over, got %s", candidates[0].Strategy)
	}

	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		sig := profile.Signature(candidate.Profile)
		if seen[sig] {
			t.Fatalf("duplicate signature within one iteration: %s", candidate.Strategy)
		}
		seen[sig] = true
	}
}

func TestPlanMomentumRequiresHistory(t *testing.T) {
	gen := &Generator{Rand: rand.New(rand.NewSource(3)), Count: 6, Metric: MetricScore}
	without, err := gen.Plan(PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if hasStrategy(without, StrategyMomentum) {
		t.Fatal("momentum strategy without any improving step")
	}

	momentum := profile.Profile{}
	for _, key := range profile.Keys() {
		momentum[key] = 0.0
	}
	momentum["risk_weight_scale"] = 0.2

	gen = &Generator{Rand: rand.New(rand.NewSource(3)), Count: 6, Metric: MetricScore}
	with, err := gen.Plan(PlanInput{Incumbent: testIncumbent(), Momentum: momentum, SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !hasStrategy(with, StrategyMomentum) {
		t.Fatal("expected momentum strategy once momentum exists")
	}
}

func TestPlanEscapeRequiresStagnation(t *testing.T) {
	calm := &Generator{Rand: rand.New(rand.NewSource(5)), Count: 8, Metric: MetricScore}
	candidates, err := calm.Plan(PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if hasStrategy(candidates, StrategyEscape) {
		t.Fatal("escape strategy without stagnation")
	}

	stuck := &Generator{Rand: rand.New(rand.NewSource(5)), Count: 8, Metric: MetricScore}
	candidates, err = stuck.Plan(PlanInput{Incumbent: testIncumbent(), Stagnation: 2, SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !hasStrategy(candidates, StrategyEscape) {
		t.Fatal("expected escape strategy after two stagnant iterations")
	}
}

func TestPlanChaosOnlyUnderInsane(t *testing.T) {
	insane := &Generator{Rand: rand.New(rand.NewSource(9)), Count: 8, Metric: MetricInsane}
	candidates, err := insane.Plan(PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !hasStrategy(candidates, StrategyChaos) {
		t.Fatal("expected chaos strategy under insane metric")
	}

	score := &Generator{Rand: rand.New(rand.NewSource(9)), Count: 8, Metric: MetricScore}
	candidates, err = score.Plan(PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if hasStrategy(candidates, StrategyChaos) {
		t.Fatal("chaos strategy outside the insane metric")
	}
}

func TestPlanAnchorBlend(t *testing.T) {
	anchor := profile.Normalize(profile.Profile{"risk_weight_scale": 2.0})
	gen := &Generator{Rand: rand.New(rand.NewSource(13)), Count: 6, Metric: MetricScore}
	candidates, err := gen.Plan(PlanInput{
		Incumbent:  testIncumbent(),
		Anchors:    []Anchor{{Label: "base", Profile: anchor}},
		SearchStep: 0.18,
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !hasStrategy(candidates, "blend_base") {
		t.Fatalf("expected anchor blend, got %v", strategies(candidates))
	}
}

func TestPlanExhaustionIsFatal(t *testing.T) {
	gen := &Generator{
		Rand:             rand.New(rand.NewSource(1)),
		Count:            4,
		Metric:           MetricScore,
		MutationAttempts: 1,
	}
	if _, err := gen.Plan(PlanInput{Incumbent: testIncumbent(), SearchStep: 0.18}); err == nil {
		t.Fatal("expected generation exhaustion error")
	}
}

func TestMutateStaysWithinBounds(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	base := testIncumbent()
	for i := 0; i < 50; i++ {
		out := Mutate(base, r, 0.5, 3, 7, 0.1)
		for _, key := range profile.ScaleKeys {
			bounds := profile.ScaleBounds[key]
			if out[key] < bounds.Lo || out[key] > bounds.Hi {
				t.Fatalf("%s=%f outside bounds after mutate", key, out[key])
			}
		}
		if out[profile.DeltaKey] < profile.DeltaBounds.Lo || out[profile.DeltaKey] > profile.DeltaBounds.Hi {
			t.Fatalf("delta %f outside bounds after mutate", out[profile.DeltaKey])
		}
		base = out
	}
}

func TestMutateAggressiveStaysWithinBounds(t *testing.T) {
	r := rand.New(rand.NewSource(22))
	base := testIncumbent()
	for i := 0; i < 50; i++ {
		out := MutateAggressive(base, r, 0.4)
		for _, key := range profile.ScaleKeys {
			bounds := profile.ScaleBounds[key]
			if out[key] < bounds.Lo || out[key] > bounds.Hi {
				t.Fatalf("%s=%f outside bounds after aggressive mutate", key, out[key])
			}
		}
	}
}
