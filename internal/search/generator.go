package search

import (
	"fmt"
	"math/rand"

	"codextuner/internal/profile"
)

// DefaultMutationAttempts bounds the fill loop that retries standard mutation
// until enough distinct candidates exist.
const DefaultMutationAttempts = 320

// Strategy tags recorded per candidate. Anchor-derived strategies append the
// anchor label to the blend/anchor_mutate prefixes.
const (
	StrategyIncumbent        = "incumbent"
	StrategyMomentum         = "momentum"
	StrategyBlendLastGain    = "blend_last_gain"
	StrategyEscape           = "escape"
	StrategyChaos            = "chaos"
	StrategyMutate           = "mutate"
	StrategyMutateAggressive = "mutate_aggressive"
)

// Anchor is a named reference profile used to pull search away from local
// optima.
type Anchor struct {
	Label   string
	Profile profile.Profile
}

// Candidate is a normalized profile tagged with the strategy that produced it.
type Candidate struct {
	Profile  profile.Profile
	Strategy string
}

// PlanInput is the engine state a generation round reads. Momentum and
// LastGain are nil until the first improving iteration.
type PlanInput struct {
	Incumbent  profile.Profile
	Momentum   profile.Profile
	LastGain   profile.Profile
	Anchors    []Anchor
	Stagnation int
	SearchStep float64
}

// Generator produces one iteration's candidate set. All randomness flows
// through Rand, so a fixed seed and call order replay the same candidates.
type Generator struct {
	Rand             *rand.Rand
	Count            int
	Metric           Metric
	MutationAttempts int
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Mutate perturbs a random subset of scale keys multiplicatively within
// [1-step, 1+step] and usually shifts the delta field by a smaller additive
// step. The result is normalized.
func Mutate(base profile.Profile, r *rand.Rand, step float64, minFields, maxFields int, deltaScale float64) profile.Profile {
	out := base.Clone()

	if minFields < 1 {
		minFields = 1
	}
	if minFields > len(profile.ScaleKeys) {
		minFields = len(profile.ScaleKeys)
	}
	if maxFields < minFields {
		maxFields = minFields
	}
	if maxFields > len(profile.ScaleKeys) {
		maxFields = len(profile.ScaleKeys)
	}
	fieldCount := minFields + r.Intn(maxFields-minFields+1)

	for _, idx := range r.Perm(len(profile.ScaleKeys))[:fieldCount] {
		key := profile.ScaleKeys[idx]
		factor := 1.0 + uniform(r, -step, step)
		out[key] = out[key] * factor
	}

	if r.Float64() < 0.95 {
		deltaStep := step * deltaScale
		if deltaStep < 0.01 {
			deltaStep = 0.01
		}
		out[profile.DeltaKey] += uniform(r, -deltaStep, deltaStep)
	}

	return profile.Normalize(out)
}

// MutateAggressive widens the jitter over more fields and occasionally hard
// resets one scale key to a fresh uniform draw to escape plateaus.
func MutateAggressive(base profile.Profile, r *rand.Rand, step float64) profile.Profile {
	out := Mutate(base, r, step*1.75, 6, len(profile.ScaleKeys), 0.2)

	if r.Float64() < 0.45 {
		key := profile.ScaleKeys[r.Intn(len(profile.ScaleKeys))]
		bounds := profile.ScaleBounds[key]
		out[key] = profile.Round6(uniform(r, bounds.Lo, bounds.Hi))
	}

	return profile.Normalize(out)
}

// Plan fills candidate slots up to Count, skipping strategies whose
// preconditions are unmet and rejecting any candidate whose signature was
// already produced this iteration. Exhausting the mutation attempt budget
// before reaching Count distinct candidates is a fatal error.
func (g *Generator) Plan(in PlanInput) ([]Candidate, error) {
	r := g.Rand
	budget := g.MutationAttempts
	if budget <= 0 {
		budget = DefaultMutationAttempts
	}

	candidates := make([]Candidate, 0, g.Count)
	seen := make(map[string]bool, g.Count)
	push := func(p profile.Profile, strategy string) bool {
		normalized := profile.Normalize(p)
		sig := profile.Signature(normalized)
		if seen[sig] {
			return false
		}
		seen[sig] = true
		candidates = append(candidates, Candidate{Profile: normalized, Strategy: strategy})
		return true
	}

	push(in.Incumbent, StrategyIncumbent)

	if in.Momentum != nil && len(candidates) < g.Count {
		scale := 1.0 + uniform(r, -0.25, 0.45)
		push(profile.ApplyMomentum(in.Incumbent, in.Momentum, scale), StrategyMomentum)
	}

	if in.LastGain != nil && len(candidates) < g.Count {
		alpha := 0.5 + uniform(r, -0.18, 0.18)
		push(profile.Blend(in.Incumbent, in.LastGain, alpha), StrategyBlendLastGain)
	}

	if len(in.Anchors) > 0 && len(candidates) < g.Count {
		anchor := in.Anchors[r.Intn(len(in.Anchors))]
		alpha := 0.58 + uniform(r, -0.32, 0.2)
		push(profile.Blend(in.Incumbent, anchor.Profile, alpha), "blend_"+anchor.Label)
	}

	if len(in.Anchors) > 0 && len(candidates) < g.Count && (in.Stagnation >= 1 || g.Metric == MetricInsane) {
		anchor := in.Anchors[r.Intn(len(in.Anchors))]
		anchorStep := in.SearchStep * (1.35 + uniform(r, -0.1, 0.5))
		seed := Mutate(anchor.Profile, r, anchorStep, 5, len(profile.ScaleKeys), 0.24)
		alpha := 0.35 + uniform(r, -0.12, 0.16)
		push(profile.Blend(seed, in.Incumbent, alpha), "anchor_mutate_"+anchor.Label)
	}

	if in.Stagnation >= 2 && len(candidates) < g.Count {
		push(MutateAggressive(in.Incumbent, r, in.SearchStep), StrategyEscape)
	}

	if g.Metric == MetricInsane && len(candidates) < g.Count {
		chaos := MutateAggressive(in.Incumbent, r, in.SearchStep*1.45)
		if r.Float64() < 0.72 {
			resets := 1 + r.Intn(3)
			for _, idx := range r.Perm(len(profile.ScaleKeys))[:resets] {
				key := profile.ScaleKeys[idx]
				bounds := profile.ScaleBounds[key]
				chaos[key] = profile.Round6(uniform(r, bounds.Lo, bounds.Hi))
			}
			if r.Float64() < 0.55 {
				chaos[profile.DeltaKey] = profile.Round6(uniform(r, profile.DeltaBounds.Lo, profile.DeltaBounds.Hi))
			}
		}
		push(chaos, StrategyChaos)
	}

	attempts := 0
	for len(candidates) < g.Count && attempts < budget {
		attempts++
		localStep := in.SearchStep * (1.0 + uniform(r, -0.15, 0.35))
		if in.Stagnation >= 2 {
			localStep *= 1.2
		}
		if g.Metric == MetricInsane {
			localStep *= 1.2 + uniform(r, -0.08, 0.32)
			if r.Float64() < 0.24 {
				push(MutateAggressive(in.Incumbent, r, localStep), StrategyMutateAggressive)
			} else {
				push(Mutate(in.Incumbent, r, localStep, 4, len(profile.ScaleKeys), 0.18), StrategyMutate)
			}
		} else {
			push(Mutate(in.Incumbent, r, localStep, 3, 7, 0.1), StrategyMutate)
		}
	}

	if len(candidates) < g.Count {
		return nil, fmt.Errorf("could not generate %d unique candidates (got %d)", g.Count, len(candidates))
	}
	return candidates, nil
}
