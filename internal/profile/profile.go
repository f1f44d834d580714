// Package profile defines the canonical autopilot weight profile: a fixed set
// of bounded scale values plus the fire-quality delta, always handled in
// normalized form outside internal computation.
package profile

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
)

// DeltaKey is the single additive field of the profile; every other key is a
// multiplicative scale.
const DeltaKey = "min_fire_quality_delta"

// ScaleKeys lists the multiplicative weight-scale keys in their canonical
// order. Generation code indexes into this slice, so the order is load-bearing
// for seeded reproducibility.
var ScaleKeys = []string{
	"risk_weight_scale",
	"survival_weight_scale",
	"aggression_weight_scale",
	"fire_reward_scale",
	"shot_penalty_scale",
	"miss_fire_penalty_scale",
	"action_penalty_scale",
	"turn_penalty_scale",
	"thrust_penalty_scale",
	"center_weight_scale",
	"edge_penalty_scale",
	"lookahead_frames_scale",
	"flow_weight_scale",
	"speed_soft_cap_scale",
	"fire_distance_scale",
	"lurk_trigger_scale",
	"lurk_boost_scale",
	"fire_tolerance_scale",
}

// Bounds is a closed [Lo, Hi] interval with Lo < Hi.
type Bounds struct {
	Lo float64
	Hi float64
}

// ScaleBounds declares the legal interval for every scale key.
var ScaleBounds = map[string]Bounds{
	"risk_weight_scale":       {0.35, 2.3},
	"survival_weight_scale":   {0.35, 2.4},
	"aggression_weight_scale": {0.4, 2.6},
	"fire_reward_scale":       {0.35, 2.6},
	"shot_penalty_scale":      {0.25, 2.2},
	"miss_fire_penalty_scale": {0.25, 2.4},
	"action_penalty_scale":    {0.25, 1.7},
	"turn_penalty_scale":      {0.25, 1.7},
	"thrust_penalty_scale":    {0.25, 1.7},
	"center_weight_scale":     {0.25, 2.2},
	"edge_penalty_scale":      {0.25, 2.4},
	"lookahead_frames_scale":  {0.55, 1.8},
	"flow_weight_scale":       {0.35, 2.4},
	"speed_soft_cap_scale":    {0.6, 1.9},
	"fire_distance_scale":     {0.55, 1.9},
	"lurk_trigger_scale":      {0.5, 2.0},
	"lurk_boost_scale":        {0.5, 2.5},
	"fire_tolerance_scale":    {0.5, 2.6},
}

// DeltaBounds declares the legal interval for DeltaKey.
var DeltaBounds = Bounds{-0.35, 0.3}

// Profile maps profile keys to values. Values are only meaningful after
// Normalize; transformations return fresh normalized copies and never mutate
// their inputs.
type Profile map[string]float64

// Keys returns every profile key, scale keys first, in canonical order.
func Keys() []string {
	keys := make([]string, 0, len(ScaleKeys)+1)
	keys = append(keys, ScaleKeys...)
	keys = append(keys, DeltaKey)
	return keys
}

func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Round6 rounds to six decimals so signatures stay stable across
// floating-point noise.
func Round6(value float64) float64 {
	return math.Round(value*1e6) / 1e6
}

// Normalize clamps every scale key into its bounds and the delta field into
// its own, rounding to fixed precision. Missing scale keys default to 1.0 and
// a missing delta to 0.0. Normalize is idempotent.
func Normalize(p Profile) Profile {
	out := make(Profile, len(ScaleKeys)+1)
	for _, key := range ScaleKeys {
		bounds := ScaleBounds[key]
		value, ok := p[key]
		if !ok {
			value = 1.0
		}
		out[key] = Round6(Clamp(value, bounds.Lo, bounds.Hi))
	}
	delta, ok := p[DeltaKey]
	if !ok {
		delta = 0.0
	}
	out[DeltaKey] = Round6(Clamp(delta, DeltaBounds.Lo, DeltaBounds.Hi))
	return out
}

// Signature returns the canonical key-sorted compact serialization of the
// normalized profile. It is used only for exact-duplicate detection.
func Signature(p Profile) string {
	data, err := json.Marshal(Normalize(p))
	if err != nil {
		// A map[string]float64 of normalized (finite) values cannot fail to
		// marshal.
		panic(err)
	}
	return string(data)
}

// Clone returns a shallow copy of p.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for key, value := range p {
		out[key] = value
	}
	return out
}

// Blend returns the normalized convex combination alpha*a + (1-alpha)*b.
func Blend(a, b Profile, alpha float64) Profile {
	alpha = Clamp(alpha, 0.0, 1.0)
	out := make(Profile, len(ScaleKeys)+1)
	for _, key := range ScaleKeys {
		out[key] = a[key]*alpha + b[key]*(1.0-alpha)
	}
	out[DeltaKey] = a[DeltaKey]*alpha + b[DeltaKey]*(1.0-alpha)
	return Normalize(out)
}

// Delta returns the per-key difference newer-older. The result is a change
// vector, not a profile, so it is rounded but deliberately not clamped.
func Delta(newer, older Profile) Profile {
	out := make(Profile, len(ScaleKeys)+1)
	for _, key := range Keys() {
		out[key] = Round6(newer[key] - older[key])
	}
	return out
}

// ApplyMomentum shifts base by momentum scaled elementwise and normalizes the
// result.
func ApplyMomentum(base, momentum Profile, scale float64) Profile {
	out := base.Clone()
	for _, key := range Keys() {
		out[key] = base[key] + momentum[key]*scale
	}
	return Normalize(out)
}

// Load reads a profile JSON file and returns it normalized.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return Normalize(p), nil
}

// Write persists a profile as indented JSON, creating parent directories.
func Write(path string, p Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
