package profile

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestBoundsTableInvariant(t *testing.T) {
	if len(ScaleKeys) != len(ScaleBounds) {
		t.Fatalf("scale keys and bounds disagree: %d vs %d", len(ScaleKeys), len(ScaleBounds))
	}
	for _, key := range ScaleKeys {
		bounds, ok := ScaleBounds[key]
		if !ok {
			t.Fatalf("missing bounds for %s", key)
		}
		if bounds.Lo >= bounds.Hi {
			t.Fatalf("bounds for %s are not lo < hi: %+v", key, bounds)
		}
	}
	if DeltaBounds.Lo >= DeltaBounds.Hi {
		t.Fatalf("delta bounds are not lo < hi: %+v", DeltaBounds)
	}
}

func TestNormalizeClampsAndDefaults(t *testing.T) {
	raw := Profile{
		"risk_weight_scale":     99.0,
		"survival_weight_scale": -4.0,
		DeltaKey:                1.5,
	}
	normalized := Normalize(raw)

	for _, key := range ScaleKeys {
		bounds := ScaleBounds[key]
		value, ok := normalized[key]
		if !ok {
			t.Fatalf("normalized profile missing %s", key)
		}
		if value < bounds.Lo || value > bounds.Hi {
			t.Fatalf("%s=%f outside [%f, %f]", key, value, bounds.Lo, bounds.Hi)
		}
	}
	if normalized["risk_weight_scale"] != ScaleBounds["risk_weight_scale"].Hi {
		t.Fatalf("expected risk clamp to hi, got %f", normalized["risk_weight_scale"])
	}
	if normalized["survival_weight_scale"] != ScaleBounds["survival_weight_scale"].Lo {
		t.Fatalf("expected survival clamp to lo, got %f", normalized["survival_weight_scale"])
	}
	if normalized["aggression_weight_scale"] != 1.0 {
		t.Fatalf("expected missing scale key default 1.0, got %f", normalized["aggression_weight_scale"])
	}
	if normalized[DeltaKey] != DeltaBounds.Hi {
		t.Fatalf("expected delta clamp to hi, got %f", normalized[DeltaKey])
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := Profile{
		"risk_weight_scale": 1.2345678912,
		"fire_reward_scale": 3.7,
		DeltaKey:            -0.123456789,
	}
	once := Normalize(raw)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize is not idempotent: %v vs %v", once, twice)
	}
}

func TestSignatureCollapsesOutOfRange(t *testing.T) {
	hi := ScaleBounds["lurk_boost_scale"].Hi
	a := Profile{"lurk_boost_scale": hi}
	b := Profile{"lurk_boost_scale": hi + 100}
	if Signature(a) != Signature(b) {
		t.Fatalf("expected clamped profiles to share a signature")
	}
	c := Profile{"lurk_boost_scale": hi - 0.1}
	if Signature(a) == Signature(c) {
		t.Fatalf("expected distinct profiles to differ")
	}
}

func TestBlendEndpoints(t *testing.T) {
	a := Normalize(Profile{"risk_weight_scale": 2.0, DeltaKey: 0.2})
	b := Normalize(Profile{"risk_weight_scale": 0.5, DeltaKey: -0.2})

	if !reflect.DeepEqual(Blend(a, b, 1.0), a) {
		t.Fatalf("alpha=1 should return a")
	}
	if !reflect.DeepEqual(Blend(a, b, 0.0), b) {
		t.Fatalf("alpha=0 should return b")
	}
	mid := Blend(a, b, 0.5)
	if mid["risk_weight_scale"] != 1.25 {
		t.Fatalf("expected midpoint 1.25, got %f", mid["risk_weight_scale"])
	}
	if mid[DeltaKey] != 0.0 {
		t.Fatalf("expected midpoint delta 0, got %f", mid[DeltaKey])
	}
}

func TestDeltaAndApplyMomentumRoundtrip(t *testing.T) {
	previous := Normalize(Profile{"risk_weight_scale": 1.0, "fire_reward_scale": 1.5, DeltaKey: 0.0})
	next := Normalize(Profile{"risk_weight_scale": 1.25, "fire_reward_scale": 1.4, DeltaKey: 0.05})

	momentum := Delta(next, previous)
	if momentum["risk_weight_scale"] != 0.25 {
		t.Fatalf("unexpected momentum: %f", momentum["risk_weight_scale"])
	}
	if momentum["fire_reward_scale"] != -0.1 {
		t.Fatalf("unexpected momentum: %f", momentum["fire_reward_scale"])
	}

	replayed := ApplyMomentum(previous, momentum, 1.0)
	if !reflect.DeepEqual(replayed, next) {
		t.Fatalf("momentum replay diverged: %v vs %v", replayed, next)
	}
}

func TestLoadWriteRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "profile.json")

	original := Normalize(Profile{"risk_weight_scale": 1.75, DeltaKey: -0.1})
	if err := Write(path, original); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, original) {
		t.Fatalf("roundtrip diverged: %v vs %v", loaded, original)
	}
}
