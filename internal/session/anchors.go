package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codextuner/internal/profile"
	"codextuner/internal/search"
)

// AnchorMode selects which reference profiles become anchors.
type AnchorMode string

const (
	// AnchorModeCore uses the base and champion profiles only.
	AnchorModeCore AnchorMode = "core"
	// AnchorModeAll adds archived champion-*.json profiles.
	AnchorModeAll AnchorMode = "all"
)

func ParseAnchorMode(raw string) (AnchorMode, error) {
	switch AnchorMode(raw) {
	case AnchorModeCore, AnchorModeAll:
		return AnchorMode(raw), nil
	default:
		return "", fmt.Errorf("unknown anchor mode: %s", raw)
	}
}

// LoadAnchors resolves the anchor set for a session. Missing sources are
// skipped, and any anchor whose signature equals incumbentSig is excluded so
// blends always pull toward a genuinely different profile.
func LoadAnchors(paths Paths, mode AnchorMode, incumbentSig string) ([]search.Anchor, error) {
	type source struct {
		label string
		path  string
	}
	sources := []source{
		{"base", paths.BaseProfilePath()},
		{"champion", paths.ChampionProfilePath()},
	}

	if mode == AnchorModeAll {
		seen := make(map[string]bool, len(sources))
		for _, src := range sources {
			if resolved, err := filepath.Abs(src.path); err == nil {
				seen[resolved] = true
			}
		}
		archived, err := filepath.Glob(filepath.Join(paths.ProfilesDir(), "champion-*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(archived)
		for _, path := range archived {
			if filepath.Base(path) == "champion.json" {
				continue
			}
			resolved, err := filepath.Abs(path)
			if err != nil {
				return nil, err
			}
			if seen[resolved] {
				continue
			}
			seen[resolved] = true
			stem := strings.TrimSuffix(filepath.Base(path), ".json")
			label := "auto_" + strings.ReplaceAll(stem, "-", "_")
			sources = append(sources, source{label, path})
		}
	}

	anchors := make([]search.Anchor, 0, len(sources))
	for _, src := range sources {
		if _, err := os.Stat(src.path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		p, err := profile.Load(src.path)
		if err != nil {
			return nil, fmt.Errorf("load anchor %s: %w", src.path, err)
		}
		if profile.Signature(p) == incumbentSig {
			continue
		}
		anchors = append(anchors, search.Anchor{Label: src.label, Profile: p})
	}
	return anchors, nil
}
