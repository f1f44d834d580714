package search

import (
	"errors"
	"math"

	"codextuner/internal/profile"
)

// Engine tracks the incumbent trajectory and the adaptation state that steers
// candidate generation: momentum, the last-gain anchor, the stagnation
// counter, and the independent global best.
type Engine struct {
	metric      Metric
	initialStep float64
	decay       float64
	minStep     float64

	incumbent   profile.Profile
	momentum    profile.Profile
	lastGain    profile.Profile
	stagnation  int
	bestResult  *Result
	bestProfile profile.Profile
}

// Outcome summarizes one observed iteration.
type Outcome struct {
	Winner     Result
	Improved   bool
	Stagnation int
	Ranked     []Result
}

func NewEngine(metric Metric, start profile.Profile, initialStep, decay, minStep float64) *Engine {
	return &Engine{
		metric:      metric,
		initialStep: initialStep,
		decay:       decay,
		minStep:     minStep,
		incumbent:   profile.Normalize(start),
	}
}

func (e *Engine) Metric() Metric { return e.metric }

func (e *Engine) Incumbent() profile.Profile { return e.incumbent.Clone() }

func (e *Engine) Stagnation() int { return e.stagnation }

// BaseStep is the decayed step size for a 1-based iteration.
func (e *Engine) BaseStep(iteration int) float64 {
	step := e.initialStep * math.Pow(e.decay, float64(iteration-1))
	if step < e.minStep {
		step = e.minStep
	}
	return step
}

// SearchStep widens the base step with stagnation, capped at 2.4x.
func (e *Engine) SearchStep(iteration int) float64 {
	base := e.BaseStep(iteration)
	widened := base * (1.0 + 0.3*float64(e.stagnation))
	cap := base * 2.4
	if widened > cap {
		widened = cap
	}
	return widened
}

// PlanInput snapshots the state a generation round needs.
func (e *Engine) PlanInput(searchStep float64, anchors []Anchor) PlanInput {
	return PlanInput{
		Incumbent:  e.incumbent,
		Momentum:   e.momentum,
		LastGain:   e.lastGain,
		Anchors:    anchors,
		Stagnation: e.stagnation,
		SearchStep: searchStep,
	}
}

// Observe ranks one iteration's results, decides improvement against the
// incumbent carry-over candidate, and updates incumbent, momentum, last-gain
// anchor, stagnation, and the global best.
func (e *Engine) Observe(results []Result) (Outcome, error) {
	if len(results) == 0 {
		return Outcome{}, errors.New("no results to observe")
	}

	ranked := e.metric.Rank(results)
	winner := ranked[0]

	var incumbentResult *Result
	for i := range results {
		if results[i].Strategy == StrategyIncumbent {
			incumbentResult = &results[i]
			break
		}
	}
	if incumbentResult == nil {
		return Outcome{}, errors.New("incumbent carry-over candidate missing from results")
	}

	improved := e.metric.Better(winner, *incumbentResult)
	if improved {
		previous := e.incumbent
		e.incumbent = winner.Profile.Clone()
		e.momentum = profile.Delta(e.incumbent, previous)
		e.lastGain = previous
		e.stagnation = 0
	} else {
		e.stagnation++
	}

	if e.bestResult == nil || e.metric.Better(winner, *e.bestResult) {
		record := winner
		e.bestResult = &record
		e.bestProfile = winner.Profile.Clone()
	}

	return Outcome{
		Winner:     winner,
		Improved:   improved,
		Stagnation: e.stagnation,
		Ranked:     ranked,
	}, nil
}

// Best returns the best-ever result and profile under the active metric.
func (e *Engine) Best() (Result, profile.Profile, bool) {
	if e.bestResult == nil {
		return Result{}, nil, false
	}
	return *e.bestResult, e.bestProfile.Clone(), true
}
