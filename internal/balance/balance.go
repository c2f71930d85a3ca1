// Package balance repairs the home/away labelling of a drawn pool. It never
// changes how many games anyone plays: strategies either flip a fixture or
// exchange opponents between two fixtures of the same pool.
package balance

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/derekprior/pooldraw/internal/draw"
)

// Pass caps per strategy.
const (
	SingleSwapPasses   = 100
	PairSwapPasses     = 200
	TargetedFixPasses  = 200
	ForceBalancePasses = 500
)

// Stage summarizes one strategy run.
type Stage struct {
	Name       string
	Passes     int
	Moves      int
	CostBefore int
	CostAfter  int
	Stuck      bool // ForceBalance found nothing to do while still imbalanced
}

// StrategyFunc is a balancing strategy bound to a Balancer.
type StrategyFunc func(b *Balancer, l *draw.Ledger) Stage

var registry = []struct {
	name string
	fn   StrategyFunc
}{
	{"single_swap", (*Balancer).SingleSwap},
	{"pair_swap", (*Balancer).PairSwap},
	{"targeted_fix", (*Balancer).TargetedFix},
	{"force_balance", (*Balancer).ForceBalance},
}

// Names lists the strategies in the order they run.
func Names() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.name
	}
	return names
}

// Get returns a strategy by name.
func Get(name string) (StrategyFunc, error) {
	for _, r := range registry {
		if r.name == name {
			return r.fn, nil
		}
	}
	return nil, fmt.Errorf("unknown balancing strategy: %q", name)
}

// Balancer runs the strategies against a pool ledger.
type Balancer struct {
	Rand draw.Source
	Log  zerolog.Logger

	// Strategies restricts which strategies Run uses. Empty means all.
	// They always run in registry order.
	Strategies []string
}

// New returns a Balancer running every strategy.
func New(rng draw.Source, log zerolog.Logger) *Balancer {
	return &Balancer{Rand: rng, Log: log}
}

// Run applies the enabled strategies in order, stopping as soon as the pool
// is balanced.
func (b *Balancer) Run(l *draw.Ledger) ([]Stage, error) {
	enabled := make(map[string]bool)
	for _, name := range b.Strategies {
		if _, err := Get(name); err != nil {
			return nil, err
		}
		enabled[name] = true
	}

	var stages []Stage
	for _, r := range registry {
		if len(enabled) > 0 && !enabled[r.name] {
			continue
		}
		if l.Cost() == 0 {
			break
		}
		stages = append(stages, r.fn(b, l))
	}

	if cost := l.Cost(); cost > 0 {
		b.Log.Warn().
			Str("pool", l.Pool).
			Int("cost", cost).
			Msg("home/away balance not reached")
	}
	return stages, nil
}

func (b *Balancer) begin(name string, l *draw.Ledger) Stage {
	return Stage{Name: name, CostBefore: l.Cost()}
}

func (b *Balancer) end(st Stage, l *draw.Ledger) Stage {
	st.CostAfter = l.Cost()
	b.Log.Debug().
		Str("pool", l.Pool).
		Str("strategy", st.Name).
		Int("passes", st.Passes).
		Int("moves", st.Moves).
		Int("cost_before", st.CostBefore).
		Int("cost_after", st.CostAfter).
		Msg("strategy finished")
	return st
}

func (b *Balancer) pass(l *draw.Ledger, st Stage, moves int) {
	b.Log.Trace().
		Str("pool", l.Pool).
		Str("strategy", st.Name).
		Int("pass", st.Passes).
		Int("moves", moves).
		Int("cost", l.Cost()).
		Msg("pass")
}

// flipGain is how much cost drops if fixture i is flipped.
func flipGain(l *draw.Ledger, i int) int {
	f := l.Fixtures[i]
	before := l.Excess(f.Home) + l.Excess(f.Away)
	after := l.ExcessIf(f.Home, -1) + l.ExcessIf(f.Away, 1)
	return before - after
}

// transfer moves a home role from the home player of fixture src to the
// away player of fixture dst by exchanging opponents between the two
// fixtures. The four players must be distinct and neither fixture pinned.
// It applies the first valid re-pairing and reports whether one was made;
// it does nothing unless cost strictly drops.
func transfer(l *draw.Ledger, src, dst int) bool {
	if l.Pinned(src) || l.Pinned(dst) {
		return false
	}
	s, d := l.Fixtures[src], l.Fixtures[dst]
	from, other := s.Home, s.Away
	keep, to := d.Home, d.Away

	gain := l.Excess(from) + l.Excess(to) - l.ExcessIf(from, -1) - l.ExcessIf(to, 1)
	if gain <= 0 {
		return false
	}

	// keep and to end up at home, from and other away.
	options := [2][2][2]int{
		{{keep, from}, {to, other}},
		{{keep, other}, {to, from}},
	}
	for _, opt := range options {
		first, second := opt[0], opt[1]
		if !l.CanPair(first[0], first[1]) || !l.CanPair(second[0], second[1]) {
			continue
		}
		l.Replace(src, first[0], first[1])
		l.Replace(dst, second[0], second[1])
		return true
	}
	return false
}

func distinct(l *draw.Ledger, i, j int) bool {
	a, b := l.Fixtures[i], l.Fixtures[j]
	return a.Home != b.Home && a.Home != b.Away && a.Away != b.Home && a.Away != b.Away
}

// ranked returns imbalanced players, worst first; ties keep input order.
func ranked(l *draw.Ledger) []int {
	var out []int
	for p := range l.Players {
		if l.Excess(p) > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return l.Excess(out[i]) > l.Excess(out[j])
	})
	return out
}
