package draw

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	// DefaultMatchesPerPlayer is the number of opponents each player gets
	// when nothing else is configured.
	DefaultMatchesPerPlayer = 6

	correctionPasses = 4
)

// Generator draws in-pool opponents so every player reaches
// MatchesPerPlayer distinct opponents where the pool allows it.
type Generator struct {
	MatchesPerPlayer int

	// AllowOverQuota lets the final correction pass pair a short player with
	// a pool-mate who already has a full fixture list. Left off, no player
	// ever exceeds MatchesPerPlayer.
	AllowOverQuota bool

	// Source returns the random source for a pool.
	Source func(pool string) Source

	Log zerolog.Logger
}

// Shortfall is a player left with fewer opponents than requested.
type Shortfall struct {
	PlayerID string
	Pool     string
	Matches  int
	Want     int
}

// PoolStats records how a pool's draw went.
type PoolStats struct {
	Pool             string
	Players          int
	Iterations       int  // primary pass iterations
	CorrectionPasses int  // correction passes that had work to do
	Rewired          int  // fixtures split to make room for short players
	Exhausted        bool // the primary pass ran out of unplayed pool-mates
}

// Result is the output of a generation run.
type Result struct {
	Ledgers   []*Ledger
	Shortfall []Shortfall
	OverQuota []string // ids of players pushed past MatchesPerPlayer
	Stats     []PoolStats
}

// Matches returns all fixtures across pools, pool by pool.
func (r *Result) Matches() []Match {
	return Collect(r.Ledgers)
}

// Generate draws fixtures for every pool. Existing matches are kept and
// count toward each player's total; new fixtures only fill the gap.
func (g *Generator) Generate(players []Player, existing []Match) (*Result, error) {
	if g.MatchesPerPlayer < 1 {
		return nil, fmt.Errorf("matches per player must be at least 1, got %d", g.MatchesPerPlayer)
	}
	if g.Source == nil {
		return nil, fmt.Errorf("generator has no random source")
	}

	ledgers, err := BuildLedgers(players, existing)
	if err != nil {
		return nil, fmt.Errorf("loading existing matches: %w", err)
	}

	res := &Result{Ledgers: ledgers}
	for _, l := range ledgers {
		sides := SideAssigner{MatchesPerPlayer: g.MatchesPerPlayer, Rand: g.Source(l.Pool)}
		st := PoolStats{Pool: l.Pool, Players: l.Len()}

		g.fill(l, sides, &st)
		res.OverQuota = append(res.OverQuota, g.correct(l, sides, &st)...)

		for p, pl := range l.Players {
			if d := l.Degree(p); d < g.MatchesPerPlayer {
				res.Shortfall = append(res.Shortfall, Shortfall{
					PlayerID: pl.ID,
					Pool:     l.Pool,
					Matches:  d,
					Want:     g.MatchesPerPlayer,
				})
			}
		}
		res.Stats = append(res.Stats, st)

		g.Log.Debug().
			Str("pool", l.Pool).
			Int("players", l.Len()).
			Int("fixtures", len(l.Fixtures)).
			Int("iterations", st.Iterations).
			Int("correction_passes", st.CorrectionPasses).
			Bool("exhausted", st.Exhausted).
			Msg("pool drawn")
	}
	return res, nil
}

// fill is the primary greedy pass: the neediest player takes the neediest
// unplayed pool-mate until everyone is full or nobody can move.
func (g *Generator) fill(l *Ledger, sides SideAssigner, st *PoolStats) {
	k := g.MatchesPerPlayer
	limit := l.Len() * k * 3
	stalled := make([]bool, l.Len())

	for st.Iterations < limit {
		anchor := l.neediest(k, stalled)
		if anchor < 0 {
			return
		}
		st.Iterations++

		opp := l.bestOpponent(anchor, k)
		if opp < 0 {
			if !l.hasUnplayedMate(anchor) {
				st.Exhausted = true
				g.Log.Debug().
					Str("pool", l.Pool).
					Str("player", l.Players[anchor].ID).
					Int("matches", l.Degree(anchor)).
					Msg("pool exhausted")
				return
			}
			// Every unplayed mate is already full; leave this one to the
			// correction passes.
			stalled[anchor] = true
			continue
		}

		home, away := sides.Assign(l, anchor, opp)
		l.Add(home, away)
	}
}

// correct runs the bounded correction passes over players still short of
// k and returns the ids of any players pushed over quota.
func (g *Generator) correct(l *Ledger, sides SideAssigner, st *PoolStats) []string {
	k := g.MatchesPerPlayer
	var over []string
	final := false

	for pass := 1; pass <= correctionPasses; pass++ {
		short := l.short(k)
		if len(short) == 0 {
			break
		}
		st.CorrectionPasses++
		if pass == correctionPasses {
			final = true
		}

		progress := false
		for _, u := range short {
			for l.Degree(u) < k {
				if v := l.bestOpponent(u, k); v >= 0 {
					home, away := sides.Assign(l, u, v)
					l.Add(home, away)
					progress = true
					continue
				}
				if g.rewire(l, u, k, sides) {
					st.Rewired++
					progress = true
					continue
				}
				if final && g.AllowOverQuota {
					if v := l.anyUnplayedMate(u); v >= 0 {
						home, away := sides.Assign(l, u, v)
						l.Add(home, away)
						over = append(over, l.Players[v].ID)
						g.Log.Warn().
							Str("pool", l.Pool).
							Str("player", l.Players[v].ID).
							Int("matches", l.Degree(v)).
							Msg("player pushed over quota")
						progress = true
						continue
					}
				}
				break
			}
		}

		g.Log.Debug().
			Str("pool", l.Pool).
			Int("pass", pass).
			Int("short", len(l.short(k))).
			Msg("correction pass")

		if !progress {
			if final {
				break
			}
			// Nothing more to gain from ordinary moves; the next pass is
			// the last one.
			final = true
			pass = correctionPasses - 1
		}
	}
	return over
}

// rewire makes room for u by splitting a drawn fixture (x, y). With a
// second short player v the fixture becomes (u, x) and (v, y); otherwise,
// when u needs two more games, it becomes (u, x) and (u, y). x and y keep
// their totals. Pinned fixtures are left alone.
func (g *Generator) rewire(l *Ledger, u, k int, sides SideAssigner) bool {
	for _, v := range l.short(k) {
		if v == u {
			continue
		}
		for i, f := range l.Fixtures {
			if l.Pinned(i) {
				continue
			}
			for _, xy := range [2][2]int{{f.Home, f.Away}, {f.Away, f.Home}} {
				x, y := xy[0], xy[1]
				if x == u || x == v || y == u || y == v {
					continue
				}
				if !l.CanPair(u, x) || !l.CanPair(v, y) {
					continue
				}
				l.detach(i)
				home, away := sides.Assign(l, u, x)
				l.attach(i, home, away)
				home, away = sides.Assign(l, v, y)
				l.Add(home, away)
				return true
			}
		}
	}

	if k-l.Degree(u) < 2 {
		return false
	}
	for i, f := range l.Fixtures {
		x, y := f.Home, f.Away
		if l.Pinned(i) || x == u || y == u || !l.CanPair(u, x) || !l.CanPair(u, y) {
			continue
		}
		l.detach(i)
		home, away := sides.Assign(l, u, x)
		l.attach(i, home, away)
		home, away = sides.Assign(l, u, y)
		l.Add(home, away)
		return true
	}
	return false
}

// neediest returns the player with the fewest fixtures among those under k
// and not stalled, ties going to the earlier player. -1 if none.
func (l *Ledger) neediest(k int, stalled []bool) int {
	best := -1
	for p := range l.Players {
		if stalled[p] || l.Degree(p) >= k {
			continue
		}
		if best < 0 || l.Degree(p) < l.Degree(best) {
			best = p
		}
	}
	return best
}

// bestOpponent returns u's unplayed pool-mate under k with the fewest
// fixtures, or -1.
func (l *Ledger) bestOpponent(u, k int) int {
	best := -1
	for v := range l.Players {
		if !l.CanPair(u, v) || l.Degree(v) >= k {
			continue
		}
		if best < 0 || l.Degree(v) < l.Degree(best) {
			best = v
		}
	}
	return best
}

func (l *Ledger) anyUnplayedMate(u int) int {
	for v := range l.Players {
		if l.CanPair(u, v) {
			return v
		}
	}
	return -1
}

func (l *Ledger) hasUnplayedMate(u int) bool {
	return l.anyUnplayedMate(u) >= 0
}

func (l *Ledger) short(k int) []int {
	var out []int
	for p := range l.Players {
		if l.Degree(p) < k {
			out = append(out, p)
		}
	}
	return out
}
