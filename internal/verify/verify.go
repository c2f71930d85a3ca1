// Package verify restates the draw invariants against a finished match list.
// It never changes its input, so the same report comes back every time.
package verify

import (
	"errors"
	"fmt"

	"github.com/derekprior/pooldraw/internal/draw"
)

// ErrInvariantViolation marks a match list that breaks pairing rules the
// draw must never break: duplicates, self pairings, cross-pool matches or
// unknown players.
var ErrInvariantViolation = errors.New("invariant violation")

// Kind explains why a player's match count differs from the target.
type Kind string

const (
	// PoolTooSmall: the pool has no more than K players, so nobody can
	// reach K distinct opponents.
	PoolTooSmall Kind = "pool_too_small"
	// OddDegreeTotal: pool size and K are both odd, so one player must
	// fall a game short.
	OddDegreeTotal Kind = "odd_degree_total"
	OverQuota      Kind = "over_quota"
	Shortfall      Kind = "shortfall"
)

// Deficiency is a player whose match count is not the target.
type Deficiency struct {
	PlayerID string
	Pool     string
	Matches  int
	Want     int
	Kind     Kind
}

// DuplicatePairing is a pair of players meeting more than once.
type DuplicatePairing struct {
	A, B  string
	Count int
}

// Imbalance is a player whose home/away split is worse than their match
// count forces.
type Imbalance struct {
	PlayerID string
	Pool     string
	Home     int
	Away     int
	Excess   int
}

// Report is the verifier's finding.
type Report struct {
	OK               bool
	MatchesPerPlayer int

	Deficiencies      []Deficiency
	DuplicatePairings []DuplicatePairing
	CrossPoolMatches  []draw.Match
	UnknownPlayers    []string
	SelfPairings      []draw.Match
	ResidualImbalance []Imbalance

	// Standings holds each player's tally, in player order.
	Standings []PlayerStanding
}

// PlayerStanding is a player's home/away tally.
type PlayerStanding struct {
	PlayerID string
	Pool     string
	draw.Standing
}

// Verify checks matches against players and a target of k matches each.
func Verify(players []draw.Player, matches []draw.Match, k int) Report {
	r := Report{MatchesPerPlayer: k}

	pools := make(map[string]string, len(players))
	poolSize := make(map[string]int)
	for _, p := range players {
		pools[p.ID] = p.Pool
		poolSize[p.Pool]++
	}

	standings := make(map[string]*draw.Standing, len(players))
	for _, p := range players {
		standings[p.ID] = &draw.Standing{}
	}

	r.UnknownPlayers = checkUnknown(pools, matches)
	r.SelfPairings = checkSelf(matches)
	r.CrossPoolMatches = checkPools(pools, matches)
	r.DuplicatePairings = checkDuplicates(matches)

	for _, m := range matches {
		if m.HomeID == m.AwayID {
			continue
		}
		if s, ok := standings[m.HomeID]; ok {
			s.Home++
		}
		if s, ok := standings[m.AwayID]; ok {
			s.Away++
		}
	}

	for _, p := range players {
		r.Standings = append(r.Standings, PlayerStanding{
			PlayerID: p.ID,
			Pool:     p.Pool,
			Standing: *standings[p.ID],
		})
	}

	r.Deficiencies = checkDegrees(players, standings, poolSize, k)
	r.ResidualImbalance = checkBalance(players, standings)

	r.OK = len(r.Deficiencies) == 0 &&
		len(r.ResidualImbalance) == 0 &&
		r.Err() == nil
	return r
}

// Err reports hard invariant violations, wrapping ErrInvariantViolation.
// Deficiencies and imbalance are not errors.
func (r Report) Err() error {
	switch {
	case len(r.DuplicatePairings) > 0:
		d := r.DuplicatePairings[0]
		return fmt.Errorf("%w: %s vs %s played %d times", ErrInvariantViolation, d.A, d.B, d.Count)
	case len(r.CrossPoolMatches) > 0:
		m := r.CrossPoolMatches[0]
		return fmt.Errorf("%w: %s vs %s crosses pools", ErrInvariantViolation, m.HomeID, m.AwayID)
	case len(r.SelfPairings) > 0:
		return fmt.Errorf("%w: %s plays itself", ErrInvariantViolation, r.SelfPairings[0].HomeID)
	case len(r.UnknownPlayers) > 0:
		return fmt.Errorf("%w: unknown player %s", ErrInvariantViolation, r.UnknownPlayers[0])
	}
	return nil
}

// Violation is a single printable finding.
type Violation struct {
	Type    string // "error" or "warning"
	Message string
}

// Violations flattens the report, errors first.
func (r Report) Violations() []Violation {
	var out []Violation
	for _, d := range r.DuplicatePairings {
		out = append(out, Violation{Type: "error", Message: fmt.Sprintf("%s vs %s is drawn %d times", d.A, d.B, d.Count)})
	}
	for _, m := range r.CrossPoolMatches {
		out = append(out, Violation{Type: "error", Message: fmt.Sprintf("%s vs %s pairs players from different pools", m.HomeID, m.AwayID)})
	}
	for _, m := range r.SelfPairings {
		out = append(out, Violation{Type: "error", Message: fmt.Sprintf("%s is drawn against itself", m.HomeID)})
	}
	for _, id := range r.UnknownPlayers {
		out = append(out, Violation{Type: "error", Message: fmt.Sprintf("%s is not a registered player", id)})
	}
	for _, d := range r.Deficiencies {
		var msg string
		switch d.Kind {
		case PoolTooSmall:
			msg = fmt.Sprintf("%s has %d matches (want %d): pool %s is too small", d.PlayerID, d.Matches, d.Want, poolName(d.Pool))
		case OddDegreeTotal:
			msg = fmt.Sprintf("%s has %d matches (want %d): pool %s has an odd number of player slots", d.PlayerID, d.Matches, d.Want, poolName(d.Pool))
		case OverQuota:
			msg = fmt.Sprintf("%s has %d matches (max %d)", d.PlayerID, d.Matches, d.Want)
		default:
			msg = fmt.Sprintf("%s has %d matches (want %d)", d.PlayerID, d.Matches, d.Want)
		}
		out = append(out, Violation{Type: "warning", Message: msg})
	}
	for _, im := range r.ResidualImbalance {
		out = append(out, Violation{
			Type:    "warning",
			Message: fmt.Sprintf("%s is %d home / %d away", im.PlayerID, im.Home, im.Away),
		})
	}
	return out
}

func poolName(pool string) string {
	if pool == "" {
		return "(unassigned)"
	}
	return pool
}

func checkUnknown(pools map[string]string, matches []draw.Match) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		for _, id := range []string{m.HomeID, m.AwayID} {
			if _, ok := pools[id]; ok || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func checkSelf(matches []draw.Match) []draw.Match {
	var out []draw.Match
	for _, m := range matches {
		if m.HomeID == m.AwayID {
			out = append(out, m)
		}
	}
	return out
}

func checkPools(pools map[string]string, matches []draw.Match) []draw.Match {
	var out []draw.Match
	for _, m := range matches {
		hp, ok1 := pools[m.HomeID]
		ap, ok2 := pools[m.AwayID]
		if ok1 && ok2 && hp != ap {
			out = append(out, m)
		}
	}
	return out
}

func checkDuplicates(matches []draw.Match) []DuplicatePairing {
	type pair struct{ a, b string }
	counts := make(map[pair]int)
	var order []pair
	for _, m := range matches {
		if m.HomeID == m.AwayID {
			continue
		}
		a, b := m.HomeID, m.AwayID
		if a > b {
			a, b = b, a
		}
		k := pair{a, b}
		counts[k]++
		if counts[k] == 2 {
			order = append(order, k)
		}
	}

	var out []DuplicatePairing
	for _, k := range order {
		out = append(out, DuplicatePairing{A: k.a, B: k.b, Count: counts[k]})
	}
	return out
}

func checkDegrees(players []draw.Player, standings map[string]*draw.Standing, poolSize map[string]int, k int) []Deficiency {
	// Total games missing per pool, to tell a forced parity gap from a
	// real shortfall.
	missing := make(map[string]int)
	for _, p := range players {
		if t := standings[p.ID].Total(); t < k {
			missing[p.Pool] += k - t
		}
	}

	var out []Deficiency
	for _, p := range players {
		total := standings[p.ID].Total()
		if total == k {
			continue
		}
		d := Deficiency{PlayerID: p.ID, Pool: p.Pool, Matches: total, Want: k}
		n := poolSize[p.Pool]
		switch {
		case total > k:
			d.Kind = OverQuota
		case n-1 < k:
			d.Kind = PoolTooSmall
		case n*k%2 == 1 && missing[p.Pool] == 1:
			d.Kind = OddDegreeTotal
		default:
			d.Kind = Shortfall
		}
		out = append(out, d)
	}
	return out
}

func checkBalance(players []draw.Player, standings map[string]*draw.Standing) []Imbalance {
	var out []Imbalance
	for _, p := range players {
		s := standings[p.ID]
		if e := s.Excess(); e > 0 {
			out = append(out, Imbalance{
				PlayerID: p.ID,
				Pool:     p.Pool,
				Home:     s.Home,
				Away:     s.Away,
				Excess:   e,
			})
		}
	}
	return out
}
