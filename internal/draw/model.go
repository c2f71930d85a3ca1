package draw

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrDuplicatePlayer = errors.New("duplicate player id")
	ErrSelfPairing     = errors.New("player paired with itself")
	ErrCrossPool       = errors.New("players from different pools")
	ErrDuplicateMatch  = errors.New("pairing already exists")
)

// Player is an entrant. Players sharing a Pool value are eligible opponents;
// the empty pool groups every unassigned player together.
type Player struct {
	ID   string
	Name string
	Pool string
}

// Match is a single pairing with its home/away labelling.
type Match struct {
	HomeID string
	AwayID string
	Pool   string
	Round  int // 1-based position in the home player's fixture list
}

// Standing is a player's home/away tally.
type Standing struct {
	Home int
	Away int
}

func (s Standing) Total() int { return s.Home + s.Away }

// Excess is how far the tally is from an even split, ignoring the one game
// of slack an odd total forces. Zero means balanced.
func (s Standing) Excess() int { return excess(s.Home-s.Away, s.Total()) }

// Group is the set of players belonging to one pool, in input order.
type Group struct {
	Pool    string
	Players []Player
}

// GroupByPool partitions players by pool, ordering pools by first appearance.
func GroupByPool(players []Player) ([]Group, error) {
	seen := make(map[string]bool)
	index := make(map[string]int)
	var groups []Group
	for _, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("player %q has no id", p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayer, p.ID)
		}
		seen[p.ID] = true

		gi, ok := index[p.Pool]
		if !ok {
			gi = len(groups)
			index[p.Pool] = gi
			groups = append(groups, Group{Pool: p.Pool})
		}
		groups[gi].Players = append(groups[gi].Players, p)
	}
	return groups, nil
}

// Renumber rewrites Round so each match carries its position in the home
// player's fixture list, counting both home and away appearances.
func Renumber(matches []Match) []Match {
	out := make([]Match, len(matches))
	seq := make(map[string]int)
	for i, m := range matches {
		seq[m.HomeID]++
		seq[m.AwayID]++
		m.Round = seq[m.HomeID]
		out[i] = m
	}
	return out
}
