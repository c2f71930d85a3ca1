package draw

import "fmt"

// Fixture is a match inside a Ledger. Home and Away are indexes into
// Ledger.Players.
type Fixture struct {
	Home  int
	Away  int
	Round int
}

// Ledger is the working state for one pool: its players, its fixtures and
// per-player home/away counts kept in step with every mutation.
type Ledger struct {
	Pool     string
	Players  []Player
	Fixtures []Fixture

	index  map[string]int
	home   []int
	away   []int
	played [][]int // played[a][b] = fixture index, -1 when a and b have not met
	pinned int     // fixtures below this index came from Load
}

// NewLedger creates an empty ledger for players of a single pool.
func NewLedger(pool string, players []Player) *Ledger {
	n := len(players)
	l := &Ledger{
		Pool:    pool,
		Players: players,
		index:   make(map[string]int, n),
		home:    make([]int, n),
		away:    make([]int, n),
		played:  make([][]int, n),
	}
	for i, p := range players {
		l.index[p.ID] = i
		l.played[i] = make([]int, n)
		for j := range l.played[i] {
			l.played[i][j] = -1
		}
	}
	return l
}

// Load adds existing matches to the ledger, rejecting anything that would
// break pool membership or pairing uniqueness. Loaded fixtures are pinned:
// they may be flipped but keep their pairing.
func (l *Ledger) Load(matches []Match) error {
	for _, m := range matches {
		h, ok := l.index[m.HomeID]
		if !ok {
			return fmt.Errorf("%w: %q in pool %q", ErrUnknownPlayer, m.HomeID, l.Pool)
		}
		a, ok := l.index[m.AwayID]
		if !ok {
			return fmt.Errorf("%w: %q in pool %q", ErrUnknownPlayer, m.AwayID, l.Pool)
		}
		if h == a {
			return fmt.Errorf("%w: %q", ErrSelfPairing, m.HomeID)
		}
		if l.played[h][a] >= 0 {
			return fmt.Errorf("%w: %q vs %q", ErrDuplicateMatch, m.HomeID, m.AwayID)
		}
		i := l.Add(h, a)
		if m.Round > 0 {
			l.Fixtures[i].Round = m.Round
		}
		l.pinned = len(l.Fixtures)
	}
	return nil
}

// Pinned reports whether fixture i must keep its pairing.
func (l *Ledger) Pinned(i int) bool { return i < l.pinned }

func (l *Ledger) Len() int { return len(l.Players) }

func (l *Ledger) Home(p int) int   { return l.home[p] }
func (l *Ledger) Degree(p int) int { return l.home[p] + l.away[p] }

// Diff is home minus away; positive means the player has too many home games.
func (l *Ledger) Diff(p int) int { return l.home[p] - l.away[p] }

func (l *Ledger) Standing(p int) Standing {
	return Standing{Home: l.home[p], Away: l.away[p]}
}

// Excess is the player's Standing.Excess.
func (l *Ledger) Excess(p int) int {
	return excess(l.Diff(p), l.Degree(p))
}

// ExcessIf is the excess the player would have after gaining dHome home
// games at the expense of away games.
func (l *Ledger) ExcessIf(p, dHome int) int {
	return excess(l.Diff(p)+2*dHome, l.Degree(p))
}

func excess(diff, degree int) int {
	if diff < 0 {
		diff = -diff
	}
	return diff - degree%2
}

// Cost is the total excess across the pool.
func (l *Ledger) Cost() int {
	total := 0
	for p := range l.Players {
		total += l.Excess(p)
	}
	return total
}

// Played returns the fixture index between a and b, or -1.
func (l *Ledger) Played(a, b int) int { return l.played[a][b] }

// CanPair reports whether a and b may be put in a new fixture.
func (l *Ledger) CanPair(a, b int) bool {
	return a != b &&
		l.Players[a].Pool == l.Players[b].Pool &&
		l.played[a][b] < 0
}

// FixturesOf lists the fixture indexes involving p, in fixture order.
func (l *Ledger) FixturesOf(p int) []int {
	var out []int
	for i, f := range l.Fixtures {
		if f.Home == p || f.Away == p {
			out = append(out, i)
		}
	}
	return out
}

// Opponent returns the other player in fixture i.
func (l *Ledger) Opponent(i, p int) int {
	f := l.Fixtures[i]
	if f.Home == p {
		return f.Away
	}
	return f.Home
}

// Add appends a fixture and returns its index.
func (l *Ledger) Add(home, away int) int {
	l.Fixtures = append(l.Fixtures, Fixture{})
	i := len(l.Fixtures) - 1
	l.attach(i, home, away)
	return i
}

// Flip swaps the home and away sides of fixture i.
func (l *Ledger) Flip(i int) {
	f := l.Fixtures[i]
	l.home[f.Home]--
	l.away[f.Home]++
	l.away[f.Away]--
	l.home[f.Away]++
	l.Fixtures[i].Home, l.Fixtures[i].Away = f.Away, f.Home
}

// Replace puts a different pairing into slot i, keeping its round.
func (l *Ledger) Replace(i, home, away int) {
	round := l.Fixtures[i].Round
	l.detach(i)
	l.attach(i, home, away)
	l.Fixtures[i].Round = round
}

func (l *Ledger) detach(i int) {
	f := l.Fixtures[i]
	l.home[f.Home]--
	l.away[f.Away]--
	l.played[f.Home][f.Away] = -1
	l.played[f.Away][f.Home] = -1
}

func (l *Ledger) attach(i, home, away int) {
	l.home[home]++
	l.away[away]++
	l.played[home][away] = i
	l.played[away][home] = i
	l.Fixtures[i] = Fixture{Home: home, Away: away, Round: l.Degree(home)}
}

// Matches converts the fixtures back to id-based matches.
func (l *Ledger) Matches() []Match {
	out := make([]Match, len(l.Fixtures))
	for i, f := range l.Fixtures {
		out[i] = Match{
			HomeID: l.Players[f.Home].ID,
			AwayID: l.Players[f.Away].ID,
			Pool:   l.Pool,
			Round:  f.Round,
		}
	}
	return out
}

// BuildLedgers groups players by pool and loads matches into the ledger of
// their pool.
func BuildLedgers(players []Player, matches []Match) ([]*Ledger, error) {
	groups, err := GroupByPool(players)
	if err != nil {
		return nil, err
	}
	pools := make(map[string]string, len(players))
	for _, p := range players {
		pools[p.ID] = p.Pool
	}

	byPool := make(map[string][]Match)
	for _, m := range matches {
		hp, ok := pools[m.HomeID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, m.HomeID)
		}
		ap, ok := pools[m.AwayID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, m.AwayID)
		}
		if hp != ap {
			return nil, fmt.Errorf("%w: %q (%s) vs %q (%s)", ErrCrossPool, m.HomeID, hp, m.AwayID, ap)
		}
		byPool[hp] = append(byPool[hp], m)
	}

	ledgers := make([]*Ledger, len(groups))
	for i, g := range groups {
		l := NewLedger(g.Pool, g.Players)
		if err := l.Load(byPool[g.Pool]); err != nil {
			return nil, err
		}
		ledgers[i] = l
	}
	return ledgers, nil
}

// Collect concatenates the matches of several ledgers.
func Collect(ledgers []*Ledger) []Match {
	var out []Match
	for _, l := range ledgers {
		out = append(out, l.Matches()...)
	}
	return out
}
