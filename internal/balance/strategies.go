package balance

import "github.com/derekprior/pooldraw/internal/draw"

// SingleSwap flips any fixture whose flip lowers the cost.
func (b *Balancer) SingleSwap(l *draw.Ledger) Stage {
	st := b.begin("single_swap", l)
	for st.Passes < SingleSwapPasses && l.Cost() > 0 {
		st.Passes++
		moves := 0
		for i := range l.Fixtures {
			if flipGain(l, i) > 0 {
				l.Flip(i)
				moves++
			}
		}
		st.Moves += moves
		b.pass(l, st, moves)
		if moves == 0 {
			break
		}
	}
	return b.end(st, l)
}

// PairSwap looks at pairs of fixtures with four distinct players and
// exchanges opponents between them when that moves a home game from a
// player with too many to one with too few. The first pass walks pairs in
// fixture order, later passes in random order.
func (b *Balancer) PairSwap(l *draw.Ledger) Stage {
	st := b.begin("pair_swap", l)

	var pairs [][2]int
	for i := range l.Fixtures {
		for j := i + 1; j < len(l.Fixtures); j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}

	for st.Passes < PairSwapPasses && l.Cost() > 0 {
		st.Passes++
		if st.Passes > 1 && b.Rand != nil {
			b.Rand.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
		}

		moves := 0
		for _, pr := range pairs {
			if l.Cost() == 0 {
				break
			}
			i, j := pr[0], pr[1]
			if !distinct(l, i, j) {
				continue
			}
			if transfer(l, i, j) || transfer(l, j, i) {
				moves++
			}
		}
		st.Moves += moves
		b.pass(l, st, moves)
		if moves == 0 {
			break
		}
	}
	return b.end(st, l)
}

// TargetedFix works through imbalanced players, worst first. Each gets a
// direct flip of one of its own fixtures if that helps, otherwise a home
// game is moved through an unrelated fixture.
func (b *Balancer) TargetedFix(l *draw.Ledger) Stage {
	st := b.begin("targeted_fix", l)
	for st.Passes < TargetedFixPasses && l.Cost() > 0 {
		st.Passes++
		moves := 0
		for _, p := range ranked(l) {
			if l.Excess(p) == 0 {
				continue
			}
			if b.fixPlayer(l, p) {
				moves++
			}
		}
		st.Moves += moves
		b.pass(l, st, moves)
		if moves == 0 {
			break
		}
	}
	return b.end(st, l)
}

func (b *Balancer) fixPlayer(l *draw.Ledger, p int) bool {
	surplus := l.Diff(p) > 0
	own := l.FixturesOf(p)

	for _, i := range own {
		f := l.Fixtures[i]
		if (f.Home == p) != surplus {
			continue
		}
		if flipGain(l, i) > 0 {
			l.Flip(i)
			return true
		}
	}

	for _, i := range own {
		f := l.Fixtures[i]
		if (f.Home == p) != surplus {
			continue
		}
		for j := range l.Fixtures {
			if j == i || !distinct(l, i, j) {
				continue
			}
			// Too many home games: p's fixture gives one away. Too few:
			// p's fixture receives one.
			if surplus && transfer(l, i, j) {
				return true
			}
			if !surplus && transfer(l, j, i) {
				return true
			}
		}
	}
	return false
}

// ForceBalance flips whatever it takes. Each pass first flips every fixture
// between a player with too many home games and one with too few. When there
// are none it takes the worst player and reverses a chain of fixtures
// leading to a player leaning the other way; players in the middle of the
// chain keep their counts.
func (b *Balancer) ForceBalance(l *draw.Ledger) Stage {
	st := b.begin("force_balance", l)
	for st.Passes < ForceBalancePasses && l.Cost() > 0 {
		st.Passes++

		moves := 0
		for i := range l.Fixtures {
			if flipGain(l, i) > 0 {
				l.Flip(i)
				moves++
			}
		}

		if moves == 0 {
			p := ranked(l)[0]
			if path := chain(l, p); len(path) > 0 {
				for _, i := range path {
					l.Flip(i)
				}
				moves = len(path)
			} else if i := wrongRole(l, p); i >= 0 {
				// Unreachable while chain finds a path whenever cost > 0.
				l.Flip(i)
				moves = 1
			}
		}

		st.Moves += moves
		b.pass(l, st, moves)
		if moves == 0 {
			// Guard only; see chain.
			st.Stuck = true
			b.Log.Warn().
				Str("pool", l.Pool).
				Int("cost", l.Cost()).
				Msg("force balance found no move")
			break
		}
	}
	return b.end(st, l)
}

// chain finds the shortest run of fixtures from p to a player leaning the
// opposite way, following p's surplus direction: from home to away when p
// has too many home games, away to home otherwise. Flipping every fixture on
// the run moves one home game from one end to the other. Such a run always
// exists while p is imbalanced.
func chain(l *draw.Ledger, p int) []int {
	surplus := l.Diff(p) > 0
	via := make([]int, l.Len()) // fixture used to reach each player
	for i := range via {
		via[i] = -1
	}
	seen := make([]bool, l.Len())
	seen[p] = true
	queue := []int{p}

	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for _, i := range l.FixturesOf(x) {
			f := l.Fixtures[i]
			var y int
			if surplus {
				if f.Home != x {
					continue
				}
				y = f.Away
			} else {
				if f.Away != x {
					continue
				}
				y = f.Home
			}
			if seen[y] {
				continue
			}
			seen[y] = true
			via[y] = i

			if (surplus && l.Diff(y) < 0) || (!surplus && l.Diff(y) > 0) {
				var path []int
				for q := y; q != p; q = l.Opponent(via[q], q) {
					path = append(path, via[q])
				}
				return path
			}
			queue = append(queue, y)
		}
	}
	return nil
}

// wrongRole returns a fixture where p sits on the side it has too many of.
func wrongRole(l *draw.Ledger, p int) int {
	surplus := l.Diff(p) > 0
	for _, i := range l.FixturesOf(p) {
		if (l.Fixtures[i].Home == p) == surplus {
			return i
		}
	}
	return -1
}
