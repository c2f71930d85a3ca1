package draw

// SideAssigner decides who hosts a newly created fixture.
type SideAssigner struct {
	MatchesPerPlayer int
	Rand             Source
}

// Assign gives home to whichever of a and b is further below
// MatchesPerPlayer/2 home games. Equal need is settled by a coin flip.
func (s SideAssigner) Assign(l *Ledger, a, b int) (home, away int) {
	// Doubled so odd targets stay integral.
	needA := s.MatchesPerPlayer - 2*l.Home(a)
	needB := s.MatchesPerPlayer - 2*l.Home(b)
	switch {
	case needA > needB:
		return a, b
	case needB > needA:
		return b, a
	case s.Rand.Intn(2) == 0:
		return a, b
	default:
		return b, a
	}
}
