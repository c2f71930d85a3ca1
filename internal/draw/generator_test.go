package draw

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(k int, seed int64) *Generator {
	return &Generator{
		MatchesPerPlayer: k,
		Source:           seeded(seed),
		Log:              zerolog.Nop(),
	}
}

// assertSound checks degree bounds, uniqueness and pool membership.
func assertSound(t *testing.T, players []Player, matches []Match, k int) map[string]int {
	t.Helper()
	pools := make(map[string]string)
	for _, p := range players {
		pools[p.ID] = p.Pool
	}
	type pair struct{ a, b string }
	seen := make(map[pair]bool)
	degree := make(map[string]int)
	for _, m := range matches {
		require.NotEqual(t, m.HomeID, m.AwayID)
		assert.Equal(t, pools[m.HomeID], pools[m.AwayID], "%s vs %s crosses pools", m.HomeID, m.AwayID)
		assert.Equal(t, pools[m.HomeID], m.Pool)
		a, b := m.HomeID, m.AwayID
		if a > b {
			a, b = b, a
		}
		assert.False(t, seen[pair{a, b}], "%s vs %s drawn twice", a, b)
		seen[pair{a, b}] = true
		degree[m.HomeID]++
		degree[m.AwayID]++
	}
	for _, p := range players {
		assert.LessOrEqual(t, degree[p.ID], k, "%s over quota", p.ID)
	}
	return degree
}

func TestGenerateFullDegree(t *testing.T) {
	for _, tc := range []struct {
		name string
		n, k int
	}{
		{"8 players, 6 each", 8, 6},
		{"9 players, 4 each", 9, 4},
		{"12 players, 6 each", 12, 6},
		{"10 players, 3 each", 10, 3},
		{"64 players, 6 each", 64, 6},
	} {
		t.Run(tc.name, func(t *testing.T) {
			players := pool("A", tc.n)
			res, err := newGenerator(tc.k, 7).Generate(players, nil)
			require.NoError(t, err)

			matches := res.Matches()
			assert.Len(t, matches, tc.n*tc.k/2)
			degree := assertSound(t, players, matches, tc.k)
			for _, p := range players {
				assert.Equal(t, tc.k, degree[p.ID], "%s", p.ID)
			}
			assert.Empty(t, res.Shortfall)
			assert.Empty(t, res.OverQuota)
			assert.LessOrEqual(t, res.Stats[0].Iterations, tc.n*tc.k*3)
		})
	}
}

func TestGenerateSmallPool(t *testing.T) {
	players := pool("A", 5)
	res, err := newGenerator(6, 3).Generate(players, nil)
	require.NoError(t, err)

	matches := res.Matches()
	assert.Len(t, matches, 10, "every pair once")
	degree := assertSound(t, players, matches, 6)
	for _, p := range players {
		assert.Equal(t, 4, degree[p.ID])
	}
	assert.Len(t, res.Shortfall, 5)
	for _, s := range res.Shortfall {
		assert.Equal(t, 4, s.Matches)
		assert.Equal(t, 6, s.Want)
	}
	assert.True(t, res.Stats[0].Exhausted)
}

func TestGenerateOddTotal(t *testing.T) {
	// 7 players with 5 opponents each would need 17.5 fixtures.
	players := pool("A", 7)
	res, err := newGenerator(5, 11).Generate(players, nil)
	require.NoError(t, err)

	assertSound(t, players, res.Matches(), 5)
	require.Len(t, res.Shortfall, 1)
	assert.Equal(t, 4, res.Shortfall[0].Matches)
	assert.Len(t, res.Matches(), 17)
}

func TestGeneratePoolsAreIndependent(t *testing.T) {
	a, b := pool("A", 8), pool("B", 8)
	combined, err := newGenerator(6, 99).Generate(append(append([]Player{}, a...), b...), nil)
	require.NoError(t, err)

	onlyA, err := newGenerator(6, 99).Generate(a, nil)
	require.NoError(t, err)
	onlyB, err := newGenerator(6, 99).Generate(b, nil)
	require.NoError(t, err)

	assert.Equal(t, append(onlyA.Matches(), onlyB.Matches()...), combined.Matches())
	for _, m := range combined.Matches() {
		assert.Equal(t, m.HomeID[:1], m.AwayID[:1])
	}
}

func TestGenerateDeterministic(t *testing.T) {
	players := append(pool("A", 10), pool("B", 9)...)
	first, err := newGenerator(6, 2024).Generate(players, nil)
	require.NoError(t, err)
	second, err := newGenerator(6, 2024).Generate(players, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Matches(), second.Matches())
}

func TestGenerateKeepsExistingMatches(t *testing.T) {
	players := pool("A", 8)
	existing := []Match{
		{HomeID: "A01", AwayID: "A02", Pool: "A"},
		{HomeID: "A03", AwayID: "A01", Pool: "A"},
	}
	res, err := newGenerator(6, 5).Generate(players, existing)
	require.NoError(t, err)

	matches := res.Matches()
	assert.Equal(t, "A01", matches[0].HomeID)
	assert.Equal(t, "A02", matches[0].AwayID)
	assert.Equal(t, "A03", matches[1].HomeID)
	assert.Len(t, matches, 24)
	degree := assertSound(t, players, matches, 6)
	assert.Equal(t, 6, degree["A01"])
}

// blockedTriangle leaves A01 with no drawable opponent at two matches each:
// the other three already played each other and the triangle is kept.
func blockedTriangle() ([]Player, []Match) {
	return pool("A", 4), []Match{
		{HomeID: "A02", AwayID: "A03", Pool: "A"},
		{HomeID: "A03", AwayID: "A04", Pool: "A"},
		{HomeID: "A04", AwayID: "A02", Pool: "A"},
	}
}

func TestGenerateOverQuota(t *testing.T) {
	t.Run("fallback off", func(t *testing.T) {
		players, existing := blockedTriangle()
		res, err := newGenerator(2, 4).Generate(players, existing)
		require.NoError(t, err)

		assert.Len(t, res.Matches(), 3)
		assert.Empty(t, res.OverQuota)
		assert.Equal(t, []Shortfall{{PlayerID: "A01", Pool: "A", Matches: 0, Want: 2}}, res.Shortfall)
		assert.Zero(t, res.Stats[0].Rewired)
	})

	t.Run("fallback on", func(t *testing.T) {
		players, existing := blockedTriangle()
		g := newGenerator(2, 4)
		g.AllowOverQuota = true
		res, err := g.Generate(players, existing)
		require.NoError(t, err)

		assert.Equal(t, []string{"A02", "A03"}, res.OverQuota)
		assert.Empty(t, res.Shortfall)
		assert.Len(t, res.Matches(), 5)

		l := res.Ledgers[0]
		assert.Equal(t, 2, l.Degree(0))
		assert.Equal(t, 3, l.Degree(1))
		assert.Equal(t, 3, l.Degree(2))
		assert.Equal(t, 2, l.Degree(3))
		for i := 0; i < 3; i++ {
			assert.True(t, l.Pinned(i))
		}
	})
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := newGenerator(0, 1).Generate(pool("A", 4), nil)
	assert.Error(t, err)

	_, err = newGenerator(2, 1).Generate(pool("A", 4), []Match{{HomeID: "A01", AwayID: "A01"}})
	assert.ErrorIs(t, err, ErrSelfPairing)

	g := newGenerator(2, 1)
	g.Source = nil
	_, err = g.Generate(pool("A", 4), nil)
	assert.Error(t, err)
}
