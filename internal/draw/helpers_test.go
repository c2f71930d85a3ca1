package draw

import (
	"fmt"
	"math/rand"
)

func pool(name string, n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{
			ID:   fmt.Sprintf("%s%02d", name, i+1),
			Name: fmt.Sprintf("Player %s%d", name, i+1),
			Pool: name,
		}
	}
	return players
}

func seeded(seed int64) func(string) Source {
	return func(pool string) Source { return PoolSource(seed, pool) }
}

type coin struct{ next int }

func (c *coin) Intn(n int) int {
	v := c.next % n
	c.next++
	return v
}

func (c *coin) Shuffle(n int, swap func(i, j int)) {
	rand.New(rand.NewSource(1)).Shuffle(n, swap)
}
