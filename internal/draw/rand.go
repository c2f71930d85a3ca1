package draw

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"time"
)

// Source is the randomness used for side tie-breaks and shuffles.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// PoolSource returns a source derived from seed and the pool name, so each
// pool draws from its own stream regardless of what other pools are present.
func PoolSource(seed int64, pool string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(pool))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// EntropySeed returns a seed read from the operating system.
func EntropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}
