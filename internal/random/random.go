// Package random provides the randomness used for question ID
// generation and question sampling. It sits behind an interface so
// tests can pin the shuffle and ID outputs.
package random

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"sync"
)

// Source produces question IDs and shuffles question slices.
type Source interface {
	// Hex returns n random bytes as a lowercase hex string.
	Hex(n int) string
	// Shuffle permutes n elements using the given swap function.
	Shuffle(n int, swap func(i, j int))
}

type source struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source seeded from crypto/rand.
func New() Source {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		panic("random: cannot seed from crypto/rand: " + err.Error())
	}
	return NewSeeded(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewSeeded returns a deterministic Source for tests.
func NewSeeded(seed int64) Source {
	return &source{r: rand.New(rand.NewSource(seed))}
}

func (s *source) Hex(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, n)
	s.r.Read(b)
	return hex.EncodeToString(b)
}

func (s *source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
