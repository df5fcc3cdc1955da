package vm

import (
	"math/rand/v2"
)

// RandomSource supplies the random byte masked by CXNN.
type RandomSource interface {
	Byte() uint8
}

type defaultRandom struct{}

func (defaultRandom) Byte() uint8 {
	return uint8(rand.IntN(256))
}

type seededRandom struct {
	r *rand.Rand
}

// NewSeededRandom returns a reproducible source. Two sources created with
// the same seed produce the same sequence.
func NewSeededRandom(seed uint64) RandomSource {
	return &seededRandom{
		r: rand.New(rand.NewPCG(seed, seed)),
	}
}

func (s *seededRandom) Byte() uint8 {
	return uint8(s.r.IntN(256))
}
