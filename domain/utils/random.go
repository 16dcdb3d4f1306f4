package utils

import (
	"math/rand/v2"

	"quizbot/domain/interfaces"
)

type runtimeRandom struct{}

// NewRandomSource returns the process-wide random source used for reward rolls
func NewRandomSource() interfaces.RandomSource {
	return runtimeRandom{}
}

func (runtimeRandom) Float64() float64 { return rand.Float64() }

func (runtimeRandom) Int64N(n int64) int64 { return rand.Int64N(n) }

// UniformInt returns an integer in [min, max] inclusive
func UniformInt(r interfaces.RandomSource, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + r.Int64N(max-min+1)
}

// UniformFloat returns a value in [min, max)
func UniformFloat(r interfaces.RandomSource, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}
