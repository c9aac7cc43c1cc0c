package retry

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Strategy returns the delay before retry number n and whether the attempts
// are exhausted.
type Strategy interface {
	Sleep(n uint) (time.Duration, bool)
}

type never struct{}

func NewNever() Strategy {
	return never{}
}

func (never) Sleep(uint) (time.Duration, bool) {
	return 0, true
}

// Entropy picks a value in [0, n). It defaults to rand.Int63n, giving full jitter.
type Entropy func(n int64) int64

type exponentialBackOff struct {
	base          time.Duration
	max           time.Duration
	maxRetryCount uint
	entropy       Entropy
}

func NewExponentialBackOff(base time.Duration, max time.Duration, maxRetryCount uint, entropy Entropy) Strategy {
	if entropy == nil {
		entropy = rand.Int63n
	}
	return &exponentialBackOff{
		base:          base,
		max:           max,
		maxRetryCount: maxRetryCount,
		entropy:       entropy,
	}
}

func (eb *exponentialBackOff) Sleep(n uint) (time.Duration, bool) {
	if n >= eb.maxRetryCount {
		return 0, true
	}

	ceiling := int64(eb.max)
	if n < 63 && int64(eb.base) <= math.MaxInt64>>n {
		ceiling = clamp(int64(eb.base)<<n, 0, int64(eb.max))
	}
	if ceiling <= 0 {
		return 0, false
	}
	return time.Duration(eb.entropy(ceiling)), false
}

func clamp[T constraints.Integer](v T, lo T, hi T) T {
	return max(lo, min(v, hi))
}
