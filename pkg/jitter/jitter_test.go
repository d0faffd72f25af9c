package jitter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	base, max := 100*time.Millisecond, time.Second

	assert.Equal(t, 100*time.Millisecond, Backoff(base, max, 0))
	assert.Equal(t, 200*time.Millisecond, Backoff(base, max, 1))
	assert.Equal(t, 800*time.Millisecond, Backoff(base, max, 3))
	assert.Equal(t, time.Second, Backoff(base, max, 4))
	assert.Equal(t, time.Second, Backoff(base, max, 100))
	assert.Equal(t, time.Duration(0), Backoff(0, max, 2))
}

func TestExponentialBackoff_Range(t *testing.T) {
	for attempt := 0; attempt < 6; attempt++ {
		d := ExponentialBackoff(10*time.Millisecond, 200*time.Millisecond, attempt, DefaultJitter)
		want := Backoff(10*time.Millisecond, 200*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, want)
		assert.LessOrEqual(t, d, want+want/2)
	}
}

func TestDurationWithSeed(t *testing.T) {
	a := DurationWithSeed(time.Second, 0.5, rand.New(rand.NewSource(7)))
	b := DurationWithSeed(time.Second, 0.5, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}
