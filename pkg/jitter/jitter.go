// Package jitter предоставляет утилиты для добавления случайности в интервалы отступления (backoff),
// чтобы повторные вызовы разных клиентов не совпадали по времени.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// DurationWithSeed возвращает продолжительность с джиттером, используя заданный генератор случайных чисел.
func DurationWithSeed(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	return d + time.Duration(rng.Float64()*jitterFactor*float64(d))
}

// Backoff возвращает экспоненциальную задержку без джиттера:
// base * 2^attempt, но не больше max. attempt нумеруется с нуля.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max || backoff <= 0 {
			return max
		}
	}

	if backoff > max {
		return max
	}
	return backoff
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(Backoff(base, max, attempt), jitterFactor)
}
