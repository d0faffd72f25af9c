package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/jitter"
	"github.com/perone/euclidesdb/pkg/logger"
)

// retryable пропускает только сбои канала и таймауты. Отказ сервиса и закрытый канал не повторяются.
func retryable(err error) bool {
	if errors.Is(err, e.ErrChannelClosed) {
		return false
	}
	return errors.Is(err, e.ErrRemoteCall) || errors.Is(err, e.ErrTimeout)
}

// withRetry выполняет fn не более policy.MaxAttempts раз с экспоненциальной задержкой и джиттером.
func withRetry[T any](ctx context.Context, policy RetryPolicy, log logger.Logger, call domain.Call,
	fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		res T
		err error
	)

	attempts := max(policy.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		res, err = fn(ctx)
		if err == nil || !retryable(err) || attempt == attempts-1 {
			return res, err
		}

		sleepTime := jitter.ExponentialBackoff(policy.BaseDelay, policy.MaxDelay, attempt, jitter.DefaultJitter)
		log.Warnf("%s failed (%s), retrying in %v (attempt %d of %d)",
			call, e.Kind(err), sleepTime, attempt+1, attempts)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return res, err
		}
	}

	return res, err
}
