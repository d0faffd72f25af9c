package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloser_LIFO(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Func {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	c := NewCloser(0)
	c.Add("grpc", record("grpc"))
	c.Add("redis", record("redis"))
	c.AddCloser("kafka", closerFunc(func() error { return record("kafka")(context.Background()) }))

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"kafka", "redis", "grpc"}, order)

	// повторный вызов ничего не делает
	require.NoError(t, c.Close(context.Background()))
	assert.Len(t, order, 3)
}

func TestCloser_CollectsErrors(t *testing.T) {
	c := NewCloser(0)
	c.Add("ok", func(context.Context) error { return nil })
	c.Add("redis", func(context.Context) error { return errors.New("connection reset") })

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: connection reset")
}

func TestCloser_ForcedOnTimeout(t *testing.T) {
	c := NewCloser(100 * time.Millisecond)

	c.Add("first", func(context.Context) error { return nil })
	c.Add("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted")
}
