package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

const clientName = "euclidesdb-client"

// RedisClient — хранилище отчётов прогонов.
type RedisClient struct {
	Client      *r.Client
	addr        string
	pingTimeout time.Duration
}

func NewRedisClient(cfg *cfg.RedisCfg) *RedisClient {
	client := r.NewClient(&r.Options{
		Addr:         cfg.Addr,
		ClientName:   clientName,
		Username:     cfg.User,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &RedisClient{
		Client:      client,
		addr:        cfg.Addr,
		pingTimeout: cfg.DialTimeout + cfg.Timeout,
	}
}

// ConnectRedis создаёт клиент и проверяет соединение. При ошибке клиент закрывается.
func ConnectRedis(ctx context.Context, cfg *cfg.RedisCfg, log logger.Logger) (*RedisClient, error) {
	client := NewRedisClient(cfg)
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Infof("redis report store at %s, db %d, report ttl %v", cfg.Addr, cfg.DB, cfg.ReportTTL)
	return client, nil
}

// Ping ждёт ответа не дольше DialTimeout+Timeout из конфигурации.
func (rc *RedisClient) Ping(ctx context.Context) error {
	if rc.pingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.pingTimeout)
		defer cancel()
	}

	if err := rc.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("ping redis at %s: %w", rc.addr, err))
	}

	return nil
}

func (rc *RedisClient) Close() error {
	return rc.Client.Close()
}
