package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimlawless/whereami"
	"github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/internal/repository/redis/converter"
	"github.com/perone/euclidesdb/internal/usecase"
	"github.com/perone/euclidesdb/pkg/clients"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

const (
	recentKey   = "run:recent"
	recentLimit = 100
)

type ReportRepo struct {
	client *clients.RedisClient
	conv   converter.ReportInfoConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewReportRepo(client *clients.RedisClient, conv converter.ReportInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *ReportRepo {
	return &ReportRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// SaveReport сохраняет отчёт с TTL и добавляет его ID в список последних прогонов.
func (rr *ReportRepo) SaveReport(ctx context.Context, report *domain.RunReport) error {
	model := rr.conv.ToRedisModel(usecase.NewReportInfo(report))

	data, err := json.Marshal(model)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	pipeline := rr.client.Client.TxPipeline()
	pipeline.Set(ctx, rr.reportKey(report.RunID), data, rr.cfg.ReportTTL)
	pipeline.LPush(ctx, recentKey, report.RunID)
	pipeline.LTrim(ctx, recentKey, 0, recentLimit-1)
	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	rr.logger.Debugf("run report %s saved, %d bytes", report.RunID, len(data))
	return nil
}

// GetReport возвращает сохранённый отчёт или ErrResourceNotFound.
func (rr *ReportRepo) GetReport(ctx context.Context, runID string) (*usecase.ReportInfo, error) {
	data, err := rr.client.Client.Get(ctx, rr.reportKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: run report %s", e.ErrResourceNotFound, runID))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ReportRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return rr.conv.ToUseCase(&model), nil
}

// RecentRunIDs возвращает ID последних прогонов, новые первыми.
func (rr *ReportRepo) RecentRunIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}

	ids, err := rr.client.Client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return ids, nil
}

// reportKey возвращает Redis-ключ отчёта
func (rr *ReportRepo) reportKey(runID string) string {
	return fmt.Sprintf("run:report:%s", runID)
}
