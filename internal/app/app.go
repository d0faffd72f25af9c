package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jimlawless/whereami"
	config "github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/internal/infrastructure/imageprep"
	"github.com/perone/euclidesdb/internal/infrastructure/kafka"
	"github.com/perone/euclidesdb/internal/infrastructure/similar"
	"github.com/perone/euclidesdb/internal/proto"
	s3Repo "github.com/perone/euclidesdb/internal/repository/minio"
	"github.com/perone/euclidesdb/internal/repository/redis"
	redisConv "github.com/perone/euclidesdb/internal/repository/redis/converter"
	"github.com/perone/euclidesdb/internal/usecase"
	"github.com/perone/euclidesdb/pkg/clients"
	"github.com/perone/euclidesdb/pkg/closer"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// App связывает конфигурацию, инфраструктуру и сценарии.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	closer   *closer.Closer
	runUC    usecase.RunUC
	reportUC usecase.ReportUC // nil без Redis
}

// NewApp создаёт все зависимости. При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
	}

	if err := a.init(); err != nil {
		a.close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	conn, err := clients.NewSimilarConn(a.cfg.Similar)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize grpc client")
		return err
	}
	a.closer.AddCloser("grpc channel", conn)
	a.logger.Infof("euclidesdb channel to %s (tls: %t)", a.cfg.Similar.Addr(), a.cfg.Similar.UseTLS)

	service := similar.NewSimilarService(proto.NewSimilarClient(conn), a.cfg.Similar.CallTimeout, a.logger)

	pipeline, err := a.initPipeline()
	if err != nil {
		return err
	}

	reportRepo := a.initReportRepo()
	publisher := a.initPublisher()

	a.runUC = usecase.NewRunUC(
		pipeline,
		service,
		reportRepo,
		publisher,
		usecase.NewRetryPolicy(a.cfg.Similar.MaxAttempts, a.cfg.Similar.RetryBaseDelay, a.cfg.Similar.RetryMaxDelay),
		a.cfg.Run.MaxConcurrent,
		a.logger,
	)

	return nil
}

func (a *App) initPipeline() (*imageprep.Pipeline, error) {
	var objects imageprep.Loader
	if a.cfg.Minio != nil {
		minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
		if err != nil {
			a.logger.Errorf(err, "failed to initialize minio client")
			return nil, err
		}
		objects = s3Repo.NewImageRepo(minioClient)
		a.logger.Infof("object storage enabled at %s", a.cfg.Minio.Endpoint)
	}

	opts, err := imageprep.OptionsFromCfg(a.cfg.Image)
	if err != nil {
		return nil, err
	}

	loader := imageprep.NewResourceLoader(imageprep.NewFSLoader(a.cfg.Image.ResourcesDir), objects)
	return imageprep.NewPipeline(loader, imageprep.NewDrawCodec(a.cfg.Image.JPEGQuality), opts, a.logger), nil
}

// initReportRepo подключает Redis. Недоступный Redis не мешает прогону.
func (a *App) initReportRepo() usecase.ReportRepository {
	if a.cfg.Redis == nil {
		return nil
	}

	redisClient, err := clients.ConnectRedis(context.Background(), a.cfg.Redis, a.logger)
	if err != nil {
		a.logger.Warnf("redis unavailable, run reports will not be stored: %v", err)
		return nil
	}
	a.closer.AddCloser("redis", redisClient)

	repo := redis.NewReportRepo(redisClient, redisConv.NewReportInfoConverterImpl(), a.cfg.Redis, a.logger)
	a.reportUC = usecase.NewReportUC(repo)

	return repo
}

func (a *App) initPublisher() usecase.ResultPublisher {
	if a.cfg.Kafka == nil {
		return nil
	}

	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		a.logger.Warnf("failed to initialize kafka producer, results will not be published: %v", err)
		return nil
	}
	a.closer.AddCloser("kafka producer", producer)

	if a.cfg.Kafka.EnsureTopic {
		if err := producer.EnsureTopic(topicTimeout); err != nil {
			a.logger.Warnf("failed to ensure kafka topic %s: %v", a.cfg.Kafka.Topic, err)
		}
	}

	return producer
}

// Run выполняет один прогон. Частичные сбои вызовов не считаются ошибкой приложения,
// ошибка возвращается только для вызова на закрытом канале.
func (a *App) Run() error {
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.runUC.Run(ctx, runReqFromCfg(a.cfg.Run))
	if report != nil {
		a.logger.Infof("run %s: %d call(s), %d failed, took %v",
			report.RunID, len(report.Results), report.Failed(), report.FinishedAt.Sub(report.StartedAt))
	}
	if err != nil {
		a.logger.Errorf(err, "run aborted")
		return err
	}

	return nil
}

// ShowReports печатает сохранённые отчёты в w: один по runID или limit последних.
func (a *App) ShowReports(w io.Writer, runID string, limit int) error {
	defer a.close()

	if a.reportUC == nil {
		return e.Wrap(whereami.WhereAmI(), errors.New("report store is not configured or unavailable"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var reports []*usecase.ReportInfo
	if runID != "" {
		report, err := a.reportUC.GetReport(ctx, runID)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	} else {
		recent, err := a.reportUC.RecentReports(ctx, limit)
		if err != nil {
			return err
		}
		reports = recent
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, report := range reports {
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report %s: %w", report.RunID, err)
		}
	}

	return nil
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("shutdown: %v", err)
		return
	}
	a.logger.Infof("Application shutdown complete")
}

func runReqFromCfg(run *config.RunCfg) *usecase.RunReq {
	batch := make([]usecase.BatchItem, 0, len(run.Batch))
	for _, entry := range run.Batch {
		batch = append(batch, usecase.NewBatchItem(entry.Path, domain.ImageID(entry.ID), entry.Metadata))
	}

	req := usecase.NewRunReq(domain.NewModelSelector(run.Models...), run.TopK, batch)
	req.QueryImage = run.QueryImage
	req.Shutdown = run.Shutdown
	req.ShutdownType = domain.ShutdownType(run.ShutdownType)
	if run.RemoveID != nil {
		id := domain.ImageID(*run.RemoveID)
		req.RemoveID = &id
	}
	if run.QueryID != nil {
		id := domain.ImageID(*run.QueryID)
		req.QueryID = &id
	}

	return req
}
