package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// RunUseCase исполняет план прогона против сервиса и собирает упорядоченные CallResult.
type RunUseCase struct {
	preparer      ImagePreparer
	similar       SimilarInfra
	reportRepo    ReportRepository // может быть nil
	publisher     ResultPublisher  // может быть nil
	retry         RetryPolicy
	maxConcurrent int
	logger        logger.Logger
}

func NewRunUC(
	preparer ImagePreparer,
	similar SimilarInfra,
	reportRepo ReportRepository,
	publisher ResultPublisher,
	retry RetryPolicy,
	maxConcurrent int,
	logger logger.Logger,
) *RunUseCase {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &RunUseCase{
		preparer:      preparer,
		similar:       similar,
		reportRepo:    reportRepo,
		publisher:     publisher,
		retry:         retry,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Run выполняет шаги по порядку: пакет AddImage, RemoveImage, FindSimilarByImage, FindSimilarById, Shutdown.
// Ошибка одного шага не останавливает остальные. Исключение: вызов после остановки сервиса,
// тогда возвращаются накопленные результаты и ошибка ErrChannelClosed.
func (u *RunUseCase) Run(ctx context.Context, req *RunReq) (*domain.RunReport, error) {
	const op = "RunUseCase.Run"

	report := domain.NewRunReport(time.Now())
	log := u.logger.With("run_id", report.RunID)
	log.Infof("run started: %d image(s) in batch, models %v, top k %d", len(req.Batch), req.Models, req.TopK)

	var fatal error
	defer func() {
		report.FinishedAt = time.Now().UTC()
		u.persist(ctx, log, report)
	}()

	// Добавление изображений
	for _, res := range u.addBatch(ctx, log, req) {
		report.Results = append(report.Results, res)
		if fatal == nil && errors.Is(res.Err, e.ErrChannelClosed) {
			fatal = res.Err
		}
	}
	if fatal != nil {
		log.Errorf(fatal, "channel closed during add batch, aborting run")
		return report, e.Wrap(op, fatal)
	}

	for _, step := range u.steps(req) {
		res := step(ctx, log)
		logResult(log, len(report.Results), res)
		report.Results = append(report.Results, res)

		if errors.Is(res.Err, e.ErrChannelClosed) {
			log.Errorf(res.Err, "%s issued on a closed channel, aborting run", res.Call)
			return report, e.Wrap(op, res.Err)
		}
	}

	log.Infof("run finished: %d call(s), %d failed", len(report.Results), report.Failed())
	return report, nil
}

type step func(ctx context.Context, log logger.Logger) domain.CallResult

// steps собирает шаги после пакета добавления, пропуская незаданные.
func (u *RunUseCase) steps(req *RunReq) []step {
	var steps []step

	if req.RemoveID != nil {
		id := *req.RemoveID
		steps = append(steps, func(ctx context.Context, log logger.Logger) domain.CallResult {
			return u.removeImage(ctx, log, id)
		})
	}
	if req.QueryImage != "" {
		steps = append(steps, func(ctx context.Context, log logger.Logger) domain.CallResult {
			return u.findByImage(ctx, log, req.Models, req.QueryImage, req.TopK)
		})
	}
	if req.QueryID != nil {
		id := *req.QueryID
		steps = append(steps, func(ctx context.Context, log logger.Logger) domain.CallResult {
			return u.findByID(ctx, log, req.Models, id, req.TopK)
		})
	}
	if req.Shutdown {
		steps = append(steps, func(ctx context.Context, _ logger.Logger) domain.CallResult {
			return u.shutdown(ctx, req.ShutdownType)
		})
	}

	return steps
}

// addBatch добавляет изображения параллельно, не более maxConcurrent одновременно.
// Порядок результатов совпадает с порядком пакета.
func (u *RunUseCase) addBatch(ctx context.Context, log logger.Logger, req *RunReq) []domain.CallResult {
	results := make([]domain.CallResult, len(req.Batch))

	var g errgroup.Group
	g.SetLimit(u.maxConcurrent)
	for i, item := range req.Batch {
		g.Go(func() error {
			results[i] = u.addImage(ctx, log, req.Models, item)
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		logResult(log, i, res)
	}

	return results
}

func (u *RunUseCase) addImage(ctx context.Context, log logger.Logger, models domain.ModelSelector, item BatchItem) domain.CallResult {
	id := item.ID

	image, err := u.preparer.Prepare(ctx, item.Path)
	if err != nil {
		return domain.NewFailure(domain.CallAddImage, err).WithImage(&id, item.Path)
	}

	reply, err := withRetry(ctx, u.retry, log, domain.CallAddImage, func(ctx context.Context) (*domain.AddImageReply, error) {
		return u.similar.AddImage(ctx, id, models, image, item.Metadata)
	})
	if err != nil {
		return domain.NewFailure(domain.CallAddImage, err).WithImage(&id, item.Path)
	}

	return domain.NewSuccess(domain.CallAddImage, reply).WithImage(&id, item.Path)
}

func (u *RunUseCase) removeImage(ctx context.Context, log logger.Logger, id domain.ImageID) domain.CallResult {
	reply, err := withRetry(ctx, u.retry, log, domain.CallRemoveImage, func(ctx context.Context) (*domain.RemoveImageReply, error) {
		return u.similar.RemoveImage(ctx, id)
	})
	if err != nil {
		return domain.NewFailure(domain.CallRemoveImage, err).WithImage(&id, "")
	}

	return domain.NewSuccess(domain.CallRemoveImage, reply).WithImage(&id, "")
}

func (u *RunUseCase) findByImage(ctx context.Context, log logger.Logger, models domain.ModelSelector, path string, topK int) domain.CallResult {
	image, err := u.preparer.Prepare(ctx, path)
	if err != nil {
		return domain.NewFailure(domain.CallFindSimilarByImage, err).WithImage(nil, path)
	}

	reply, err := withRetry(ctx, u.retry, log, domain.CallFindSimilarByImage, func(ctx context.Context) (*domain.FindSimilarReply, error) {
		return u.similar.FindSimilarByImage(ctx, models, image, topK)
	})
	if err != nil {
		return domain.NewFailure(domain.CallFindSimilarByImage, err).WithImage(nil, path)
	}

	return domain.NewSuccess(domain.CallFindSimilarByImage, reply).WithImage(nil, path)
}

func (u *RunUseCase) findByID(ctx context.Context, log logger.Logger, models domain.ModelSelector, id domain.ImageID, topK int) domain.CallResult {
	reply, err := withRetry(ctx, u.retry, log, domain.CallFindSimilarByID, func(ctx context.Context) (*domain.FindSimilarReply, error) {
		return u.similar.FindSimilarByID(ctx, models, id, topK)
	})
	if err != nil {
		return domain.NewFailure(domain.CallFindSimilarByID, err).WithImage(&id, "")
	}

	return domain.NewSuccess(domain.CallFindSimilarByID, reply).WithImage(&id, "")
}

// shutdown не повторяется: на канал отправляется не более одного Shutdown.
func (u *RunUseCase) shutdown(ctx context.Context, shutdownType domain.ShutdownType) domain.CallResult {
	reply, err := u.similar.Shutdown(ctx, shutdownType)
	if err != nil {
		return domain.NewFailure(domain.CallShutdown, err)
	}

	return domain.NewSuccess(domain.CallShutdown, reply)
}

// persist сохраняет и публикует отчёт. Сбои приёмников только логируются.
func (u *RunUseCase) persist(ctx context.Context, log logger.Logger, report *domain.RunReport) {
	// Отчёт сохраняется и после отмены ctx прогона
	ctx = context.WithoutCancel(ctx)

	if u.reportRepo != nil {
		if err := u.reportRepo.SaveReport(ctx, report); err != nil {
			log.Warnf("failed to save run report: %v", err)
		}
	}

	if u.publisher != nil {
		if err := u.publisher.PublishReport(ctx, report); err != nil {
			log.Warnf("failed to publish run report: %v", err)
		}
	}
}

func logResult(log logger.Logger, seq int, res domain.CallResult) {
	if res.OK() {
		log.Infof("#%d %s %s: %s", seq, res.Call, describeTarget(res), res.Summary())
		return
	}

	log.Errorf(res.Err, "#%d %s %s failed: %s", seq, res.Call, describeTarget(res), res.Kind())
}

func describeTarget(res domain.CallResult) string {
	switch {
	case res.ImageID != nil && res.ImagePath != "":
		return fmt.Sprintf("%s (id %d)", res.ImagePath, *res.ImageID)
	case res.ImageID != nil:
		return fmt.Sprintf("id %d", *res.ImageID)
	default:
		return res.ImagePath
	}
}
