package similar

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/internal/proto"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/perone/euclidesdb/pkg/logger"
	"google.golang.org/grpc/codes"
)

// SimilarService — типизированный фасад над пятью операциями сервиса EuclidesDB.
// Повторов не делает: политика повторов принадлежит оркестратору.
type SimilarService struct {
	client      proto.SimilarClient
	callTimeout time.Duration
	logger      logger.Logger

	mu           sync.Mutex
	shutdownSent bool // Shutdown уже отправлялся на этом канале
	closed       bool // сервис подтвердил остановку
}

func NewSimilarService(client proto.SimilarClient, callTimeout time.Duration, logger logger.Logger) *SimilarService {
	return &SimilarService{
		client:      client,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// AddImage регистрирует изображение в пространствах указанных моделей.
func (s *SimilarService) AddImage(ctx context.Context, id domain.ImageID, models domain.ModelSelector,
	image *domain.PreparedImage, metadata string) (*domain.AddImageReply, error) {
	const op = "SimilarService.AddImage"

	if err := s.ensureOpen(domain.CallAddImage); err != nil {
		return nil, e.Wrap(op, err)
	}
	if image.Empty() {
		return nil, e.Wrap(op, e.ErrEmptyImage)
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.AddImage(ctx, &proto.AddImageRequest{
		ImageId:       int32(id),
		Models:        models,
		ImageData:     image.Data,
		ImageMetadata: metadata,
	})
	if err != nil {
		return nil, e.Wrap(op, classify(ctx, domain.CallAddImage, err))
	}

	reply := &domain.AddImageReply{Vectors: make([]domain.ItemVectors, 0, len(res.Vectors))}
	for _, v := range res.Vectors {
		if v == nil {
			continue
		}
		reply.Vectors = append(reply.Vectors, domain.ItemVectors{
			Model:       v.Model,
			Predictions: v.Predictions,
			Features:    v.Features,
		})
	}

	return reply, nil
}

func (s *SimilarService) RemoveImage(ctx context.Context, id domain.ImageID) (*domain.RemoveImageReply, error) {
	const op = "SimilarService.RemoveImage"

	if err := s.ensureOpen(domain.CallRemoveImage); err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.RemoveImage(ctx, &proto.RemoveImageRequest{ImageId: int32(id)})
	if err != nil {
		return nil, e.Wrap(op, classify(ctx, domain.CallRemoveImage, err))
	}

	return &domain.RemoveImageReply{ImageID: domain.ImageID(res.ImageId)}, nil
}

// FindSimilarByImage ищет похожие изображения по содержимому.
// topK в диапазоне int32 передаётся как есть, некорректное значение отклоняет сервис.
func (s *SimilarService) FindSimilarByImage(ctx context.Context, models domain.ModelSelector,
	image *domain.PreparedImage, topK int) (*domain.FindSimilarReply, error) {
	const op = "SimilarService.FindSimilarByImage"

	if err := s.ensureOpen(domain.CallFindSimilarByImage); err != nil {
		return nil, e.Wrap(op, err)
	}
	if image.Empty() {
		return nil, e.Wrap(op, e.ErrEmptyImage)
	}

	k, err := topKArg(domain.CallFindSimilarByImage, topK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.FindSimilarImage(ctx, &proto.FindSimilarImageRequest{
		TopK:      k,
		Models:    models,
		ImageData: image.Data,
	})
	if err != nil {
		return nil, e.Wrap(op, classify(ctx, domain.CallFindSimilarByImage, err))
	}

	return toFindReply(res), nil
}

func (s *SimilarService) FindSimilarByID(ctx context.Context, models domain.ModelSelector,
	id domain.ImageID, topK int) (*domain.FindSimilarReply, error) {
	const op = "SimilarService.FindSimilarByID"

	if err := s.ensureOpen(domain.CallFindSimilarByID); err != nil {
		return nil, e.Wrap(op, err)
	}

	k, err := topKArg(domain.CallFindSimilarByID, topK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.FindSimilarImageById(ctx, &proto.FindSimilarImageByIdRequest{
		TopK:    k,
		Models:  models,
		ImageId: int32(id),
	})
	if err != nil {
		return nil, e.Wrap(op, classify(ctx, domain.CallFindSimilarByID, err))
	}

	return toFindReply(res), nil
}

// Shutdown просит сервис остановиться. На канал отправляется не более одного Shutdown;
// после успешного ответа все вызовы возвращают ErrChannelClosed.
func (s *SimilarService) Shutdown(ctx context.Context, shutdownType domain.ShutdownType) (*domain.ShutdownReply, error) {
	const op = "SimilarService.Shutdown"

	s.mu.Lock()
	if s.closed || s.shutdownSent {
		s.mu.Unlock()
		return nil, e.Wrap(op, fmt.Errorf("%w: shutdown already issued", e.ErrChannelClosed))
	}
	s.shutdownSent = true
	s.mu.Unlock()

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.Shutdown(ctx, &proto.ShutdownRequest{ShutdownType: int32(shutdownType)})
	if err != nil {
		s.logger.Warnf("shutdown type %d failed, channel stays open for other calls", shutdownType)
		return nil, e.Wrap(op, classify(ctx, domain.CallShutdown, err))
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.logger.Infof("service accepted shutdown type %d, channel closed", shutdownType)

	return &domain.ShutdownReply{Shutdown: res.Shutdown}, nil
}

// Closed сообщает, что сервис подтвердил остановку.
func (s *SimilarService) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SimilarService) ensureOpen(call domain.Call) error {
	if s.Closed() {
		return fmt.Errorf("%w: %s after shutdown", e.ErrChannelClosed, call)
	}
	return nil
}

func (s *SimilarService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// topKArg отклоняет topK, не представимый в поле top_k (int32), не обращаясь к сервису.
func topKArg(call domain.Call, topK int) (int32, error) {
	if topK < math.MinInt32 || topK > math.MaxInt32 {
		return 0, &CallError{
			Call:    call,
			Code:    codes.InvalidArgument,
			Message: fmt.Sprintf("top k %d does not fit int32", topK),
			Err:     e.ErrServiceRejected,
		}
	}
	return int32(topK), nil
}

func toFindReply(res *proto.FindSimilarImageReply) *domain.FindSimilarReply {
	reply := &domain.FindSimilarReply{Results: make([]domain.SearchResults, 0, len(res.Results))}
	for _, r := range res.Results {
		if r == nil {
			continue
		}

		ids := make([]domain.ImageID, len(r.TopKIds))
		for i, id := range r.TopKIds {
			ids[i] = domain.ImageID(id)
		}

		reply.Results = append(reply.Results, domain.SearchResults{
			Model:     r.Model,
			IDs:       ids,
			Distances: r.Distances,
		})
	}

	return reply
}
