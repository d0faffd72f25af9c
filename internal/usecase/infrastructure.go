package usecase

import (
	"context"

	"github.com/perone/euclidesdb/internal/domain"
)

type ImagePreparer interface {
	Prepare(ctx context.Context, path string) (*domain.PreparedImage, error)
}

type SimilarInfra interface {
	AddImage(ctx context.Context, id domain.ImageID, models domain.ModelSelector, image *domain.PreparedImage, metadata string) (*domain.AddImageReply, error)
	RemoveImage(ctx context.Context, id domain.ImageID) (*domain.RemoveImageReply, error)
	FindSimilarByImage(ctx context.Context, models domain.ModelSelector, image *domain.PreparedImage, topK int) (*domain.FindSimilarReply, error)
	FindSimilarByID(ctx context.Context, models domain.ModelSelector, id domain.ImageID, topK int) (*domain.FindSimilarReply, error)
	Shutdown(ctx context.Context, shutdownType domain.ShutdownType) (*domain.ShutdownReply, error)
}

type ResultPublisher interface {
	PublishReport(ctx context.Context, report *domain.RunReport) error
}
