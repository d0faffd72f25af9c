package usecase

import (
	"context"

	"github.com/perone/euclidesdb/internal/domain"
)

type ReportRepository interface {
	SaveReport(ctx context.Context, report *domain.RunReport) error
	GetReport(ctx context.Context, runID string) (*ReportInfo, error)
	RecentRunIDs(ctx context.Context, limit int) ([]string, error)
}
