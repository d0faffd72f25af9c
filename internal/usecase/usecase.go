package usecase

import (
	"context"

	"github.com/perone/euclidesdb/internal/domain"
)

type RunUC interface {
	Run(ctx context.Context, req *RunReq) (*domain.RunReport, error)
}

type ReportUC interface {
	GetReport(ctx context.Context, runID string) (*ReportInfo, error)
	RecentReports(ctx context.Context, limit int) ([]*ReportInfo, error)
}
