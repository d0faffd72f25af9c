package usecase

import (
	"context"
	"errors"

	"github.com/perone/euclidesdb/pkg/e"
)

// ReportUseCase читает сохранённые отчёты прогонов.
type ReportUseCase struct {
	reportRepo ReportRepository
}

func NewReportUC(reportRepo ReportRepository) *ReportUseCase {
	return &ReportUseCase{reportRepo: reportRepo}
}

// GetReport возвращает отчёт по ID прогона.
func (r *ReportUseCase) GetReport(ctx context.Context, runID string) (*ReportInfo, error) {
	const op = "ReportUseCase.GetReport"

	info, err := r.reportRepo.GetReport(ctx, runID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return info, nil
}

// RecentReports возвращает до limit последних отчётов, новые первыми.
// Истёкшие по TTL отчёты пропускаются.
func (r *ReportUseCase) RecentReports(ctx context.Context, limit int) ([]*ReportInfo, error) {
	const op = "ReportUseCase.RecentReports"

	ids, err := r.reportRepo.RecentRunIDs(ctx, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	reports := make([]*ReportInfo, 0, len(ids))
	for _, id := range ids {
		info, err := r.reportRepo.GetReport(ctx, id)
		if err != nil {
			if errors.Is(err, e.ErrResourceNotFound) {
				continue
			}
			return nil, e.Wrap(op, err)
		}
		reports = append(reports, info)
	}

	return reports, nil
}
