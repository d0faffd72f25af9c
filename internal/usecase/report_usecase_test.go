package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/perone/euclidesdb/internal/domain"
	"github.com/perone/euclidesdb/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memReports struct {
	ids     []string
	reports map[string]*ReportInfo
}

func (m *memReports) SaveReport(_ context.Context, report *domain.RunReport) error {
	m.ids = append([]string{report.RunID}, m.ids...)
	m.reports[report.RunID] = NewReportInfo(report)
	return nil
}

func (m *memReports) GetReport(_ context.Context, runID string) (*ReportInfo, error) {
	info, ok := m.reports[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", e.ErrResourceNotFound, runID)
	}
	return info, nil
}

func (m *memReports) RecentRunIDs(_ context.Context, limit int) ([]string, error) {
	return m.ids[:min(limit, len(m.ids))], nil
}

func TestReportUseCase_RecentReports(t *testing.T) {
	repo := &memReports{reports: map[string]*ReportInfo{}}
	ctx := context.Background()

	var reports []*domain.RunReport
	for i := 0; i < 3; i++ {
		report := domain.NewRunReport(time.Now().Add(time.Duration(i) * time.Second))
		report.Results = []domain.CallResult{domain.NewFailure(domain.CallRemoveImage, e.ErrTimeout)}
		require.NoError(t, repo.SaveReport(ctx, report))
		reports = append(reports, report)
	}
	// отчёт истёк по TTL
	delete(repo.reports, reports[1].RunID)

	uc := NewReportUC(repo)
	recent, err := uc.RecentReports(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, reports[2].RunID, recent[0].RunID)
	assert.Equal(t, reports[0].RunID, recent[1].RunID)
	assert.Equal(t, "TimeoutError", recent[0].Results[0].ErrorKind)

	_, err = uc.GetReport(ctx, "nope")
	assert.ErrorIs(t, err, e.ErrResourceNotFound)
}
