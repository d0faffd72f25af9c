package usecase

import (
	"time"

	"github.com/perone/euclidesdb/internal/domain"
)

// RUN USECASE

// BatchItem описывает изображение для регистрации.
type BatchItem struct {
	Path     string
	ID       domain.ImageID
	Metadata string
}

// RunReq — план одного прогона. Шаги удаления и поиска выполняются, только если заданы.
type RunReq struct {
	Models       domain.ModelSelector
	TopK         int
	Batch        []BatchItem
	RemoveID     *domain.ImageID
	QueryImage   string
	QueryID      *domain.ImageID
	Shutdown     bool
	ShutdownType domain.ShutdownType
}

// RetryPolicy — ограниченные повторы для ErrRemoteCall и ErrTimeout.
// MaxAttempts = 1 означает без повторов.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// MAPPERS

func NewBatchItem(path string, id domain.ImageID, metadata string) BatchItem {
	return BatchItem{
		Path:     path,
		ID:       id,
		Metadata: metadata,
	}
}

func NewRunReq(models domain.ModelSelector, topK int, batch []BatchItem) *RunReq {
	return &RunReq{
		Models: models,
		TopK:   topK,
		Batch:  batch,
	}
}

func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
}

// ReportInfo — плоское представление отчёта для хранилищ и событий.
type ReportInfo struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []CallResultInfo
}

// CallResultInfo хранит результат вызова без типизированного ответа.
type CallResultInfo struct {
	Seq       int
	Call      string
	ImageID   *int32
	ImagePath string
	Success   bool
	ErrorKind string
	Error     string
	Summary   string
}

func NewReportInfo(report *domain.RunReport) *ReportInfo {
	info := &ReportInfo{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Results:    make([]CallResultInfo, 0, len(report.Results)),
	}

	for i, res := range report.Results {
		item := CallResultInfo{
			Seq:       i,
			Call:      string(res.Call),
			ImagePath: res.ImagePath,
			Success:   res.OK(),
			ErrorKind: res.Kind(),
			Summary:   res.Summary(),
		}
		if res.ImageID != nil {
			id := int32(*res.ImageID)
			item.ImageID = &id
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		info.Results = append(info.Results, item)
	}

	return info
}
