package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunReport описывает один прогон оркестратора
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []CallResult
}

func NewRunReport(startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: startedAt.UTC(),
	}
}

// Failed возвращает число неуспешных вызовов.
func (r *RunReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}
