package converter

import "time"

type ReportRedisModel struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Results    []CallResultRedisModel `json:"results"`
}

type CallResultRedisModel struct {
	Seq       int    `json:"seq"`
	Call      string `json:"call"`
	ImageID   *int32 `json:"image_id,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Summary   string `json:"summary"`
}
