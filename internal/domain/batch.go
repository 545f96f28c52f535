package domain

import "time"

type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
)

// Batch is one FetchBatch round and its completion counters.
type Batch struct {
	ID         string      `json:"id"`
	Total      int         `json:"total"`
	Completed  int         `json:"completed"`
	Failed     int         `json:"failed"`
	Canceled   int         `json:"canceled"`
	Status     BatchStatus `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// Done reports whether every task of the batch has either run or been dropped.
func (b Batch) Done() bool { return b.Completed+b.Canceled >= b.Total }
