package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup preloads the snapshot cache with the periods
	// visitors land on first.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskCacheBump invalidates every cached snapshot after the
	// reporting pipeline publishes new files.
	TaskCacheBump = "cache:bump"
)

// WarmupPayload narrows a warmup run to specific report directories.
// Empty means every directory.
type WarmupPayload struct {
	Dirs []string `json:"dirs,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// BumpPayload records why the cache was invalidated.
type BumpPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewCacheBumpTask constructs an Asynq task.
func NewCacheBumpTask(payload BumpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheBump, data), nil
}
