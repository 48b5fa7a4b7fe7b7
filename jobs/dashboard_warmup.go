package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/dashboard"
	jobmetrics "github.com/pulseboard/pulseboard/internal/jobs"
	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/store"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

var warmupDirs = []string{
	snapshot.DirPulse,
	snapshot.DirTickets,
	snapshot.DirQA,
	snapshot.DirDSAT,
	snapshot.DirDaily,
}

// DashboardWarmupJob preloads the snapshot cache with the latest week of
// every report and the latest monthly roll-ups, so the first visitor
// after a publish does not pay the load.
type DashboardWarmupJob struct {
	Store   store.Store
	Router  *dashboard.Router
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(st store.Store, router *dashboard.Router, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Store:   st,
		Router:  router,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	dirs := payload.Dirs
	if len(dirs) == 0 {
		dirs = warmupDirs
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.now()
	logger.Info("starting dashboard warmup", slog.Int("dirs", len(dirs)))

	idx, err := j.Store.Index(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load index", slog.Any("error", err))
		return resultErr
	}

	warmed := 0
	for _, dir := range dirs {
		warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Store.Report(warmCtx, dir, idx.Latest)
		cancel()
		if err != nil && !errors.Is(err, store.ErrNoData) {
			resultErr = err
			logger.Error("warm report", slog.String("dir", dir), slog.Any("error", err))
			return resultErr
		}
		if err == nil {
			warmed++
			j.metrics().AddWarmed(dir, 1)
		}
	}

	if j.Router != nil && idx.LatestMonth != "" {
		for _, dir := range []string{snapshot.DirPulse, snapshot.DirQA} {
			warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
			_, err := j.Router.AggregateMonth(warmCtx, dir, idx.LatestMonth)
			cancel()
			if err != nil && !errors.Is(err, store.ErrNoData) {
				resultErr = err
				logger.Error("warm month", slog.String("dir", dir), slog.Any("error", err))
				return resultErr
			}
			if err == nil {
				warmed++
				j.metrics().AddWarmed(dir, 1)
			}
		}
	}

	logger.Info("completed dashboard warmup",
		slog.Int("warmed", warmed),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
