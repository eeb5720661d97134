package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/pickup"
)

// RefreshJob refreshes the schedule snapshots of a set of household pickup
// services.
type RefreshJob struct {
	config   RefreshConfig
	logger   zerolog.Logger
	services []*pickup.Service

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	SuccessfulRefreshes int64
	FailedRefreshes     int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Logger   zerolog.Logger
	Services []*pickup.Service
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:   config,
		logger:   cfg.Logger,
		services: cfg.Services,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []RefreshError
}

// RefreshError records a failed household refresh.
type RefreshError struct {
	ZipCode string
	Error   string
}

// Run refreshes every household with bounded concurrency.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime: startTime,
		Total:     len(j.services),
	}

	j.logger.Info().
		Int("households", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting schedule refresh job")

	servicesChan := make(chan *pickup.Service, len(j.services))
	resultsChan := make(chan RefreshError, len(j.services))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, servicesChan, resultsChan)
		}()
	}

	for _, svc := range j.services {
		servicesChan <- svc
	}
	close(servicesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for re := range resultsChan {
		if re.Error == "" {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, re)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("schedule refresh job completed")

	return result
}

func (j *RefreshJob) refreshWorker(ctx context.Context, services <-chan *pickup.Service, results chan<- RefreshError) {
	for svc := range services {
		select {
		case <-ctx.Done():
			return
		default:
		}

		svcCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
		err := svc.Refresh(svcCtx)
		cancel()

		re := RefreshError{ZipCode: svc.Config().ZipCode}
		if err != nil {
			re.Error = err.Error()
		}
		results <- re
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefreshes += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulRefreshes: j.metrics.SuccessfulRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		LastRunAt:           j.metrics.LastRunAt,
		LastRunDuration:     j.metrics.LastRunDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for the worker's
// status endpoint.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":           m.TotalRuns,
		"successful_refreshes": m.SuccessfulRefreshes,
		"failed_refreshes":     m.FailedRefreshes,
		"last_run_at":          m.LastRunAt,
		"last_run_duration":    m.LastRunDuration.String(),
		"total_duration":       m.TotalDuration.String(),
	}
}
