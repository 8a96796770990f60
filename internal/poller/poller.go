// Package poller drives a submitted job from pending to a terminal state by
// polling the backend on a fixed interval.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/pkg/estimator"
)

// DefaultInterval matches the dashboard's 2-second poll cadence.
const DefaultInterval = 2 * time.Second

// StatusFetcher is the slice of the backend client the poller needs.
type StatusFetcher interface {
	TaskStatus(ctx context.Context, taskID string) (*estimator.StatusResponse, error)
}

// Poller polls one job until it reaches a terminal state or the context is
// cancelled. Poll failures are logged and the previous state is retained;
// the next tick tries again.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	onUpdate func(model.Job)
}

// New creates a poller. onUpdate, if non-nil, fires after every applied
// status response. A non-positive interval falls back to DefaultInterval.
func New(fetcher StatusFetcher, interval time.Duration, onUpdate func(model.Job)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{fetcher: fetcher, interval: interval, onUpdate: onUpdate}
}

// Run polls the job until terminal. It returns the last known job state;
// the error is non-nil only when the context ended first.
func (p *Poller) Run(ctx context.Context, job model.Job) (model.Job, error) {
	if job.State.Terminal() {
		return job, nil
	}

	log := zap.L().With(
		zap.String("component", "poller"),
		zap.String("task_id", job.TaskID),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job = p.poll(ctx, job, log)
		if job.State.Terminal() {
			log.Info("job reached terminal state", zap.String("state", string(job.State)))
			return job, nil
		}

		select {
		case <-ctx.Done():
			log.Info("polling cancelled")
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, job model.Job, log *zap.Logger) model.Job {
	resp, err := p.fetcher.TaskStatus(ctx, job.TaskID)
	if err != nil {
		// Transient fault: keep the previous state, try again next tick.
		log.Warn("poll failed", zap.Error(err))
		return job
	}

	updated := Apply(job, resp)
	if p.onUpdate != nil {
		p.onUpdate(updated)
	}
	return updated
}

// Apply folds a status response into the job. A response arriving after the
// job is already terminal is a no-op: each applied poll fully replaces the
// progress and result fields, and terminal states never transition.
func Apply(job model.Job, resp *estimator.StatusResponse) model.Job {
	if job.State.Terminal() {
		return job
	}

	job.ProgressPercent = resp.Progress.Percent
	job.ProgressStep = resp.Progress.Step

	switch resp.Status {
	case estimator.StatusSuccess:
		job.State = model.JobStateCompleted
		if resp.Result != nil {
			job.OutputFile = resp.Result.OutputFilePath
		}
	case estimator.StatusFailure:
		job.State = model.JobStateFailed
		job.Error = string(resp.Error)
	default:
		job.State = model.JobStateProcessing
	}

	job.UpdatedAt = time.Now().UTC()
	return job
}
