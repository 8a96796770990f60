// Package store persists the job registry: every BOQ submission the console
// has made, its lifecycle state, and the report path once completed.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boq-console/internal/config"
	"github.com/sells-group/boq-console/internal/model"
)

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	State  model.JobState `json:"state,omitempty"`
	Active bool           `json:"active,omitempty"` // only non-terminal jobs
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// Store defines the job registry persistence interface.
type Store interface {
	SaveJob(ctx context.Context, job model.Job) error
	UpdateJob(ctx context.Context, job model.Job) error
	GetJob(ctx context.Context, taskID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)
	DeleteJob(ctx context.Context, taskID string) error

	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store configured by cfg. The sqlite driver is the default.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	}
	return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
}
