package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	RecordJobRun(ctx context.Context, run *models.JobRun) error
	ListJobRuns(ctx context.Context, filter HistoryFilter) ([]*models.JobRun, int, error)

	RecordIngestion(ctx context.Context, ing *models.Ingestion) error
	ListIngestions(ctx context.Context, filter HistoryFilter) ([]*models.Ingestion, int, error)
}

// HistoryFilter selects one session's history, newest first.
type HistoryFilter struct {
	SessionID uuid.UUID
	JobType   models.JobType // job runs only
	Page      int
	Limit     int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalize clamps pagination and returns the limit and offset to query with.
func (f HistoryFilter) normalize() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
