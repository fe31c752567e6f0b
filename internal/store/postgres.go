package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return collectAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return collectAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// --- Job Runs ---

func (s *PostgresStore) RecordJobRun(ctx context.Context, run *models.JobRun) error {
	params := run.Params
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	var result []byte
	if len(run.Result) > 0 {
		result = run.Result
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_runs (id, session_id, job_type, video_id, params, ok, status_code, result, error_message, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.SessionID, string(run.JobType), run.VideoID, []byte(params), run.OK, run.StatusCode,
		result, run.ErrorMessage, run.StartedAt, run.CompletedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("record job run: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListJobRuns(ctx context.Context, filter HistoryFilter) ([]*models.JobRun, int, error) {
	conditions := []string{"session_id = $1"}
	args := []any{filter.SessionID}
	argIdx := 2

	if filter.JobType != "" {
		conditions = append(conditions, fmt.Sprintf("job_type = $%d", argIdx))
		args = append(args, string(filter.JobType))
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM job_runs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count job runs: %w", err)
	}

	limit, offset := filter.normalize()
	query := fmt.Sprintf(
		`SELECT id, session_id, job_type, video_id, params, ok, status_code, result, error_message, started_at, completed_at
		 FROM job_runs WHERE %s ORDER BY started_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list job runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.JobRun{}
	for rows.Next() {
		var (
			r       models.JobRun
			jobType string
			params  []byte
			result  []byte
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &jobType, &r.VideoID, &params, &r.OK, &r.StatusCode,
			&result, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, 0, fmt.Errorf("scan job run: %w", err)
		}
		r.JobType = models.JobType(jobType)
		r.Params = params
		r.Result = result
		runs = append(runs, &r)
	}
	return runs, total, rows.Err()
}

// --- Ingestions ---

func (s *PostgresStore) RecordIngestion(ctx context.Context, ing *models.Ingestion) error {
	var extracted []byte
	if ing.Extracted != nil {
		b, err := json.Marshal(ing.Extracted)
		if err != nil {
			return fmt.Errorf("encode extracted info: %w", err)
		}
		extracted = b
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingestions (id, session_id, source, video_id, source_url, category, extracted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ing.ID, ing.SessionID, string(ing.Source), ing.VideoID, ing.SourceURL, ing.Category, extracted, ing.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("record ingestion: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListIngestions(ctx context.Context, filter HistoryFilter) ([]*models.Ingestion, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ingestions WHERE session_id = $1`, filter.SessionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ingestions: %w", err)
	}

	limit, offset := filter.normalize()
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, source, video_id, source_url, category, extracted, created_at
		 FROM ingestions WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		filter.SessionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ingestions: %w", err)
	}
	defer rows.Close()

	out := []*models.Ingestion{}
	for rows.Next() {
		var (
			ing       models.Ingestion
			source    string
			extracted []byte
		)
		if err := rows.Scan(&ing.ID, &ing.SessionID, &source, &ing.VideoID, &ing.SourceURL,
			&ing.Category, &extracted, &ing.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan ingestion: %w", err)
		}
		ing.Source = models.IngestionSource(source)
		if len(extracted) > 0 {
			var info models.ExtractedInfo
			if err := json.Unmarshal(extracted, &info); err != nil {
				return nil, 0, fmt.Errorf("decode extracted info: %w", err)
			}
			ing.Extracted = &info
		}
		out = append(out, &ing)
	}
	return out, total, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
