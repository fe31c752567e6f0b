package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/clipforge/internal/store"
	"github.com/kiranshivaraju/clipforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("clipforge_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))
	// A second run finds nothing to apply.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newKey(prefix string) *models.APIKey {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.APIKey{
		ID:        uuid.New(),
		Name:      "key-" + uuid.NewString()[:4],
		KeyHash:   "hash-" + uuid.NewString()[:4],
		KeyPrefix: prefix,
		Scopes:    []string{"dashboard"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("cf_abcd1")
	key.Scopes = []string{"dashboard", "admin"}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	keys, err := s.GetAPIKeyByPrefix(ctx, "cf_abcd1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, key.Name, keys[0].Name)
	assert.Equal(t, []string{"dashboard", "admin"}, keys[0].Scopes)
}

func TestAPIKey_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateAPIKey(ctx, newKey("cf_"+uuid.NewString()[:5])))
	}

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestAPIKey_Revoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("cf_revk1")
	require.NoError(t, s.CreateAPIKey(ctx, key))

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = s.GetAPIKeyByPrefix(ctx, "cf_revk1")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// Revoking twice is not found.
	assert.ErrorIs(t, s.RevokeAPIKey(ctx, key.ID), store.ErrNotFound)
}

func TestAPIKey_RevokeNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.RevokeAPIKey(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAPIKey_UpdateLastUsed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("cf_used1")
	require.NoError(t, s.CreateAPIKey(ctx, key))
	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))

	keys, err := s.GetAPIKeyByPrefix(ctx, "cf_used1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

func TestAPIKey_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey("cf_dup01")
	require.NoError(t, s.CreateAPIKey(ctx, key))

	key2 := newKey("cf_dup02")
	key2.ID = key.ID
	assert.ErrorIs(t, s.CreateAPIKey(ctx, key2), store.ErrDuplicateKey)
}

// --- Job Run Tests ---

func newRun(sessionID uuid.UUID, jobType models.JobType, startedAt time.Time) *models.JobRun {
	videoID := "abc123"
	return &models.JobRun{
		ID:          uuid.New(),
		SessionID:   sessionID,
		JobType:     jobType,
		VideoID:     &videoID,
		Params:      json.RawMessage(`{"target_duration_s":40}`),
		OK:          true,
		StatusCode:  200,
		Result:      json.RawMessage(`{"status":"completed"}`),
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(2 * time.Second),
	}
}

func TestJobRun_RecordAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	sessionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := newRun(sessionID, models.JobClipCutter, base)
	second := newRun(sessionID, models.JobAIScriptWriter, base.Add(time.Minute))
	second.VideoID = nil
	second.OK = false
	second.StatusCode = 0
	msg := "backend unreachable"
	second.ErrorMessage = &msg
	second.Result = json.RawMessage(`{"error":"backend unreachable"}`)

	require.NoError(t, s.RecordJobRun(ctx, first))
	require.NoError(t, s.RecordJobRun(ctx, second))
	require.NoError(t, s.RecordJobRun(ctx, newRun(uuid.New(), models.JobClipCutter, base)))

	runs, total, err := s.ListJobRuns(ctx, store.HistoryFilter{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Nil(t, runs[0].VideoID)
	assert.False(t, runs[0].OK)
	require.NotNil(t, runs[0].ErrorMessage)
	assert.Equal(t, "backend unreachable", *runs[0].ErrorMessage)
	assert.JSONEq(t, `{"error":"backend unreachable"}`, string(runs[0].Result))

	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, models.JobClipCutter, runs[1].JobType)
	require.NotNil(t, runs[1].VideoID)
	assert.Equal(t, "abc123", *runs[1].VideoID)
	assert.JSONEq(t, `{"target_duration_s":40}`, string(runs[1].Params))
	assert.True(t, runs[1].StartedAt.Equal(base))
}

func TestJobRun_ListFiltersAndPaginates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	sessionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordJobRun(ctx, newRun(sessionID, models.JobDopamineStory, base.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, s.RecordJobRun(ctx, newRun(sessionID, models.JobClipCutter, base)))

	runs, total, err := s.ListJobRuns(ctx, store.HistoryFilter{
		SessionID: sessionID,
		JobType:   models.JobDopamineStory,
		Page:      2,
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, models.JobDopamineStory, r.JobType)
	}
	assert.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Second)))
}

func TestJobRun_ListEmpty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	runs, total, err := s.ListJobRuns(context.Background(), store.HistoryFilter{SessionID: uuid.New()})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

// --- Ingestion Tests ---

func TestIngestion_RecordAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	sessionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	srcURL := "https://example.com/video.mp4"
	fromURL := &models.Ingestion{
		ID:        uuid.New(),
		SessionID: sessionID,
		Source:    models.IngestionSourceURL,
		VideoID:   "abc123",
		SourceURL: &srcURL,
		Extracted: &models.ExtractedInfo{Container: "mp4", Duration: 12, HasVideo: true},
		CreatedAt: base,
	}
	category := "gaming"
	fromUpload := &models.Ingestion{
		ID:        uuid.New(),
		SessionID: sessionID,
		Source:    models.IngestionSourceUpload,
		VideoID:   "up1",
		Category:  &category,
		CreatedAt: base.Add(time.Second),
	}
	require.NoError(t, s.RecordIngestion(ctx, fromURL))
	require.NoError(t, s.RecordIngestion(ctx, fromUpload))

	got, total, err := s.ListIngestions(ctx, store.HistoryFilter{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)

	assert.Equal(t, models.IngestionSourceUpload, got[0].Source)
	assert.Nil(t, got[0].Extracted)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "gaming", *got[0].Category)

	assert.Equal(t, models.IngestionSourceURL, got[1].Source)
	require.NotNil(t, got[1].Extracted)
	assert.Equal(t, 12.0, got[1].Extracted.Duration)
	require.NotNil(t, got[1].SourceURL)
	assert.Equal(t, srcURL, *got[1].SourceURL)
}

func TestIngestion_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	ing := &models.Ingestion{
		ID: uuid.New(), SessionID: uuid.New(), Source: models.IngestionSourceURL,
		VideoID: "v", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.RecordIngestion(ctx, ing))
	assert.ErrorIs(t, s.RecordIngestion(ctx, ing), store.ErrDuplicateKey)
}

// --- Ping Test ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
