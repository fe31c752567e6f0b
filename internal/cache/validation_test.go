package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/clipforge/internal/backend"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) Ping(context.Context) error { return m.err }

func (m *memCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("not implemented")
}

func TestValidationCache_StoreAndLookup(t *testing.T) {
	mc := newMemCache()
	vc := NewValidationCache(mc, 5*time.Minute)
	ctx := context.Background()

	resp := &backend.ValidationResponse{OK: false, Details: json.RawMessage(`{"ok":false,"reason":"private video"}`)}
	require.NoError(t, vc.StoreValidation(ctx, "https://example.com/p", resp))
	assert.Equal(t, 5*time.Minute, mc.ttls[ValidationKey("https://example.com/p")])

	got, found, err := vc.LookupValidation(ctx, "https://example.com/p")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.OK)
	assert.JSONEq(t, string(resp.Details), string(got.Details))
}

func TestValidationCache_ZeroTTLDisablesStore(t *testing.T) {
	mc := newMemCache()
	vc := NewValidationCache(mc, 0)

	require.NoError(t, vc.StoreValidation(context.Background(), "https://example.com/p",
		&backend.ValidationResponse{OK: true}))
	assert.Empty(t, mc.data)
}

func TestValidationCache_CorruptEntryIsMiss(t *testing.T) {
	mc := newMemCache()
	mc.data[ValidationKey("https://example.com/p")] = []byte("not json")
	vc := NewValidationCache(mc, time.Minute)

	_, found, err := vc.LookupValidation(context.Background(), "https://example.com/p")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestValidationCache_PropagatesErrors(t *testing.T) {
	mc := newMemCache()
	mc.err = errors.New("connection refused")
	vc := NewValidationCache(mc, time.Minute)

	_, _, err := vc.LookupValidation(context.Background(), "https://example.com/p")
	assert.Error(t, err)
	assert.Error(t, vc.StoreValidation(context.Background(), "https://example.com/p", &backend.ValidationResponse{OK: true}))
}
