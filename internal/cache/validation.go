package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kiranshivaraju/clipforge/internal/backend"
)

// ValidationCache stores backend URL verdicts for a fixed TTL. Only answers
// the backend actually gave are stored; transport failures never reach it.
type ValidationCache struct {
	cache Cache
	ttl   time.Duration
}

// NewValidationCache wraps c. A non-positive ttl disables storing.
func NewValidationCache(c Cache, ttl time.Duration) *ValidationCache {
	return &ValidationCache{cache: c, ttl: ttl}
}

type validationEntry struct {
	OK      bool            `json:"ok"`
	Details json.RawMessage `json:"details"`
}

func (v *ValidationCache) LookupValidation(ctx context.Context, url string) (*backend.ValidationResponse, bool, error) {
	raw, found, err := v.cache.Get(ctx, ValidationKey(url))
	if err != nil || !found {
		return nil, false, err
	}
	var entry validationEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Unreadable entries are treated as misses and overwritten on store.
		return nil, false, nil
	}
	return &backend.ValidationResponse{OK: entry.OK, Details: entry.Details}, true, nil
}

func (v *ValidationCache) StoreValidation(ctx context.Context, url string, resp *backend.ValidationResponse) error {
	if v.ttl <= 0 || resp == nil {
		return nil
	}
	raw, err := json.Marshal(validationEntry{OK: resp.OK, Details: resp.Details})
	if err != nil {
		return fmt.Errorf("encoding validation entry: %w", err)
	}
	return v.cache.Set(ctx, ValidationKey(url), raw, v.ttl)
}
