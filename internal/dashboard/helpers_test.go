package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/pkg/models"
)

// --- fake backend ---

// fakeBackend is an httptest server that counts requests per path and lets
// each test plug in handlers.
type fakeBackend struct {
	srv      *httptest.Server
	calls    atomic.Int64
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	bodies   map[string][][]byte
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		handlers: map[string]http.HandlerFunc{},
		bodies:   map[string][][]byte{},
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.calls.Add(1)
		var body []byte
		if r.Header.Get("Content-Type") == "application/json" {
			body, _ = io.ReadAll(r.Body)
		}
		fb.mu.Lock()
		fb.bodies[r.URL.Path] = append(fb.bodies[r.URL.Path], body)
		h := fb.handlers[r.URL.Path]
		fb.mu.Unlock()
		if h == nil {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) handle(path string, h http.HandlerFunc) {
	fb.mu.Lock()
	fb.handlers[path] = h
	fb.mu.Unlock()
}

func (fb *fakeBackend) lastBody(path string) []byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	b := fb.bodies[path]
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

func (fb *fakeBackend) session(opts ...Option) *Session {
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return New(backend.NewHTTPClient(fb.srv.URL, 5*time.Second), opts...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- recorder ---

type memRecorder struct {
	mu         sync.Mutex
	runs       []*models.JobRun
	ingestions []*models.Ingestion
	err        error
}

func (m *memRecorder) RecordJobRun(_ context.Context, run *models.JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

func (m *memRecorder) RecordIngestion(_ context.Context, ing *models.Ingestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingestions = append(m.ingestions, ing)
	return m.err
}

// --- validation cache ---

type memValidationCache struct {
	mu      sync.Mutex
	entries map[string]*backend.ValidationResponse
	lookups int
}

func newMemValidationCache() *memValidationCache {
	return &memValidationCache{entries: map[string]*backend.ValidationResponse{}}
}

func (c *memValidationCache) LookupValidation(_ context.Context, url string) (*backend.ValidationResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	resp, ok := c.entries[url]
	return resp, ok, nil
}

func (c *memValidationCache) StoreValidation(_ context.Context, url string, resp *backend.ValidationResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = resp
	return nil
}

func mustJSON(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}
