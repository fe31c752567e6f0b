package backend

import (
	"fmt"

	"github.com/kiranshivaraju/clipforge/internal/config"
)

// NewClient constructs the backend client selected by config.
// Called once at startup.
func NewClient(cfg config.BackendConfig) (Client, error) {
	switch cfg.Mode {
	case config.BackendModeHTTP:
		return NewHTTPClient(cfg.BaseURL, cfg.Timeout), nil
	case config.BackendModeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown backend mode %q: must be one of http, mock", cfg.Mode)
	}
}
