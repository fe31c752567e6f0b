package dashboard

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kiranshivaraju/clipforge/internal/backend"
)

// ValidateURL checks url against the backend without ingesting it. An empty
// url is a no-op. Otherwise the status moves to checking and then to ok or
// error; a transport failure becomes an error status whose reason is the
// failure text. The attached media is never touched, and the returned error
// is always nil: every outcome is carried by the returned status.
func (s *Session) ValidateURL(ctx context.Context, url string) (URLStatus, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return s.URLStatus(), nil
	}

	s.mu.Lock()
	s.setURLStatusLocked(URLChecking{})
	s.lastActive = s.now()
	s.mu.Unlock()

	resp, err := s.lookupValidation(ctx, url)
	if err == nil && resp == nil {
		resp, err = s.client.ValidateURL(ctx, url)
		if err == nil {
			s.storeValidation(ctx, url, resp)
		}
	}

	var next URLStatus
	switch {
	case err != nil:
		s.logger.Warn("url validation failed", "error", err)
		next = urlErrorFrom(transportDetails(err))
	case resp.OK:
		next = URLOk{Details: resp.Details}
	default:
		next = urlErrorFrom(resp.Details)
	}

	// Last writer wins when checks overlap.
	s.mu.Lock()
	s.setURLStatusLocked(next)
	s.mu.Unlock()

	return next, nil
}

func (s *Session) lookupValidation(ctx context.Context, url string) (*backend.ValidationResponse, error) {
	if s.validations == nil {
		return nil, nil
	}
	resp, ok, err := s.validations.LookupValidation(ctx, url)
	if err != nil {
		s.logger.Warn("validation cache lookup failed", "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return resp, nil
}

func (s *Session) storeValidation(ctx context.Context, url string, resp *backend.ValidationResponse) {
	if s.validations == nil {
		return
	}
	if err := s.validations.StoreValidation(context.WithoutCancel(ctx), url, resp); err != nil {
		s.logger.Warn("validation cache store failed", "error", err)
	}
}

// transportDetails synthesizes {"reason": "<failure>"} for a request that never completed.
func transportDetails(err error) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"reason": err.Error()})
	return b
}
