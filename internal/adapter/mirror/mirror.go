// Package mirror replicates stored analysis state to a remote endpoint.
//
// The push runs after each successful insert and is best effort: a failed
// push is logged, retried with exponential backoff, and then dropped. It
// never fails the pipeline.
package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// HTTPMirror posts a snapshot of recent records to a configured URL.
type HTTPMirror struct {
	url      string
	token    string
	client   *http.Client
	repo     domain.AnalysisRepository
	snapshot int
}

// New constructs an HTTPMirror. A nil *HTTPMirror is a valid no-op mirror.
func New(url, token string, repo domain.AnalysisRepository) *HTTPMirror {
	if url == "" {
		return nil
	}
	return &HTTPMirror{
		url:      url,
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
		repo:     repo,
		snapshot: 100,
	}
}

type snapshotPayload struct {
	PushedAt time.Time             `json:"pushed_at"`
	Batch    []domain.ResumeRecord `json:"batch"`
	Quick    []domain.ResumeRecord `json:"quick"`
}

// Push uploads the latest records from both collections. Safe on nil.
func (m *HTTPMirror) Push(ctx domain.Context) error {
	if m == nil {
		return nil
	}
	batch, err := m.repo.ListRecent(ctx, domain.CollectionBatch, m.snapshot)
	if err != nil {
		return fmt.Errorf("op=mirror.Push: list batch: %w", err)
	}
	quick, err := m.repo.ListRecent(ctx, domain.CollectionQuick, m.snapshot)
	if err != nil {
		return fmt.Errorf("op=mirror.Push: list quick: %w", err)
	}
	body, err := json.Marshal(snapshotPayload{PushedAt: time.Now().UTC(), Batch: batch, Quick: quick})
	if err != nil {
		return fmt.Errorf("op=mirror.Push: marshal: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if m.token != "" {
			req.Header.Set("Authorization", "Bearer "+m.token)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("client status %d", resp.StatusCode))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		observability.LoggerFromContext(ctx).Warn("mirror push failed",
			slog.String("url", m.url), slog.Any("error", err))
		return fmt.Errorf("op=mirror.Push: %w", err)
	}
	return nil
}
