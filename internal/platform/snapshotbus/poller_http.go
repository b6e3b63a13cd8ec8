package snapshotbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SettingsPath is the HTTP route serving the active snapshot.
const SettingsPath = "/output/settings"

// HTTPPoller reads snapshots by polling the settings endpoint.
// It is used where the engine host cannot reach Redis.
type HTTPPoller struct {
	client   *http.Client
	url      string
	interval time.Duration
}

// NewHTTPPoller creates a poller against baseURL. A non-positive interval
// falls back to one second.
func NewHTTPPoller(client *http.Client, baseURL string, interval time.Duration) *HTTPPoller {
	if interval <= 0 {
		interval = time.Second
	}
	return &HTTPPoller{
		client:   client,
		url:      strings.TrimRight(baseURL, "/") + SettingsPath,
		interval: interval,
	}
}

// settingsBody is the subset of the settings response the engine needs.
type settingsBody struct {
	Profile string `json:"profile"`
	Version uint64 `json:"version"`
	Config  struct {
		Transform  [3][3]float64 `json:"transform"`
		ScanFlags  uint32        `json:"scan_flags"`
		BlankFlags uint32        `json:"blank_flags"`
		Power      float64       `json:"power"`
		Offset     float64       `json:"offset"`
		Size       float64       `json:"size"`
		Delay      int           `json:"delay"`
		Safe       bool          `json:"safe"`
	} `json:"config"`
	UpdatedAt string `json:"updated_at"`
}

func (b settingsBody) message() Message {
	// 時刻が解釈できない場合はゼロ値のまま
	updated, _ := time.Parse(time.RFC3339, b.UpdatedAt)
	return Message{
		Profile:    b.Profile,
		Version:    b.Version,
		Transform:  b.Config.Transform,
		ScanFlags:  b.Config.ScanFlags,
		BlankFlags: b.Config.BlankFlags,
		Power:      b.Config.Power,
		Offset:     b.Config.Offset,
		Size:       b.Config.Size,
		Delay:      b.Config.Delay,
		Safe:       b.Config.Safe,
		UpdatedAt:  updated,
	}
}

// Latest fetches the current snapshot.
func (p *HTTPPoller) Latest(ctx context.Context) (Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Message{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("failed to fetch %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Message{}, fmt.Errorf("unexpected status from %s: %d", p.url, resp.StatusCode)
	}

	var body settingsBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Message{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return body.message(), nil
}

// Subscribe polls until ctx is cancelled and emits a message whenever the
// profile or version changes. The first fetch is synchronous so a bad URL
// fails fast.
func (p *HTTPPoller) Subscribe(ctx context.Context) (<-chan Message, error) {
	first, err := p.Latest(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Message, 1)
	out <- first

	go func() {
		defer close(out)

		last := first
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			m, err := p.Latest(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("snapshot poll failed", "url", p.url, "error", err)
				continue
			}
			if m.Profile == last.Profile && m.Version <= last.Version {
				continue
			}
			last = m
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
