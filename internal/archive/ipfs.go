// Package archive mirrors raw capture files to an IPFS node for
// long-term retention. Archival is best effort: the analysis pipeline
// never depends on it succeeding.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/banshee-data/breath.report/internal/httputil"
	"github.com/banshee-data/breath.report/internal/monitoring"
	"github.com/banshee-data/breath.report/internal/timeutil"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 2 * time.Second
)

// Mirror uploads files to an IPFS node's HTTP API and pins them.
// A nil or unconfigured Mirror is safe to call and does nothing.
type Mirror struct {
	baseURL  string
	client   httputil.HTTPClient
	clock    timeutil.Clock
	attempts int
	backoff  time.Duration
}

// NewMirror creates a Mirror pointed at an IPFS API endpoint, e.g.
// "http://127.0.0.1:5001". An empty baseURL disables archival.
func NewMirror(baseURL string) *Mirror {
	return &Mirror{
		baseURL:  baseURL,
		client:   httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second}),
		clock:    timeutil.RealClock{},
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// NewMirrorWithClient creates a Mirror with an injected HTTP client and
// clock for testing.
func NewMirrorWithClient(baseURL string, client httputil.HTTPClient, clock timeutil.Clock) *Mirror {
	return &Mirror{
		baseURL:  baseURL,
		client:   client,
		clock:    clock,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// Enabled reports whether the mirror is configured with an endpoint.
func (m *Mirror) Enabled() bool {
	return m != nil && m.baseURL != ""
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Upload adds the named file content to the IPFS node and pins it,
// returning the content identifier. Transient failures are retried
// with doubling backoff.
func (m *Mirror) Upload(name string, data []byte) (string, error) {
	if !m.Enabled() {
		return "", fmt.Errorf("archive mirror not configured")
	}

	var lastErr error
	backoff := m.backoff
	for attempt := 1; attempt <= m.attempts; attempt++ {
		if attempt > 1 {
			m.clock.Sleep(backoff)
			backoff *= 2
		}

		cid, err := m.add(name, data)
		if err != nil {
			lastErr = err
			monitoring.Logf("archive: upload attempt %d/%d failed: %v", attempt, m.attempts, err)
			continue
		}

		// Pinning keeps the content from being garbage collected. A pin
		// failure still leaves the content addressable, so log and move on.
		if err := m.pin(cid); err != nil {
			monitoring.Logf("archive: failed to pin %s: %v", cid, err)
		}
		return cid, nil
	}
	return "", fmt.Errorf("archive upload failed after %d attempts: %w", m.attempts, lastErr)
}

func (m *Mirror) add(name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write upload payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	resp, err := m.client.Post(m.baseURL+"/api/v0/add", mw.FormDataContentType(), &body)
	if err != nil {
		return "", fmt.Errorf("add request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("add returned status %d: %s", resp.StatusCode, msg)
	}

	var parsed addResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse add response: %w", err)
	}
	if parsed.Hash == "" {
		return "", fmt.Errorf("add response missing content hash")
	}
	return parsed.Hash, nil
}

func (m *Mirror) pin(cid string) error {
	resp, err := m.client.Post(m.baseURL+"/api/v0/pin/add?arg="+cid, "application/json", nil)
	if err != nil {
		return fmt.Errorf("pin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pin returned status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
