package detect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
)

const maxBodySize = 5 << 20

// Wappalyzer detects technologies in-process by fingerprinting one HTTP
// response of the target.
type Wappalyzer struct {
	client *wappalyzer.Wappalyze
	http   *http.Client
	logger *slog.Logger
}

// NewWappalyzer loads the fingerprint database.
func NewWappalyzer(timeout time.Duration, logger *slog.Logger) (*Wappalyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := wappalyzer.New()
	if err != nil {
		return nil, fmt.Errorf("loading wappalyzer fingerprints: %w", err)
	}
	return &Wappalyzer{
		client: client,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Detect fetches target once and fingerprints headers and body.
func (w *Wappalyzer) Detect(ctx context.Context, target string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}

	set := make(techSet)
	for name := range w.client.Fingerprint(resp.Header, body) {
		// Names carry an optional ":version" suffix.
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		if set.add(name) {
			w.logger.Debug("technology detected", "name", Normalize(name), "status", resp.StatusCode)
		}
	}
	return set.sorted(), nil
}
