// Package target turns command-line arguments into the list of URLs to scan.
package target

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// ErrNoTargets is returned when no valid target remains after loading.
var ErrNoTargets = errors.New("no valid targets")

// Load resolves args into target URLs. An argument naming an existing file
// is read one URL per line; anything else is taken as a URL. Blank lines
// and lines starting with # are ignored, scheme-less entries get http://,
// invalid entries are skipped with a warning and duplicates are dropped.
func Load(args []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		targets []string
		seen    = make(map[string]struct{})
	)
	add := func(raw, source string) {
		u, err := Normalize(raw)
		if err != nil {
			logger.Warn("skipping invalid target", "target", raw, "source", source, "error", err)
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		targets = append(targets, u)
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
			lines, err := readLines(arg)
			if err != nil {
				return nil, err
			}
			logger.Debug("read targets file", "path", arg, "lines", len(lines))
			for _, line := range lines {
				add(line, arg)
			}
			continue
		}
		add(arg, "argument")
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}

// Normalize prepends http:// when no scheme is present, checks that the
// result is an http(s) URL with a host and lowercases scheme and host.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty target")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening targets file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading targets file: %w", err)
	}
	return lines, nil
}
