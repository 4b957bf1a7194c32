// Package fuzz runs content discovery against a target.
package fuzz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maxvaer/intervention/internal/jsonutil"
	"github.com/maxvaer/intervention/internal/proc"
	"github.com/maxvaer/intervention/internal/wordlist"
	"github.com/spaolacci/murmur3"
)

// PathFuzzer discovers paths on a target using the given wordlists.
type PathFuzzer interface {
	Fuzz(ctx context.Context, target string, wordlists []string) ([]Result, error)
}

// ErrNoWordlists is returned when Fuzz is called without wordlists.
var ErrNoWordlists = errors.New("no wordlists to fuzz with")

// FFUF runs the ffuf binary.
type FFUF struct {
	Binary     string
	MatchCodes []int
	Threads    int
	TempDir    string // parent for per-run scratch dirs; "" uses os.TempDir
	Exec       proc.Executor
	Logger     *slog.Logger
}

// NewFFUF returns an ffuf-backed fuzzer.
func NewFFUF(binary string, matchCodes []int, threads int, exec proc.Executor, logger *slog.Logger) *FFUF {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFUF{
		Binary:     binary,
		MatchCodes: matchCodes,
		Threads:    threads,
		Exec:       exec,
		Logger:     logger,
	}
}

// FuzzURL returns the ffuf URL for target: its path with FUZZ appended,
// query and fragment dropped.
func FuzzURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing target: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/") + "/FUZZ", nil
}

// Args builds the ffuf command line.
func (f *FFUF) Args(fuzzURL, wordlistPath, outputPath string) []string {
	args := []string{
		"-u", fuzzURL,
		"-w", wordlistPath,
		"-o", outputPath,
		"-of", "json",
	}
	if len(f.MatchCodes) > 0 {
		codes := make([]string, len(f.MatchCodes))
		for i, c := range f.MatchCodes {
			codes[i] = strconv.Itoa(c)
		}
		args = append(args, "-mc", strings.Join(codes, ","))
	}
	if f.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(f.Threads))
	}
	return append(args, "-s", "-noninteractive")
}

// Fuzz runs ffuf once against target. Several wordlists are concatenated
// into one because ffuf binds a single wordlist to the FUZZ keyword.
func (f *FFUF) Fuzz(ctx context.Context, target string, wordlists []string) ([]Result, error) {
	if len(wordlists) == 0 {
		return nil, ErrNoWordlists
	}
	fuzzURL, err := FuzzURL(target)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(f.TempDir, "intervention-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	list := wordlists[0]
	var origins wordlist.Origins
	if len(wordlists) > 1 {
		list = filepath.Join(dir, "wordlist.txt")
		origins, err = wordlist.Merge(list, wordlists...)
		if err != nil {
			return nil, err
		}
		f.Logger.Debug("merged wordlists", "files", len(wordlists), "entries", len(origins))
	}

	output := filepath.Join(dir, fmt.Sprintf("ffuf_%08x.json", murmur3.Sum32([]byte(target))))
	if _, err := f.Exec.Run(ctx, f.Binary, f.Args(fuzzURL, list, output)...); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(output)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: ffuf wrote no output file", proc.ErrMalformedOutput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading ffuf output: %v", proc.ErrMalformedOutput, err)
	}
	results, err := ParseOutput(data)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if origins == nil {
			results[i].Wordlist = list
		} else {
			results[i].Wordlist = origins[results[i].Input]
		}
	}
	f.Logger.Debug("ffuf finished", "target", target, "results", len(results))
	return results, nil
}

type ffufOutput struct {
	Results []struct {
		Input            map[string]string `json:"input"`
		URL              string            `json:"url"`
		Status           int               `json:"status"`
		Length           int64             `json:"length"`
		Words            int               `json:"words"`
		Lines            int               `json:"lines"`
		ContentType      string            `json:"content-type"`
		RedirectLocation string            `json:"redirectlocation"`
		Duration         int64             `json:"duration"` // nanoseconds
	} `json:"results"`
}

// ParseOutput decodes an ffuf JSON output document.
func ParseOutput(data []byte) ([]Result, error) {
	var out ffufOutput
	if err := jsonutil.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding ffuf json: %v", proc.ErrMalformedOutput, err)
	}
	results := make([]Result, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, Result{
			Input:            r.Input["FUZZ"],
			URL:              r.URL,
			Status:           r.Status,
			Length:           r.Length,
			Words:            r.Words,
			Lines:            r.Lines,
			ContentType:      r.ContentType,
			RedirectLocation: r.RedirectLocation,
			DurationMs:       r.Duration / 1e6,
		})
	}
	return results, nil
}
