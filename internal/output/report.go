package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maxvaer/intervention/internal/filter"
	"github.com/maxvaer/intervention/internal/jsonutil"
)

// FilePrefix starts every report file name.
const FilePrefix = "intervention_results_"

// ScanReport is the persisted result of one target's run.
type ScanReport struct {
	ScanID              string           `json:"scan_id"`
	URL                 string           `json:"url"`
	Mode                string           `json:"mode"`
	OccurrenceThreshold int              `json:"occurrence_threshold"`
	Technologies        []string         `json:"technologies_detected"`
	Wordlists           []string         `json:"wordlists"`
	TotalResults        int              `json:"total_results"`
	Results             []filter.Finding `json:"results"`
	ResultsByTech       map[string]int   `json:"results_by_tech"`
	StartedAt           time.Time        `json:"started_at"`
	FinishedAt          time.Time        `json:"finished_at"`
}

// NewReport starts a report for url with a fresh scan ID.
func NewReport(url, mode string, threshold int) *ScanReport {
	return &ScanReport{
		ScanID:              uuid.NewString(),
		URL:                 url,
		Mode:                mode,
		OccurrenceThreshold: threshold,
		Technologies:        []string{},
		Wordlists:           []string{},
		Results:             []filter.Finding{},
		ResultsByTech:       map[string]int{},
		StartedAt:           time.Now().UTC(),
	}
}

// SetResults stores findings and counts them per technology.
func (r *ScanReport) SetResults(findings []filter.Finding) {
	r.Results = []filter.Finding{}
	if findings != nil {
		r.Results = findings
	}
	r.ResultsByTech = make(map[string]int)
	for _, f := range findings {
		if f.Tech != "" {
			r.ResultsByTech[f.Tech]++
		}
	}
}

// FileName derives the report file name from a target URL.
func FileName(url string) string {
	safe := strings.NewReplacer("://", "_", "/", "_", ":", "_").Replace(url)
	var b strings.Builder
	b.Grow(len(safe))
	for i := 0; i < len(safe); i++ {
		c := safe[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return FilePrefix + b.String() + ".json"
}

// WriteReport writes r as indented JSON into dir, replacing any earlier
// report for the same URL, and returns the file path.
func WriteReport(dir string, r *ScanReport) (string, error) {
	data, err := jsonutil.MarshalIndent(r, "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(r.URL))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// LoadReport reads a report written by WriteReport.
func LoadReport(path string) (*ScanReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r ScanReport
	if err := jsonutil.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}
