package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxvaer/intervention/internal/config"
	"github.com/maxvaer/intervention/internal/dictmap"
	"github.com/maxvaer/intervention/internal/fuzz"
	"github.com/maxvaer/intervention/internal/metrics"
	"github.com/maxvaer/intervention/internal/output"
	"github.com/maxvaer/intervention/internal/proc"
	"github.com/maxvaer/intervention/internal/resume"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	techs map[string][]string
	err   error
	calls []string
}

func (d *fakeDetector) Detect(_ context.Context, target string) ([]string, error) {
	d.calls = append(d.calls, target)
	if d.err != nil {
		return nil, d.err
	}
	return d.techs[target], nil
}

type fakeFuzzer struct {
	results   map[string][]fuzz.Result
	errs      map[string]error
	wordlists map[string][]string
}

func (f *fakeFuzzer) Fuzz(_ context.Context, target string, wordlists []string) ([]fuzz.Result, error) {
	if f.wordlists == nil {
		f.wordlists = make(map[string][]string)
	}
	f.wordlists[target] = wordlists
	if err := f.errs[target]; err != nil {
		return nil, err
	}
	return f.results[target], nil
}

// results builds one result per length, in order.
func results(target string, lengths ...int64) []fuzz.Result {
	out := make([]fuzz.Result, len(lengths))
	for i, l := range lengths {
		out[i] = fuzz.Result{Input: "w" + string(rune('a'+i)), URL: target + "/w", Status: 200, Length: l}
	}
	return out
}

type fixture struct {
	runner  *Runner
	console *bytes.Buffer
	dict    string
	outDir  string
}

func newFixture(t *testing.T, det *fakeDetector, fz *fakeFuzzer, lists ...string) *fixture {
	t.Helper()
	dict := t.TempDir()
	for _, name := range lists {
		require.NoError(t, os.WriteFile(filepath.Join(dict, name), []byte("admin\nlogin\n"), 0644))
	}
	mapper, err := dictmap.New(dict, config.ModeLong, nil, "")
	require.NoError(t, err)

	opts := config.Default()
	opts.DictPath = dict
	opts.Occurrence = 2
	opts.OutputDir = t.TempDir()

	var buf bytes.Buffer
	return &fixture{
		runner: &Runner{
			Detector: det,
			Fuzzer:   fz,
			Mapper:   mapper,
			Console:  output.NewConsole(&buf, true),
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			Options:  &opts,
		},
		console: &buf,
		dict:    dict,
		outDir:  opts.OutputDir,
	}
}

func (f *fixture) reportPath(target string) string {
	return filepath.Join(f.outDir, output.FileName(target))
}

func TestProcessWritesReport(t *testing.T) {
	const target = "https://blog.example"
	det := &fakeDetector{techs: map[string][]string{target: {"wordpress", "unknown-widget"}}}
	fz := &fakeFuzzer{results: map[string][]fuzz.Result{target: results(target, 100, 100, 100, 200, 300, 300)}}
	f := newFixture(t, det, fz, "general_long.txt", "wordpress_long.txt")

	stats := f.runner.Process(context.Background(), []string{target})

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 6, stats.TotalResults)
	assert.Equal(t, 3, stats.Interesting)
	assert.Equal(t, []string{filepath.Join(f.dict, "wordpress_long.txt")}, fz.wordlists[target])

	report, err := output.LoadReport(f.reportPath(target))
	require.NoError(t, err)
	assert.Equal(t, target, report.URL)
	assert.Equal(t, []string{"wordpress", "unknown-widget"}, report.Technologies)
	assert.Equal(t, 6, report.TotalResults)
	require.Len(t, report.Results, 3)
	assert.Equal(t, int64(200), report.Results[0].Length)
	assert.Equal(t, 1, report.Results[0].OccurrenceCount)
	assert.Equal(t, int64(300), report.Results[1].Length)
	assert.Equal(t, 2, report.Results[2].OccurrenceCount)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	assert.Contains(t, f.console.String(), "3 interesting result(s) out of 6")
}

func TestProcessIsolatesFuzzerFailure(t *testing.T) {
	const a, b = "https://a.example", "https://b.example"
	det := &fakeDetector{}
	fz := &fakeFuzzer{
		results: map[string][]fuzz.Result{b: results(b, 10, 20)},
		errs:    map[string]error{a: &proc.ToolError{Tool: "ffuf", ExitCode: 1, Stderr: "connection refused"}},
	}
	f := newFixture(t, det, fz, "general_long.txt")

	stats := f.runner.Process(context.Background(), []string{a, b})

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{a}, stats.FailedTargets)

	_, err := os.Stat(f.reportPath(a))
	assert.True(t, os.IsNotExist(err), "no report for the failed target")
	_, err = os.Stat(f.reportPath(b))
	assert.NoError(t, err)
	assert.Contains(t, f.console.String(), "Error scanning https://a.example")
}

func TestProcessDetectionFailureUsesDefault(t *testing.T) {
	const target = "https://x.example"
	det := &fakeDetector{err: &proc.ToolError{Tool: "nuclei", ExitCode: 2}}
	fz := &fakeFuzzer{results: map[string][]fuzz.Result{target: results(target, 5)}}
	f := newFixture(t, det, fz, "general_long.txt")

	stats := f.runner.Process(context.Background(), []string{target})

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.DetectFailed)
	assert.Equal(t, []string{filepath.Join(f.dict, "general_long.txt")}, fz.wordlists[target])

	report, err := output.LoadReport(f.reportPath(target))
	require.NoError(t, err)
	assert.Empty(t, report.Technologies)
	assert.Equal(t, []string{filepath.Join(f.dict, "general_long.txt")}, report.Wordlists)
}

func TestProcessMissingWordlists(t *testing.T) {
	const target = "https://x.example"
	det := &fakeDetector{techs: map[string][]string{target: {"laravel"}}}
	fz := &fakeFuzzer{}

	t.Run("falls back to default", func(t *testing.T) {
		f := newFixture(t, det, fz, "general_long.txt")
		stats := f.runner.Process(context.Background(), []string{target})
		assert.Equal(t, 1, stats.Processed)
		assert.Equal(t, []string{filepath.Join(f.dict, "general_long.txt")}, fz.wordlists[target])
	})

	t.Run("keeps the files that exist", func(t *testing.T) {
		f := newFixture(t, det, fz, "general_long.txt", "php_long.txt")
		f.runner.Process(context.Background(), []string{target})
		assert.Equal(t, []string{filepath.Join(f.dict, "php_long.txt")}, fz.wordlists[target])
	})

	t.Run("fails without default", func(t *testing.T) {
		f := newFixture(t, det, fz)
		stats := f.runner.Process(context.Background(), []string{target})
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 0, stats.Processed)
	})
}

func TestProcessReportWriteError(t *testing.T) {
	const target = "https://x.example"
	fz := &fakeFuzzer{results: map[string][]fuzz.Result{target: results(target, 1)}}
	f := newFixture(t, &fakeDetector{}, fz, "general_long.txt")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	f.runner.Options.OutputDir = filepath.Join(blocker, "sub")

	stats := f.runner.Process(context.Background(), []string{target})
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.ReportErrors)
	assert.Equal(t, 0, stats.Failed)
}

func TestProcessResumeSkipsCompleted(t *testing.T) {
	const a, b = "https://a.example", "https://b.example"
	det := &fakeDetector{}
	fz := &fakeFuzzer{}
	f := newFixture(t, det, fz, "general_long.txt")

	statePath := filepath.Join(t.TempDir(), "resume.json")
	state := resume.New(statePath)
	state.MarkCompleted(a)
	require.NoError(t, state.Save())
	f.runner.State = state

	stats := f.runner.Process(context.Background(), []string{a, b})

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, []string{b}, det.calls)
	_, err := os.Stat(statePath)
	assert.True(t, os.IsNotExist(err), "state removed after a complete run")
}

func TestProcessCancelled(t *testing.T) {
	det := &fakeDetector{}
	f := newFixture(t, det, &fakeFuzzer{}, "general_long.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := f.runner.Process(ctx, []string{"https://a.example", "https://b.example"})

	assert.Equal(t, 2, stats.Targets)
	assert.Equal(t, 0, stats.Processed)
	assert.Empty(t, det.calls)
}

func TestProcessRecordsMetrics(t *testing.T) {
	const a, b = "https://a.example", "https://b.example"
	det := &fakeDetector{techs: map[string][]string{b: {"php"}}}
	fz := &fakeFuzzer{
		results: map[string][]fuzz.Result{b: results(b, 1, 1, 2)},
		errs:    map[string]error{a: errors.New("boom")},
	}
	f := newFixture(t, det, fz, "general_long.txt", "php_long.txt")
	rec := metrics.New()
	f.runner.Metrics = rec

	f.runner.Process(context.Background(), []string{a, b})

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `intervention_targets_total{outcome="failed"} 1`)
	assert.Contains(t, string(data), `intervention_targets_total{outcome="reported"} 1`)
	assert.Contains(t, string(data), "intervention_fuzz_results_total 3")
	assert.Contains(t, string(data), "intervention_technologies_detected_total 1")

	n, err := testutil.GatherAndCount(rec.Gatherer(), "intervention_tool_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "nuclei ok, ffuf ok, ffuf error")
}

func TestIsToolError(t *testing.T) {
	assert.True(t, isToolError(&proc.ToolError{Tool: "ffuf"}))
	assert.True(t, isToolError(errors.Join(errors.New("ctx"), proc.ErrMalformedOutput)))
	assert.False(t, isToolError(os.ErrNotExist))
}

func TestProcessUsesWordlistsOnDisk(t *testing.T) {
	const target = "https://cms.example"
	det := &fakeDetector{techs: map[string][]string{target: {"strapi", "wordpress"}}}
	fz := &fakeFuzzer{}
	f := newFixture(t, det, fz, "general_long.txt", "strapi_long.txt", "wordpress_short.txt")

	stats := f.runner.Process(context.Background(), []string{target})

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, []string{
		filepath.Join(f.dict, "strapi_long.txt"),
		filepath.Join(f.dict, "wordpress_short.txt"),
	}, fz.wordlists[target])
}

func TestProcessAttributesFindingsToTechnologies(t *testing.T) {
	const target = "https://shop.example"
	det := &fakeDetector{techs: map[string][]string{target: {"laravel", "nginx"}}}
	fz := &fakeFuzzer{}
	f := newFixture(t, det, fz, "general_long.txt", "laravel_long.txt", "php_long.txt", "nginx_long.txt")

	fz.results = map[string][]fuzz.Result{target: {
		{Input: "telescope", URL: target + "/telescope", Status: 200, Length: 10, Wordlist: filepath.Join(f.dict, "laravel_long.txt")},
		{Input: "phpinfo.php", URL: target + "/phpinfo.php", Status: 200, Length: 20, Wordlist: filepath.Join(f.dict, "php_long.txt")},
		{Input: "nginx_status", URL: target + "/nginx_status", Status: 403, Length: 30, Wordlist: filepath.Join(f.dict, "nginx_long.txt")},
	}}

	f.runner.Process(context.Background(), []string{target})

	report, err := output.LoadReport(f.reportPath(target))
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "laravel", report.Results[0].Tech)
	assert.Equal(t, "laravel", report.Results[1].Tech, "php list was selected by laravel")
	assert.Equal(t, "nginx", report.Results[2].Tech)
	assert.Equal(t, map[string]int{"laravel": 2, "nginx": 1}, report.ResultsByTech)
}

func TestProcessDefaultWordlistOverride(t *testing.T) {
	const target = "https://x.example"
	fz := &fakeFuzzer{}
	f := newFixture(t, &fakeDetector{}, fz)

	custom := filepath.Join(t.TempDir(), "common.txt")
	require.NoError(t, os.WriteFile(custom, []byte("admin\n"), 0644))
	mapper, err := dictmap.New(f.dict, config.ModeLong, nil, custom)
	require.NoError(t, err)
	f.runner.Mapper = mapper

	stats := f.runner.Process(context.Background(), []string{target})
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, []string{custom}, fz.wordlists[target])
}

func TestProcessMalformedOutputIsNotResumed(t *testing.T) {
	const a, b = "https://a.example", "https://b.example"
	fz := &fakeFuzzer{errs: map[string]error{
		a: fmt.Errorf("%w: ffuf wrote no output file", proc.ErrMalformedOutput),
	}}
	f := newFixture(t, &fakeDetector{}, fz, "general_long.txt")

	statePath := filepath.Join(t.TempDir(), "resume.json")
	f.runner.State = resume.New(statePath)

	stats := f.runner.Process(context.Background(), []string{a, b})
	assert.Equal(t, 1, stats.Failed)

	_, err := os.Stat(f.reportPath(a))
	assert.True(t, os.IsNotExist(err), "no report for the failed target")

	state, err := resume.Load(statePath)
	require.NoError(t, err)
	assert.False(t, state.IsCompleted(a), "failed target is retried on resume")
	assert.True(t, state.IsCompleted(b))
}
