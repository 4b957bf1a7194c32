package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/maxvaer/intervention/internal/config"
	"github.com/maxvaer/intervention/internal/detect"
	"github.com/maxvaer/intervention/internal/dictmap"
	"github.com/maxvaer/intervention/internal/filter"
	"github.com/maxvaer/intervention/internal/fuzz"
	"github.com/maxvaer/intervention/internal/logging"
	"github.com/maxvaer/intervention/internal/metrics"
	"github.com/maxvaer/intervention/internal/output"
	"github.com/maxvaer/intervention/internal/proc"
	"github.com/maxvaer/intervention/internal/resume"
	"github.com/maxvaer/intervention/internal/target"
	"github.com/maxvaer/intervention/internal/wordlist"
	"github.com/maxvaer/intervention/pkg/version"
)

// Run executes the full pipeline for every target named in opts. Errors
// for a single target are reported and do not stop the run; only setup
// failures are returned.
func Run(ctx context.Context, opts *config.Options) error {
	logger := logging.New(os.Stderr, opts.Verbose)
	slog.SetDefault(logger)

	targets, err := target.Load(opts.Targets, logger)
	if err != nil {
		return err
	}

	mapper, err := dictmap.New(opts.DictPath, opts.Mode, opts.Wordlists, opts.DefaultWordlist)
	if err != nil {
		return err
	}
	logger.Debug("dictionary mapping loaded", "technologies", len(mapper.Technologies()), "default", mapper.Default())

	det, err := newDetector(opts, logger)
	if err != nil {
		return err
	}

	fuzzer := fuzz.NewFFUF(opts.FFUFBinary, opts.MatchCodes, opts.Threads,
		&proc.Exec{Timeout: opts.FuzzTimeout, Logger: logger}, logger)

	var state *resume.State
	if opts.ResumeFile != "" {
		state, err = resume.Load(opts.ResumeFile)
		if err != nil {
			return err
		}
	}

	var rec *metrics.Recorder
	if opts.MetricsFile != "" {
		rec = metrics.New()
	}

	console := output.NewConsole(os.Stdout, opts.NoColor)
	console.PrintBanner(output.BannerInfo{
		Version:    version.Version,
		Mode:       opts.Mode,
		Occurrence: opts.Occurrence,
		Detector:   opts.Detector,
		Dict:       opts.DictPath,
		Targets:    len(targets),
	})

	r := &Runner{
		Detector: det,
		Fuzzer:   fuzzer,
		Mapper:   mapper,
		Console:  console,
		Metrics:  rec,
		State:    state,
		Logger:   logger,
		Options:  opts,
	}
	stats := r.Process(ctx, targets)
	console.PrintTally(stats)

	if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
		logger.Error("writing metrics file", "path", opts.MetricsFile, "error", err)
	}
	if ctx.Err() != nil && state != nil {
		console.Warnf("Interrupted; progress saved to %s, rerun with --resume-file to continue", opts.ResumeFile)
	}
	return nil
}

func newDetector(opts *config.Options, logger *slog.Logger) (detect.TechDetector, error) {
	switch opts.Detector {
	case config.DetectorWappalyzer:
		return detect.NewWappalyzer(opts.DetectTimeout, logger)
	default:
		exec := &proc.Exec{Timeout: opts.DetectTimeout, Logger: logger}
		return detect.NewNuclei(opts.NucleiBinary, opts.TemplatesPath, exec, logger), nil
	}
}

// Runner drives the per-target pipeline: detect, map, fuzz, filter, report.
type Runner struct {
	Detector detect.TechDetector
	Fuzzer   fuzz.PathFuzzer
	Mapper   *dictmap.Mapper
	Console  *output.Console
	Metrics  *metrics.Recorder // optional
	State    *resume.State     // optional
	Logger   *slog.Logger
	Options  *config.Options
}

// Process runs every target in order and returns the aggregate stats.
// It stops early only when ctx is cancelled.
func (r *Runner) Process(ctx context.Context, targets []string) output.Stats {
	if r.Logger == nil {
		r.Logger = slog.Default()
	}

	start := time.Now()
	stats := output.Stats{Targets: len(targets)}

	for idx, t := range targets {
		if ctx.Err() != nil {
			r.Logger.Warn("run interrupted", "remaining", len(targets)-idx)
			break
		}

		r.Console.PrintTarget(idx+1, len(targets), t)

		if r.State != nil && r.State.IsCompleted(t) {
			r.Console.Infof("Already completed in an earlier run, skipping")
			stats.Skipped++
			r.Metrics.Target(metrics.OutcomeSkipped)
			continue
		}

		report, err := r.processTarget(ctx, t, &stats)
		if err != nil {
			if ctx.Err() != nil {
				r.Console.Warnf("Interrupted while scanning %s", t)
				break
			}
			r.Logger.Debug("target failed", "target", t, "tool_error", isToolError(err), "error", err)
			r.Console.Errorf("Error scanning %s: %v", t, err)
			stats.Failed++
			stats.FailedTargets = append(stats.FailedTargets, t)
			r.Metrics.Target(metrics.OutcomeFailed)
			continue
		}

		stats.Processed++
		stats.TotalResults += report.TotalResults
		stats.Interesting += len(report.Results)
		r.Metrics.Target(metrics.OutcomeReported)
		r.Metrics.Results(report.TotalResults, len(report.Results))
	}

	if r.State != nil && ctx.Err() == nil && stats.Failed == 0 && stats.ReportErrors == 0 {
		if err := r.State.Remove(); err != nil {
			r.Logger.Warn("removing resume file", "error", err)
		}
	}

	stats.Duration = time.Since(start)
	return stats
}

func (r *Runner) processTarget(ctx context.Context, t string, stats *output.Stats) (*output.ScanReport, error) {
	opts := r.Options
	report := output.NewReport(t, opts.Mode, opts.Occurrence)

	// 1. Detect technologies.
	techs := r.detect(ctx, t, stats)
	if len(techs) > 0 {
		report.Technologies = techs
		r.Console.Infof("Detected %d technologies: %s", len(techs), strings.Join(techs, ", "))
	} else {
		r.Console.Warnf("No technologies detected")
	}
	r.Metrics.Technologies(len(techs))

	// 2. Map to wordlists.
	lists, err := r.wordlists(techs)
	if err != nil {
		return nil, err
	}
	report.Wordlists = lists
	r.Console.Infof("Using %d wordlist(s): %s", len(lists), strings.Join(lists, ", "))

	// 3. Fuzz.
	fuzzStart := time.Now()
	results, err := r.Fuzzer.Fuzz(ctx, t, lists)
	r.Metrics.ToolRun("ffuf", time.Since(fuzzStart).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("fuzzing: %w", err)
	}
	r.Logger.Debug("fuzzing done", "target", t, "results", len(results))

	// 4. Keep rare response lengths.
	findings := filter.Occurrence(results, opts.Occurrence)
	techOf := r.wordlistTechs(techs)
	for i := range findings {
		findings[i].Tech = techOf[findings[i].Wordlist]
	}
	report.TotalResults = len(results)
	report.SetResults(findings)
	r.Logger.Debug("occurrence filter applied", "target", t,
		"buckets", len(filter.Buckets(results)), "kept", len(findings), "threshold", opts.Occurrence)
	report.FinishedAt = time.Now().UTC()

	// 5. Persist and summarize.
	path, err := output.WriteReport(opts.OutputDir, report)
	if err != nil {
		r.Logger.Error("writing report", "target", t, "error", err)
		r.Console.Errorf("Could not save report for %s: %v", t, err)
		stats.ReportErrors++
	} else {
		r.Console.Infof("Report saved to %s", path)
		r.markCompleted(t)
	}
	r.Console.PrintReport(report)
	return report, nil
}

// detect never fails the target: errors are logged and yield no technologies.
func (r *Runner) detect(ctx context.Context, t string, stats *output.Stats) []string {
	start := time.Now()
	techs, err := r.Detector.Detect(ctx, t)
	r.Metrics.ToolRun(r.Options.Detector, time.Since(start).Seconds(), err)
	if err != nil {
		stats.DetectFailed++
		r.Logger.Warn("technology detection failed", "target", t, "error", err)
		r.Console.Warnf("Technology detection failed: %v", err)
		return nil
	}
	return techs
}

// wordlists maps techs to existing wordlist files, falling back to the
// default wordlist when none of the mapped files exist.
func (r *Runner) wordlists(techs []string) ([]string, error) {
	for _, tech := range techs {
		if !r.Mapper.Known(tech) {
			r.Logger.Debug("no wordlist for technology", "technology", tech)
		}
	}
	mapped := r.Mapper.Map(techs)
	found, missing := wordlist.Existing(mapped)
	for _, m := range missing {
		r.Logger.Warn("wordlist not found", "path", m)
	}
	if len(found) > 0 {
		return found, nil
	}

	def := r.Mapper.Default()
	if found, _ := wordlist.Existing([]string{def}); len(found) == 0 {
		return nil, fmt.Errorf("default wordlist %s: %w", def, os.ErrNotExist)
	}
	return []string{def}, nil
}

// wordlistTechs maps each wordlist path to the first technology that
// selected it.
func (r *Runner) wordlistTechs(techs []string) map[string]string {
	techOf := make(map[string]string)
	for _, tech := range techs {
		for _, p := range r.Mapper.Paths(tech) {
			if _, ok := techOf[p]; !ok {
				techOf[p] = tech
			}
		}
	}
	return techOf
}

func (r *Runner) markCompleted(t string) {
	if r.State == nil {
		return
	}
	r.State.MarkCompleted(t)
	if err := r.State.Save(); err != nil {
		r.Logger.Warn("saving resume file", "error", err)
	}
}

// isToolError reports whether err came from an external tool run.
func isToolError(err error) bool {
	var te *proc.ToolError
	return errors.As(err, &te) || errors.Is(err, proc.ErrMalformedOutput)
}
