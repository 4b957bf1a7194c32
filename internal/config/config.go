package config

import (
	"fmt"
	"os"
	"time"
)

// Wordlist modes.
const (
	ModeShort = "short"
	ModeLong  = "long"
)

// Detector backends.
const (
	DetectorNuclei     = "nuclei"
	DetectorWappalyzer = "wappalyzer"
)

// DefaultMatchCodes are the status codes ffuf is asked to report.
var DefaultMatchCodes = []int{200, 201, 202, 204, 301, 302, 307, 401, 403}

// Options holds all configuration for an intervention run.
type Options struct {
	// Targets
	Targets []string // positional URLs or files with one URL per line

	// Dictionaries
	DictPath        string
	Mode            string              // "short" or "long"
	Wordlists       map[string][]string // extra technology -> wordlist stems
	DefaultWordlist string              // overrides <dict>/general_<mode>.txt

	// Detection
	Detector      string
	TemplatesPath string
	NucleiBinary  string
	DetectTimeout time.Duration

	// Fuzzing
	FFUFBinary  string
	MatchCodes  []int
	Threads     int
	FuzzTimeout time.Duration

	// Analysis
	Occurrence int

	// Output
	OutputDir   string
	Verbose     bool
	NoColor     bool
	ResumeFile  string
	MetricsFile string
}

// Default returns options populated with the built-in defaults.
func Default() Options {
	return Options{
		DictPath:      "OneListForAll/dict",
		Mode:          ModeLong,
		Detector:      DetectorNuclei,
		TemplatesPath: "nuclei-templates",
		NucleiBinary:  "nuclei",
		FFUFBinary:    "ffuf",
		MatchCodes:    append([]int(nil), DefaultMatchCodes...),
		Threads:       50,
		Occurrence:    10,
		OutputDir:     ".",
	}
}

// Validate checks the options before any external process runs.
func (o *Options) Validate() error {
	if len(o.Targets) == 0 {
		return fmt.Errorf("%w: at least one URL or URL file", ErrMissingRequired)
	}
	if o.Mode != ModeShort && o.Mode != ModeLong {
		return fmt.Errorf("%w: --mode must be one of: short, long (got %q)", ErrInvalidConfig, o.Mode)
	}
	if o.Occurrence < 0 {
		return fmt.Errorf("%w: --occurrence must be >= 0 (got %d)", ErrInvalidConfig, o.Occurrence)
	}
	if o.Threads < 1 {
		return fmt.Errorf("%w: --threads must be >= 1 (got %d)", ErrInvalidConfig, o.Threads)
	}
	if o.DetectTimeout < 0 || o.FuzzTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	switch o.Detector {
	case DetectorNuclei:
		if err := requireDir(o.TemplatesPath, "--nuclei-templates"); err != nil {
			return err
		}
	case DetectorWappalyzer:
	default:
		return fmt.Errorf("%w: --detector must be one of: nuclei, wappalyzer (got %q)", ErrInvalidConfig, o.Detector)
	}
	if err := requireDir(o.DictPath, "--dict"); err != nil {
		return err
	}
	if o.DefaultWordlist != "" {
		fi, err := os.Stat(o.DefaultWordlist)
		if err != nil {
			return fmt.Errorf("%w: --default-wordlist %s: %v", ErrInvalidConfig, o.DefaultWordlist, err)
		}
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("%w: --default-wordlist %s is not a file", ErrInvalidConfig, o.DefaultWordlist)
		}
	}
	for _, code := range o.MatchCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("%w: invalid match code %d", ErrInvalidConfig, code)
		}
	}
	return nil
}

func requireDir(path, flag string) error {
	if path == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, flag)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidConfig, flag, path, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s %s is not a directory", ErrInvalidConfig, flag, path)
	}
	return nil
}
