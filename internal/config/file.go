package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML config file layout. Every field is optional; pointer
// fields distinguish "unset" from zero values.
type File struct {
	Dict            *string             `yaml:"dict"`
	DefaultWordlist *string             `yaml:"default_wordlist"`
	NucleiTemplates *string             `yaml:"nuclei_templates"`
	Mode            *string             `yaml:"mode"`
	Occurrence      *int                `yaml:"occurrence"`
	Detector        *string             `yaml:"detector"`
	NucleiBinary    *string             `yaml:"nuclei_bin"`
	FFUFBinary      *string             `yaml:"ffuf_bin"`
	MatchCodes      []int               `yaml:"match_codes"`
	Threads         *int                `yaml:"threads"`
	DetectTimeout   *time.Duration      `yaml:"detect_timeout"`
	FuzzTimeout     *time.Duration      `yaml:"fuzz_timeout"`
	OutputDir       *string             `yaml:"output_dir"`
	ResumeFile      *string             `yaml:"resume_file"`
	MetricsFile     *string             `yaml:"metrics_file"`
	Wordlists       map[string][]string `yaml:"wordlists"`
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file: %v", ErrInvalidConfig, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing config file %s: %v", ErrInvalidConfig, path, err)
	}
	return &f, nil
}

// Apply copies every value set in the file onto opts unless isSet reports
// that the corresponding flag was given on the command line.
func (f *File) Apply(opts *Options, isSet func(flag string) bool) {
	if isSet == nil {
		isSet = func(string) bool { return false }
	}
	setString(&opts.DictPath, f.Dict, isSet("dict"))
	setString(&opts.DefaultWordlist, f.DefaultWordlist, isSet("default-wordlist"))
	setString(&opts.TemplatesPath, f.NucleiTemplates, isSet("nuclei-templates"))
	setString(&opts.Mode, f.Mode, isSet("mode"))
	setString(&opts.Detector, f.Detector, isSet("detector"))
	setString(&opts.NucleiBinary, f.NucleiBinary, isSet("nuclei-bin"))
	setString(&opts.FFUFBinary, f.FFUFBinary, isSet("ffuf-bin"))
	setString(&opts.OutputDir, f.OutputDir, isSet("output-dir"))
	setString(&opts.ResumeFile, f.ResumeFile, isSet("resume-file"))
	setString(&opts.MetricsFile, f.MetricsFile, isSet("metrics-file"))
	if f.Occurrence != nil && !isSet("occurrence") {
		opts.Occurrence = *f.Occurrence
	}
	if f.Threads != nil && !isSet("threads") {
		opts.Threads = *f.Threads
	}
	if f.DetectTimeout != nil && !isSet("detect-timeout") {
		opts.DetectTimeout = *f.DetectTimeout
	}
	if f.FuzzTimeout != nil && !isSet("fuzz-timeout") {
		opts.FuzzTimeout = *f.FuzzTimeout
	}
	if len(f.MatchCodes) > 0 && !isSet("match-codes") {
		opts.MatchCodes = append([]int(nil), f.MatchCodes...)
	}
	if len(f.Wordlists) > 0 {
		if opts.Wordlists == nil {
			opts.Wordlists = make(map[string][]string, len(f.Wordlists))
		}
		for tech, stems := range f.Wordlists {
			opts.Wordlists[tech] = append([]string(nil), stems...)
		}
	}
}

func setString(dst *string, v *string, flagSet bool) {
	if v != nil && !flagSet {
		*dst = *v
	}
}
