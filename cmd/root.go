package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/maxvaer/intervention/internal/config"
	"github.com/maxvaer/intervention/internal/runner"
	"github.com/maxvaer/intervention/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	opts       = config.Default()
	configFile string
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"DICTIONARIES", []string{"dict", "mode", "default-wordlist"}},
	{"DETECTION", []string{"detector", "nuclei-templates", "nuclei-bin", "detect-timeout"}},
	{"FUZZING", []string{"ffuf-bin", "match-codes", "threads", "fuzz-timeout"}},
	{"ANALYSIS", []string{"occurrence"}},
	{"OUTPUT", []string{"output-dir", "verbose", "no-color", "metrics-file"}},
	{"CONFIGURATION", []string{"config", "resume-file"}},
}

var rootCmd = &cobra.Command{
	Use:     "intervention <url|file>... [flags]",
	Short:   "Technology-aware content discovery driver for nuclei and ffuf",
	Version: version.Version,
	Long: `intervention fingerprints each target with nuclei, picks the matching
OneListForAll wordlists, fuzzes the target with ffuf and keeps only the
responses whose length is rare. Results are written to
intervention_results_<target>.json per target.`,
	Example: `  intervention https://example.com
  intervention targets.txt --mode short
  intervention https://example.com --occurrence 3 -o reports/
  intervention https://a.example https://b.example --dict ~/OneListForAll/dict
  intervention targets.txt --detector wappalyzer --match-codes 200,403
  intervention targets.txt -c intervention.yaml --resume-file scan.state`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: prepare,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Dictionaries
	f.StringVar(&opts.DictPath, "dict", opts.DictPath, "OneListForAll dict directory")
	f.StringVar(&opts.Mode, "mode", opts.Mode, "Wordlist size: short, long")
	f.StringVar(&opts.DefaultWordlist, "default-wordlist", "", "Wordlist used when no technology matches (default: <dict>/general_<mode>.txt)")

	// Detection
	f.StringVar(&opts.Detector, "detector", opts.Detector, "Technology detector: nuclei, wappalyzer")
	f.StringVar(&opts.TemplatesPath, "nuclei-templates", opts.TemplatesPath, "nuclei-templates directory")
	f.StringVar(&opts.NucleiBinary, "nuclei-bin", opts.NucleiBinary, "nuclei executable")
	f.DurationVar(&opts.DetectTimeout, "detect-timeout", 0, "Time limit per detection run (0 to disable)")

	// Fuzzing
	f.StringVar(&opts.FFUFBinary, "ffuf-bin", opts.FFUFBinary, "ffuf executable")
	f.Var(&intSliceValue{target: &opts.MatchCodes}, "match-codes", "Status codes ffuf reports (comma-separated)")
	f.IntVarP(&opts.Threads, "threads", "t", opts.Threads, "ffuf concurrent threads")
	f.DurationVar(&opts.FuzzTimeout, "fuzz-timeout", 0, "Time limit per fuzzing run (0 to disable)")

	// Analysis
	f.IntVar(&opts.Occurrence, "occurrence", opts.Occurrence, "Keep results whose length occurs at most this many times")

	// Output
	f.StringVarP(&opts.OutputDir, "output-dir", "o", opts.OutputDir, "Directory for the JSON reports")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log subprocess commands and intermediate counts")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file at the end of the run")

	// Configuration
	f.StringVarP(&configFile, "config", "c", "", "YAML config file (flags take precedence)")
	f.StringVar(&opts.ResumeFile, "resume-file", "", "File to save/load completed targets for resume")

	// Custom help: categorized flags.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// prepare merges the config file under the explicit flags and validates
// the result before anything runs.
func prepare(cmd *cobra.Command, args []string) error {
	opts.Targets = args
	if configFile != "" {
		file, err := config.LoadFile(configFile)
		if err != nil {
			return err
		}
		file.Apply(&opts, cmd.Flags().Changed)
	}
	return opts.Validate()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// intSliceValue implements pflag.Value for comma-separated int slices.
// The first Set replaces the default.
type intSliceValue struct {
	target  *[]int
	changed bool
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	if !v.changed {
		*v.target = nil
		v.changed = true
	}
	parts := strings.Split(s, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid status code %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
  _       _                           _   _
 (_)_ __ | |_ ___ _ ____   _____ _ __ | |_(_) ___  _ __
 | | '_ \| __/ _ \ '__\ \ / / _ \ '_ \| __| |/ _ \| '_ \
 | | | | | ||  __/ |   \ V /  __/ | | | |_| | (_) | | | |
 |_|_| |_|\__\___|_|    \_/ \___|_| |_|\__|_|\___/|_| |_|  %s

`, ver)
}
