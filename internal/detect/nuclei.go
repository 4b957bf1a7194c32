package detect

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maxvaer/intervention/internal/jsonutil"
	"github.com/maxvaer/intervention/internal/proc"
)

// TemplateCategories are the nuclei template paths, relative to the
// templates directory, used for fingerprinting.
var TemplateCategories = []string{
	filepath.Join("http", "technologies", "tech-detect.yaml"),
	filepath.Join("http", "technologies", "favicon-detect.yaml"),
	filepath.Join("http", "exposures"),
	filepath.Join("http", "exposed-panels"),
}

// ErrNoTemplates is returned when none of the template categories exist.
var ErrNoTemplates = errors.New("no nuclei templates found")

// Nuclei detects technologies by running the nuclei scanner.
type Nuclei struct {
	Binary       string
	TemplatesDir string
	Exec         proc.Executor
	Logger       *slog.Logger
}

// NewNuclei returns a detector running binary against templatesDir.
func NewNuclei(binary, templatesDir string, exec proc.Executor, logger *slog.Logger) *Nuclei {
	if logger == nil {
		logger = slog.Default()
	}
	return &Nuclei{Binary: binary, TemplatesDir: templatesDir, Exec: exec, Logger: logger}
}

// Templates returns the template arguments that exist on disk.
func (n *Nuclei) Templates() []string {
	var found []string
	for _, rel := range TemplateCategories {
		p := filepath.Join(n.TemplatesDir, rel)
		if _, err := os.Stat(p); err != nil {
			n.Logger.Debug("template missing", "path", p)
			continue
		}
		found = append(found, p)
	}
	return found
}

// Args builds the nuclei command line for target.
func (n *Nuclei) Args(target string, templates []string) []string {
	args := []string{"-u", target}
	for _, t := range templates {
		args = append(args, "-t", t)
	}
	return append(args, "-jsonl", "-silent", "-duc", "-nc")
}

// Detect runs nuclei once against target.
func (n *Nuclei) Detect(ctx context.Context, target string) ([]string, error) {
	templates := n.Templates()
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoTemplates, n.TemplatesDir)
	}

	out, err := n.Exec.Run(ctx, n.Binary, n.Args(target, templates)...)
	if err != nil {
		return nil, err
	}

	techs := ParseNucleiOutput(out.Stdout, n.Logger)
	n.Logger.Debug("nuclei finished", "target", target, "technologies", len(techs))
	return techs, nil
}

type nucleiEvent struct {
	TemplateID  string `json:"template-id"`
	MatcherName string `json:"matcher-name"`
	Info        struct {
		Name string `json:"name"`
		Tags any    `json:"tags"`
	} `json:"info"`
}

// identifier picks the technology name from a nuclei event: the matcher
// name, else the template name, else the first tag.
func (e *nucleiEvent) identifier() string {
	if e.MatcherName != "" {
		return e.MatcherName
	}
	if e.Info.Name != "" {
		return e.Info.Name
	}
	switch tags := e.Info.Tags.(type) {
	case []any:
		if len(tags) > 0 {
			if s, ok := tags[0].(string); ok {
				return s
			}
		}
	case string:
		if i := strings.IndexByte(tags, ','); i >= 0 {
			return tags[:i]
		}
		return tags
	}
	return ""
}

// ParseNucleiOutput extracts the sorted, distinct technology identifiers
// from nuclei JSON-lines output. Lines that are not JSON are skipped.
func ParseNucleiOutput(data []byte, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	set := make(techSet)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev nucleiEvent
		if err := jsonutil.Unmarshal(line, &ev); err != nil {
			logger.Debug("skipping non-JSON nuclei line", "line", truncate(string(line), 50))
			continue
		}
		if set.add(ev.identifier()) {
			logger.Debug("technology detected", "name", Normalize(ev.identifier()), "template", ev.TemplateID)
		}
	}
	return set.sorted()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
