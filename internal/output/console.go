package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/maxvaer/intervention/internal/filter"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Console renders human-readable progress and summaries.
type Console struct {
	w        io.Writer
	renderer *lipgloss.Renderer
}

// NewConsole writes to w. Colors are disabled when noColor is set or w is
// not a terminal.
func NewConsole(w io.Writer, noColor bool) *Console {
	r := lipgloss.NewRenderer(w)
	if noColor || !isTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Console{w: w, renderer: r}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *Console) style(s lipgloss.Style) lipgloss.Style {
	return s.Renderer(c.renderer)
}

// BannerInfo is the run configuration shown at startup.
type BannerInfo struct {
	Version    string
	Mode       string
	Occurrence int
	Detector   string
	Dict       string
	Targets    int
}

// PrintBanner prints the run configuration.
func (c *Console) PrintBanner(info BannerInfo) {
	fmt.Fprintln(c.w, c.style(bannerStyle).Render("intervention "+info.Version))
	rows := [][2]string{
		{"Mode:", info.Mode},
		{"Occurrence:", "<= " + strconv.Itoa(info.Occurrence)},
		{"Detector:", info.Detector},
		{"Dictionaries:", info.Dict},
		{"Targets:", strconv.Itoa(info.Targets)},
	}
	rule := c.style(dimStyle).Render(strings.Repeat("─", 38))
	fmt.Fprintln(c.w, rule)
	for _, row := range rows {
		fmt.Fprintf(c.w, "  %s%s\n", c.style(labelStyle).Render(row[0]), c.style(valueStyle).Render(row[1]))
	}
	fmt.Fprintln(c.w, rule)
}

// PrintTarget announces the target about to be processed.
func (c *Console) PrintTarget(idx, total int, url string) {
	fmt.Fprintf(c.w, "\n[*] Target %d/%d: %s\n", idx, total, c.style(targetStyle).Render(url))
}

// Infof prints a "[+]" line.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.style(okStyle).Render("[+]"), fmt.Sprintf(format, args...))
}

// Warnf prints a "[!]" line.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.style(warnStyle).Render("[!]"), fmt.Sprintf(format, args...))
}

// Errorf prints a "[-]" line.
func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.style(errStyle).Render("[-]"), fmt.Sprintf(format, args...))
}

// PrintReport prints the findings of one target as a table, rarest
// response lengths first.
func (c *Console) PrintReport(r *ScanReport) {
	if len(r.Results) == 0 {
		c.Warnf("No interesting results for %s (%d total)", r.URL, r.TotalResults)
		return
	}

	fmt.Fprintln(c.w, c.Table(r.Results))
	c.Infof("%d interesting result(s) out of %d for %s (<= %d occurrences)",
		len(r.Results), r.TotalResults, r.URL, r.OccurrenceThreshold)
}

// Table renders findings sorted by occurrence count, then length.
func (c *Console) Table(findings []filter.Finding) string {
	sorted := append([]filter.Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OccurrenceCount != sorted[j].OccurrenceCount {
			return sorted[i].OccurrenceCount < sorted[j].OccurrenceCount
		}
		return sorted[i].Length < sorted[j].Length
	})

	rows := make([][]string, len(sorted))
	for i, f := range sorted {
		rows[i] = []string{
			f.URL,
			strconv.Itoa(f.Status),
			strconv.FormatInt(f.Length, 10),
			strconv.Itoa(f.OccurrenceCount),
			techLabel(f.Tech),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.style(dimStyle)).
		Headers("URL", "STATUS", "LENGTH", "OCCURRENCES", "TECH").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return c.style(headerStyle)
			}
			if col == 1 && row >= 0 && row < len(sorted) {
				return c.style(statusStyle(sorted[row].Status))
			}
			return c.style(cellStyle)
		})
	return t.String()
}

func techLabel(tech string) string {
	if tech == "" {
		return "-"
	}
	return tech
}

// PrintTally prints the final run summary.
func (c *Console) PrintTally(s Stats) {
	fmt.Fprintln(c.w)
	c.Infof("Done: %d target(s) | processed: %d | failed: %d | skipped: %d | interesting: %d/%d | %s",
		s.Targets, s.Processed, s.Failed, s.Skipped, s.Interesting, s.TotalResults,
		s.Duration.Round(time.Millisecond))
	if s.DetectFailed > 0 {
		c.Warnf("Technology detection failed for %d target(s); the default wordlist was used", s.DetectFailed)
	}
	if s.ReportErrors > 0 {
		c.Warnf("%d report file(s) could not be written", s.ReportErrors)
	}
	for _, t := range s.FailedTargets {
		c.Errorf("Failed: %s", t)
	}
}
