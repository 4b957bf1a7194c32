package output

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#7D56F4")
	accent  = lipgloss.Color("#00D4AA")
	muted   = lipgloss.Color("#6B7280")

	status2xx = lipgloss.Color("#00D26A")
	status3xx = lipgloss.Color("#4D96FF")
	status4xx = lipgloss.Color("#FFD93D")
	status5xx = lipgloss.Color("#FF3838")
)

var (
	bannerStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(muted).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	dimStyle    = lipgloss.NewStyle().Foreground(muted)
	targetStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(status2xx).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(status4xx).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(status5xx).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(primary).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// statusStyle colors an HTTP status code by class.
func statusStyle(code int) lipgloss.Style {
	switch {
	case code >= 200 && code < 300:
		return cellStyle.Foreground(status2xx)
	case code >= 300 && code < 400:
		return cellStyle.Foreground(status3xx)
	case code >= 400 && code < 500:
		return cellStyle.Foreground(status4xx)
	case code >= 500:
		return cellStyle.Foreground(status5xx)
	default:
		return cellStyle
	}
}
