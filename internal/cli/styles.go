package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Tagline is the one-line description shown in the banner and help
const Tagline = "Turn cover art and a slice of audio into a vertical short with a live waveform."

const appTitle = "Jivereel 🎞"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ReelMagenta).
			MarginBottom(1)

	taglineStyle = lipgloss.NewStyle().
			Foreground(SlateGray).
			Italic(true)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ReelGold).
			MarginTop(1).
			MarginBottom(1)

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#37B24D"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ReelMagenta)

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ReelGold)

	keyStyle = lipgloss.NewStyle().
			Foreground(SlateGray)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ReelViolet).
			Padding(1, 2).
			MarginTop(1)
)

// Row is one key/value line of a summary box. An empty Key starts a new
// block.
type Row struct {
	Key   string
	Value string
}

// PrintBanner prints the application banner
func PrintBanner() {
	fmt.Println(titleStyle.Render(appTitle))
	fmt.Println(taglineStyle.Render(Tagline))
	fmt.Println()
}

func PrintVersion(version string) {
	fmt.Println(titleStyle.Render(appTitle))
	PrintInfo("Version", version)
}

// PrintError and PrintWarning write to stderr so they survive a redirected
// stdout.
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), message)
}

func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnStyle.Render("Warning:"), message)
}

func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", okStyle.Render("✓"), message)
}

func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", keyStyle.Render(key+":"), valueStyle.Render(value))
}

func PrintSection(title string) {
	fmt.Println(sectionStyle.Render(title))
}

// PrintSummary prints a titled box of aligned key/value rows.
func PrintSummary(title string, rows []Row) {
	fmt.Println(FormatSummary(title, rows))
}

// FormatSummary renders what PrintSummary prints.
func FormatSummary(title string, rows []Row) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Key)+1)
	}

	var b strings.Builder
	b.WriteString(okStyle.Render("✓ " + title))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("\n")
		if r.Key == "" {
			continue
		}
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-*s ", width, r.Key+":")))
		b.WriteString(valueStyle.Render(r.Value))
	}
	return summaryBoxStyle.Render(b.String())
}

// FormatDuration prints sub-second durations in milliseconds.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func FormatSpeed(speed float64) string {
	return fmt.Sprintf("%.1fx realtime", speed)
}

// FormatBytes uses binary units.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
