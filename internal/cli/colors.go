package cli

import "github.com/charmbracelet/lipgloss"

// Reel colour palette 🎞
// Shared theme colours for consistent branding across CLI and TUI
var (
	// Core colours (deep to bright)
	ReelGold    = lipgloss.Color("#F8B31D") // Poster title yellow
	ReelCoral   = lipgloss.Color("#FF6F61") // Warm coral
	ReelMagenta = lipgloss.Color("#D6336C") // Magenta
	ReelViolet  = lipgloss.Color("#7048E8") // Deep violet

	// Accent colours
	SlateGray = lipgloss.Color("#8A8FA3") // Subtle text
)
