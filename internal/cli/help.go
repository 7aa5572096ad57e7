package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ReelGold)

	helpTaglineStyle = lipgloss.NewStyle().
				Foreground(ReelCoral).
				Italic(true)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ReelCoral).
				MarginTop(1)

	helpNameStyle = lipgloss.NewStyle().
			Foreground(ReelGold).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(ReelMagenta).
			Bold(true)

	helpNoteStyle = lipgloss.NewStyle().
			Foreground(SlateGray).
			Italic(true)
)

// helpEntry is one line of the help listing.
type helpEntry struct {
	name string
	help string
	note string
}

// helpSection is a titled run of entries. Flags without a kong group land
// in the untitled "Flags" section.
type helpSection struct {
	title   string
	entries []helpEntry
}

// StyledHelpPrinter renders kong help with the reel palette, grouping flags
// by their `group` tag.
func StyledHelpPrinter(_ kong.HelpOptions) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render("Jivereel 🎞"))
		sb.WriteString("\n")
		sb.WriteString(helpTaglineStyle.Render(Tagline))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		fmt.Fprintf(&sb, "\n  %s [<image> <audio> <output>] [flags]\n", ctx.Model.Name)

		if args := positionals(ctx.Model.Node); len(args) > 0 {
			writeSection(&sb, helpSection{title: "Arguments", entries: args}, helpArgStyle)
		}
		for _, sec := range flagSections(ctx.Model.Node) {
			writeSection(&sb, sec, helpNameStyle)
		}

		sb.WriteString("\n")
		_, err := io.WriteString(ctx.Stdout, sb.String())
		return err
	}
}

func writeSection(sb *strings.Builder, sec helpSection, nameStyle lipgloss.Style) {
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(sec.title + ":"))
	sb.WriteString("\n")
	for _, e := range sec.entries {
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(e.name))
		if e.help != "" {
			sb.WriteString("  " + e.help)
		}
		if e.note != "" {
			sb.WriteString(" " + helpNoteStyle.Render(e.note))
		}
		sb.WriteString("\n")
	}
}

func positionals(node *kong.Node) []helpEntry {
	entries := make([]helpEntry, 0, len(node.Positional))
	for _, arg := range node.Positional {
		entries = append(entries, helpEntry{name: arg.Summary(), help: arg.Help})
	}
	return entries
}

func flagSections(node *kong.Node) []helpSection {
	general := helpSection{
		title:   "Flags",
		entries: []helpEntry{{name: "-h, --help", help: "Show context-sensitive help."}},
	}
	var grouped []helpSection
	index := make(map[string]int)

	for _, f := range node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}
		e := flagEntry(f)
		if f.Group == nil {
			general.entries = append(general.entries, e)
			continue
		}
		i, ok := index[f.Group.Key]
		if !ok {
			i = len(grouped)
			index[f.Group.Key] = i
			grouped = append(grouped, helpSection{title: f.Group.Title})
		}
		grouped[i].entries = append(grouped[i].entries, e)
	}
	return append([]helpSection{general}, grouped...)
}

func flagEntry(f *kong.Flag) helpEntry {
	name := "--" + f.Name
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, %s", f.Short, name)
	}
	if !f.IsBool() && f.PlaceHolder != "" {
		name += "=" + strings.ToUpper(f.PlaceHolder)
	}

	var notes []string
	if f.HasDefault && !f.IsBool() && f.Default != "" {
		notes = append(notes, "default: "+f.Default)
	}
	if len(f.Envs) > 0 {
		notes = append(notes, "$"+f.Envs[0])
	}
	e := helpEntry{name: name, help: f.Help}
	if len(notes) > 0 {
		e.note = "(" + strings.Join(notes, ", ") + ")"
	}
	return e
}
