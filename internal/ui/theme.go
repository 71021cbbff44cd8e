package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/idilsaglam/tada/internal/model"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error lipgloss.Style
	Low, Middle, High                    lipgloss.Style
	Selected                             lipgloss.Style

	CornerTL, CornerTR, CornerBL, CornerBR string
	H, V                                   string
	SymOK, SymFail, SymBullet              string
}

var current = classic()

func classic() Theme {
	return Theme{
		Name:     "classic",
		Title:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Low:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Middle:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		High:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymOK: "✔", SymFail: "✖", SymBullet: "•",
	}
}

// SetTheme switches to "classic", "neon" or "mono". Unknown names fall
// back to classic.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		t := classic()
		t.Name = "neon"
		t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
		t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		t.Middle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		t.High = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
		t.CornerTL, t.CornerTR, t.CornerBL, t.CornerBR = "╭", "╮", "╰", "╯"
		current = t
	case "mono":
		plain := lipgloss.NewStyle()
		current = Theme{
			Name:  "mono",
			Title: plain, Muted: plain, Accent: plain, Success: plain, Error: plain,
			Low: plain, Middle: plain, High: plain,
			Selected: plain.Reverse(true),
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymOK: "ok", SymFail: "x", SymBullet: "-",
		}
	default:
		current = classic()
	}
}

// Current exposes what renderers need.
func Current() Theme { return current }

// SetColor turns colored output on or off for the default renderer.
func SetColor(enabled bool) {
	if enabled {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// PriorityStyle picks the style used for p.
func (t Theme) PriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return t.High
	case model.PriorityMiddle:
		return t.Middle
	default:
		return t.Low
	}
}
