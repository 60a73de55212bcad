// Package theme holds the terminal palette and shared lipgloss styles.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/knowgraph/knowgraph/internal/graphview"
	"github.com/knowgraph/knowgraph/internal/mastery"
)

// Palette. State colors mirror the graph stroke colors.
var (
	Primary   = lipgloss.Color("#60A5FA") // Sky
	Secondary = lipgloss.Color("#10B981") // Emerald
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#10B981")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#F3F4F6")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgDark    = lipgloss.Color("#111827")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	ActiveCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(BgDark).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 2)
)

// StateColor returns the color used for a mastery state.
func StateColor(st mastery.MasteryState) color.Color {
	switch st {
	case mastery.StateMastered:
		return Success
	case mastery.StateWeak:
		return Accent
	case mastery.StateViewed:
		return Primary
	}
	return TextDim
}

// State renders s in its state color.
func State(st mastery.MasteryState, s string) string {
	return lipgloss.NewStyle().Foreground(StateColor(st)).Render(s)
}

// Edge returns the style for a graph edge of the given emphasis.
func Edge(e graphview.Emphasis) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Style().Color))
	if e == graphview.EmphasisStrong {
		s = s.Bold(true)
	} else {
		s = s.Faint(e == graphview.EmphasisDormant)
	}
	return s
}
