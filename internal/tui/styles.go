// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // Teal
	colorSpecial   = lipgloss.Color("208") // Orange
	colorError     = lipgloss.Color("196")
	colorSuccess   = lipgloss.Color("40")
	colorWhite     = lipgloss.Color("231")
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	helpStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	specialStyle = lipgloss.NewStyle().Foreground(colorSpecial)

	mainTitleStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true).
			Padding(0, 1)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorSubtle)
	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorWhite).
			Background(colorHighlight).
			Bold(true)

	statusMessageStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(colorWhite).
				Background(colorHighlight)
)

// classStyle colors a classification label.
func classStyle(c model.Classification) lipgloss.Style {
	switch c {
	case model.Blocked:
		return errorStyle
	case model.PendingApproval:
		return specialStyle
	case model.Observed:
		return lipgloss.NewStyle().Foreground(colorHighlight)
	default:
		return successStyle
	}
}

// scoreStyle colors a threat score against the quarantine threshold.
func scoreStyle(score, threshold uint8) lipgloss.Style {
	switch {
	case score >= threshold:
		return errorStyle
	case score >= threshold/2:
		return specialStyle
	default:
		return lipgloss.NewStyle()
	}
}
