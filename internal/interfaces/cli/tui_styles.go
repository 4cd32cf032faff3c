package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

const (
	ColorPrimary    = "#7C3AED"
	ColorSuccess    = "#10B981"
	ColorWarning    = "#F59E0B"
	ColorError      = "#EF4444"
	ColorSecondary  = "#6B7280"
	ColorBgSelected = "#1E1B4B"
)

// Shared chrome.
var (
	BaseStyle = lipgloss.NewStyle().Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary)).
			Padding(0, 1)

	TargetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess)).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondary))
)

// Outcome markers used by plan, apply and status output.
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError))
)

// Survey wizard widgets.
var (
	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimary)).
			Bold(true)

	OptionStyle = lipgloss.NewStyle().Padding(0, 2)

	OptionSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorPrimary)).
				Background(lipgloss.Color(ColorBgSelected)).
				Padding(0, 2).
				Bold(true)
)

var changeStyles = map[valueobject.ChangeType]struct {
	prefix string
	style  lipgloss.Style
}{
	valueobject.ChangeTypeCreate: {"+", lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))},
	valueobject.ChangeTypeUpdate: {"~", lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))},
	valueobject.ChangeTypeDelete: {"-", lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))},
	valueobject.ChangeTypeNoop:   {" ", lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondary))},
}

// FormatChangeType returns the diff glyph and color for one change row.
func FormatChangeType(changeType valueobject.ChangeType) (prefix string, style lipgloss.Style) {
	cs, ok := changeStyles[changeType]
	if !ok {
		cs = changeStyles[valueobject.ChangeTypeNoop]
	}
	return cs.prefix, cs.style
}
