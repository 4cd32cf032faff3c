package cli

import "strings"

type HelpItem struct {
	Key  string
	Desc string
}

func BuildHelpText(items []HelpItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Key + " " + item.Desc
	}
	return HelpStyle.Render("  " + strings.Join(parts, "  "))
}

var (
	HelpNavUp = HelpItem{Key: "↑/↓", Desc: "navigate"}
	HelpEnter = HelpItem{Key: "Enter", Desc: "select"}
	HelpEsc   = HelpItem{Key: "Esc", Desc: "back"}
	HelpQuit  = HelpItem{Key: "Ctrl+C", Desc: "quit"}
)

func HelpSelect() string {
	return BuildHelpText([]HelpItem{HelpNavUp, HelpEnter, HelpEsc, HelpQuit})
}

func HelpMultiSelect() string {
	return BuildHelpText([]HelpItem{
		HelpNavUp,
		{Key: "Space", Desc: "toggle"},
		{Key: "Enter", Desc: "accept"},
		HelpEsc,
		HelpQuit,
	})
}

func HelpInput() string {
	return BuildHelpText([]HelpItem{
		{Key: "Enter", Desc: "accept"},
		HelpEsc,
		HelpQuit,
	})
}

func HelpSummary() string {
	return BuildHelpText([]HelpItem{
		{Key: "Enter", Desc: "confirm"},
		{Key: "Esc", Desc: "change answers"},
		HelpQuit,
	})
}
