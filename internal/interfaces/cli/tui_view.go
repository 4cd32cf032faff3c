package cli

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	switch m.ViewState {
	case ViewStateSummary:
		return m.renderSummary()
	case ViewStateDone, ViewStateAborted:
		return ""
	}
	return m.renderQuestion()
}

func (m Model) renderHeader() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Labops Survey"))
	answered, total := m.flow.Progress()
	if m.ViewState == ViewStateQuestion {
		sb.WriteString(" ")
		sb.WriteString(HelpStyle.Render(fmt.Sprintf("question %d of %d", answered+1, total)))
	}
	sb.WriteString("\n\n")
	return sb.String()
}

func (m Model) renderQuestion() string {
	q := m.question
	if q == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString(SelectedStyle.Render(q.Prompt))
	sb.WriteString("\n")
	if q.Help != "" {
		sb.WriteString(HelpStyle.Render(q.Help))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if m.hasOptions() {
		for i, opt := range q.Options {
			label := opt.Label
			if m.multiMode() {
				mark := "[ ] "
				if m.selected[i] {
					mark = "[x] "
				}
				label = mark + label
			}
			if i == m.cursor {
				sb.WriteString(OptionSelectedStyle.Render("> " + label))
			} else {
				sb.WriteString(OptionStyle.Render("  " + label))
			}
			sb.WriteString("\n")
		}
	} else {
		line := "  > " + m.input
		if m.input == "" {
			if def := m.flow.DefaultFor(q); def != "" {
				line += HelpStyle.Render(def + " (default)")
			}
		} else {
			line += "_"
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if m.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(ErrorStyle.Render("✗ " + m.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case m.multiMode():
		sb.WriteString(HelpMultiSelect())
	case m.hasOptions():
		sb.WriteString(HelpSelect())
	default:
		sb.WriteString(HelpInput())
	}
	return BaseStyle.Render(sb.String())
}

func (m Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString(SelectedStyle.Render("Review your answers"))
	sb.WriteString("\n\n")

	for _, a := range m.history {
		sb.WriteString(fmt.Sprintf("  %-44s %s\n", a.Prompt, SuccessStyle.Render(a.Display)))
	}

	sb.WriteString("\n")
	sb.WriteString(HelpSummary())
	return BaseStyle.Render(sb.String())
}
