package cli

import (
	"strings"
	"testing"
)

func TestViewRendersQuestionAndOptions(t *testing.T) {
	m := NewModel(wizardProfile())

	view := m.View()

	if !strings.Contains(view, "Labops Survey") {
		t.Error("view should carry the survey title")
	}
	if !strings.Contains(view, "What will this server mainly do?") {
		t.Error("view should show the current prompt")
	}
	if !strings.Contains(view, "> Media streaming") {
		t.Error("view should mark the preselected option with a cursor")
	}
	if !strings.Contains(view, "question 1 of") {
		t.Error("view should show interview progress")
	}
}

func TestViewRendersTextInputWithDefault(t *testing.T) {
	m := NewModel(wizardProfile())
	m = answer(t, m, "media")

	view := m.View()

	if !strings.Contains(view, "How many people will use it?") {
		t.Error("view should show the int prompt")
	}
	if !strings.Contains(view, "1 (default)") {
		t.Error("empty input should display the default hint")
	}
}

func TestViewRendersValidationError(t *testing.T) {
	m := NewModel(wizardProfile())
	m = answer(t, m, "media")
	m.input = "lots"
	m = m.answerCurrent()

	view := m.View()

	if !strings.Contains(view, "✗") {
		t.Error("view should surface the validation error")
	}
}

func TestSummaryListsEveryAnswer(t *testing.T) {
	m := NewModel(wizardProfile())
	for _, raw := range []string{"privacy", "2", "none", "standard", "yes", "no", "local", "daily", "basic", "no", "50", "70"} {
		m = answer(t, m, raw)
	}

	view := m.View()

	if !strings.Contains(view, "Review your answers") {
		t.Error("summary should carry its heading")
	}
	if !strings.Contains(view, "Privacy (passwords, DNS)") {
		t.Error("summary should show the selected option label")
	}
	if !strings.Contains(view, "What will this server mainly do?") {
		t.Error("summary should repeat the prompts")
	}
}

func TestDoneViewIsEmpty(t *testing.T) {
	m := NewModel(wizardProfile())
	m.ViewState = ViewStateDone

	if m.View() != "" {
		t.Error("done state should render nothing")
	}
}
