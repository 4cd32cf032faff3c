package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbletea"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/survey"
)

type ViewState int

const (
	ViewStateQuestion ViewState = iota
	ViewStateSummary
	ViewStateDone
	ViewStateAborted
)

// answeredQuestion remembers one committed answer so the wizard can
// rewind to it and render the summary screen.
type answeredQuestion struct {
	ID      string
	Prompt  string
	Raw     string
	Display string
}

// Model is the survey wizard: one question on screen at a time, Esc
// rewinds, a summary screen confirms before the answers leave the TUI.
type Model struct {
	ViewState ViewState
	Width     int
	Height    int

	flow     *survey.Flow
	profile  *entity.HostProfile
	question *survey.Question
	cursor   int
	selected map[int]bool
	input    string
	errMsg   string
	history  []answeredQuestion
}

func NewModel(profile *entity.HostProfile) Model {
	flow := survey.NewFlow(profile)
	m := Model{
		ViewState: ViewStateQuestion,
		Width:     80,
		Height:    24,
		flow:      flow,
		profile:   profile,
	}
	m.question = flow.Next()
	m.seedQuestion()
	if m.question == nil {
		m.ViewState = ViewStateSummary
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.ViewState = ViewStateAborted
			return m, tea.Quit
		case "esc":
			return m.handleEscape()
		case "up", "k":
			if m.hasOptions() && m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.hasOptions() && m.cursor < len(m.question.Options)-1 {
				m.cursor++
			}
			return m, nil
		case " ":
			if m.multiMode() {
				m.selected[m.cursor] = !m.selected[m.cursor]
				m.errMsg = ""
			}
			return m, nil
		case "enter":
			return m.handleEnter()
		case "backspace":
			if m.inputMode() && len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		default:
			if m.inputMode() && msg.Type == tea.KeyRunes {
				m.input += string(msg.Runes)
				m.errMsg = ""
			}
			return m, nil
		}
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.ViewState {
	case ViewStateQuestion:
		return m.answerCurrent(), nil
	case ViewStateSummary:
		m.ViewState = ViewStateDone
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleEscape() (tea.Model, tea.Cmd) {
	switch m.ViewState {
	case ViewStateQuestion:
		if len(m.history) == 0 {
			m.ViewState = ViewStateAborted
			return m, tea.Quit
		}
		return m.rewind(), nil
	case ViewStateSummary:
		return m.rewind(), nil
	}
	return m, nil
}

func (m Model) answerCurrent() Model {
	q := m.question
	if q == nil {
		return m
	}

	raw := ""
	display := ""
	switch {
	case q.Kind == survey.KindMultiSelect:
		var vals, labels []string
		for i, opt := range q.Options {
			if m.selected[i] {
				vals = append(vals, opt.Value)
				labels = append(labels, opt.Label)
			}
		}
		raw = strings.Join(vals, ",")
		display = strings.Join(labels, ", ")
		if display == "" {
			display = "none"
		}
	case m.hasOptions():
		opt := q.Options[m.cursor]
		raw = opt.Value
		display = opt.Label
	default:
		raw = strings.TrimSpace(m.input)
		if raw == "" {
			raw = m.flow.DefaultFor(q)
		}
		display = raw
	}

	if err := m.flow.Answer(q, raw); err != nil {
		m.errMsg = err.Error()
		return m
	}

	m.history = append(m.history, answeredQuestion{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Raw:     raw,
		Display: display,
	})
	m.question = m.flow.Next()
	m.seedQuestion()
	if m.question == nil {
		m.ViewState = ViewStateSummary
	}
	return m
}

// rewind replays everything but the last answer through a fresh flow,
// so the previous question comes back with its old answer preloaded.
// Gated questions re-resolve from the replayed answers.
func (m Model) rewind() Model {
	if len(m.history) == 0 {
		return m
	}
	last := m.history[len(m.history)-1]
	history := m.history[:len(m.history)-1]

	flow := survey.NewFlow(m.profile)
	for _, prev := range history {
		q := flow.Next()
		if q == nil {
			break
		}
		if err := flow.Answer(q, prev.Raw); err != nil {
			break
		}
	}

	m.flow = flow
	m.history = history
	m.question = flow.Next()
	m.seedQuestion()
	if m.question != nil {
		switch {
		case m.question.Kind == survey.KindMultiSelect:
			m.selected = selectionFor(m.question, last.Raw)
		case m.hasOptions():
			for i, opt := range m.question.Options {
				if opt.Value == last.Raw {
					m.cursor = i
				}
			}
		default:
			m.input = last.Raw
		}
	}
	m.ViewState = ViewStateQuestion
	return m
}

// selectionFor maps a comma-separated answer back onto option indexes.
func selectionFor(q *survey.Question, raw string) map[int]bool {
	sel := make(map[int]bool)
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		for i, opt := range q.Options {
			if opt.Value == v {
				sel[i] = true
			}
		}
	}
	return sel
}

// seedQuestion resets per-question state, putting the cursor on the
// profile-aware default. Multi-selects start with the default values
// checked.
func (m *Model) seedQuestion() {
	m.cursor = 0
	m.selected = nil
	m.input = ""
	m.errMsg = ""
	if m.question == nil || !m.hasOptions() {
		return
	}
	def := m.flow.DefaultFor(m.question)
	if m.question.Kind == survey.KindMultiSelect {
		m.selected = selectionFor(m.question, def)
		return
	}
	for i, opt := range m.question.Options {
		if opt.Value == def {
			m.cursor = i
			return
		}
	}
}

func (m Model) hasOptions() bool {
	return m.question != nil && len(m.question.Options) > 0
}

func (m Model) inputMode() bool {
	return m.ViewState == ViewStateQuestion && m.question != nil && !m.hasOptions()
}

func (m Model) multiMode() bool {
	return m.ViewState == ViewStateQuestion && m.question != nil && m.question.Kind == survey.KindMultiSelect
}

// RunWizard walks the survey in a full-screen TUI and returns the
// validated answers. Aborting surfaces ErrSurveyAborted.
func RunWizard(profile *entity.HostProfile) (*entity.Answers, error) {
	p := tea.NewProgram(NewModel(profile), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("survey wizard: %w", err)
	}
	m, ok := final.(Model)
	if !ok || m.ViewState != ViewStateDone {
		return nil, domain.ErrSurveyAborted
	}
	answers := m.flow.Answers()
	if err := answers.Validate(); err != nil {
		return nil, err
	}
	return answers, nil
}
