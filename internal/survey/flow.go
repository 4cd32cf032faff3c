package survey

import (
	"fmt"

	"github.com/lite-lake/homelab-ops/internal/domain"
	"github.com/lite-lake/homelab-ops/internal/domain/entity"
)

// Flow walks the interview one question at a time. It owns the Answers
// being built; gated questions are skipped as answers come in.
type Flow struct {
	questions []Question
	profile   *entity.HostProfile
	answers   *entity.Answers
	idx       int
}

func NewFlow(profile *entity.HostProfile) *Flow {
	return &Flow{
		questions: Questions(),
		profile:   profile,
		answers:   &entity.Answers{},
	}
}

// Next returns the next question to ask, or nil when the interview is
// complete.
func (f *Flow) Next() *Question {
	for f.idx < len(f.questions) {
		q := &f.questions[f.idx]
		if q.AskIf == nil || q.AskIf(f.answers) {
			return q
		}
		f.idx++
	}
	return nil
}

// DefaultFor resolves the question's default against the scanned
// profile.
func (f *Flow) DefaultFor(q *Question) string {
	if q.Default == nil {
		return ""
	}
	return q.Default(f.profile)
}

// Answer validates raw, applies it and advances the flow.
func (f *Flow) Answer(q *Question, raw string) error {
	if err := q.Validate(raw); err != nil {
		return err
	}
	if err := q.apply(f.answers, raw); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidAnswer, q.ID, err)
	}
	f.idx++
	return nil
}

// Answers returns the collected answers; valid only once Next returns
// nil and Validate passes.
func (f *Flow) Answers() *entity.Answers {
	return f.answers
}

// Progress reports how far along the interview is, for the wizard's
// progress display. Total counts only questions the current answers
// would ask.
func (f *Flow) Progress() (answered, total int) {
	total = 0
	for i := range f.questions {
		q := &f.questions[i]
		if q.AskIf == nil || q.AskIf(f.answers) {
			total++
			if i < f.idx {
				answered++
			}
		}
	}
	return answered, total
}

// UseDefaults completes the interview with every default answer, for
// the --defaults flag.
func UseDefaults(profile *entity.HostProfile) (*entity.Answers, error) {
	flow := NewFlow(profile)
	for {
		q := flow.Next()
		if q == nil {
			break
		}
		def := flow.DefaultFor(q)
		if err := flow.Answer(q, def); err != nil {
			return nil, fmt.Errorf("default for %s: %w", q.ID, err)
		}
	}
	answers := flow.Answers()
	if err := answers.Validate(); err != nil {
		return nil, err
	}
	return answers, nil
}
