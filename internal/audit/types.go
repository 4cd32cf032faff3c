// Package audit runs security posture checks against a host and scores
// the result. Checks never mutate the host.
package audit

import (
	"fmt"
	"strings"
)

type CheckStatus int

const (
	CheckStatusOK CheckStatus = iota
	CheckStatusWarning
	CheckStatusError
	CheckStatusSkipped
)

type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Detail  string
}

type Report struct {
	Results []CheckResult
}

// Score starts at 100 and deducts 15 per finding at error severity and
// 5 per warning. Skipped checks are neutral.
func (r Report) Score() int {
	score := 100
	for _, res := range r.Results {
		switch res.Status {
		case CheckStatusError:
			score -= 15
		case CheckStatusWarning:
			score -= 5
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (r Report) Grade() string {
	score := r.Score()
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

func (r Report) Counts() (errors, warnings int) {
	for _, res := range r.Results {
		switch res.Status {
		case CheckStatusError:
			errors++
		case CheckStatusWarning:
			warnings++
		}
	}
	return errors, warnings
}

func FormatResults(hostName string, r Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] Security Audit\n", hostName))

	for _, res := range r.Results {
		icon := "✅"
		switch res.Status {
		case CheckStatusWarning:
			icon = "⚠️"
		case CheckStatusError:
			icon = "❌"
		case CheckStatusSkipped:
			icon = "➖"
		}
		sb.WriteString(fmt.Sprintf("  %-28s %s %s\n", res.Name+":", icon, res.Message))
	}

	sb.WriteString(fmt.Sprintf("  Score: %d/100 (%s)\n", r.Score(), r.Grade()))
	return sb.String()
}
