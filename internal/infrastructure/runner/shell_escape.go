package runner

import "strings"

// ShellEscape single-quotes s for safe interpolation into sh -c strings.
func ShellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
