package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm prints message with a y/n suffix and reads one line from stdin.
// Empty input takes the default; so does a read error, which keeps piped
// runs without a tty from hanging on a prompt.
func Confirm(message string, defaultYes bool) bool {
	return confirmFrom(os.Stdin, os.Stdout, message, defaultYes)
}

func confirmFrom(in io.Reader, out io.Writer, message string, defaultYes bool) bool {
	suffix := " (y/N): "
	if defaultYes {
		suffix = " (Y/n): "
	}
	fmt.Fprint(out, message+suffix)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return defaultYes
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}
