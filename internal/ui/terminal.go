package ui

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultWidth = 80

// terminalFd returns the descriptor behind w when w is a terminal.
func terminalFd(w any) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return -1, false
	}
	return int(f.Fd()), true
}

// ShouldUseColor reports whether ANSI colors should be written to out.
// It respects NO_COLOR, CLICOLOR_FORCE, CLICOLOR, and TTY detection.
func ShouldUseColor(out io.Writer) bool {
	// https://no-color.org
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	_, ok := terminalFd(out)
	return ok
}

// Width returns the column count of the terminal behind out, or 80 when out
// is not a terminal.
func Width(out io.Writer) int {
	fd, ok := terminalFd(out)
	if !ok {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
