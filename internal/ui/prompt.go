package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Prompter reads answers to interactive prompts. When its input is a
// terminal, passwords are read without echo.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1 when input is not a terminal
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if fd, ok := terminalFd(in); ok {
		p.fd = fd
	}
	return p
}

// Line prints "label: " and reads one trimmed line. A final line without a
// newline is accepted.
func (p *Prompter) Line(label string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	return p.readLine()
}

// Prompt prints prefix as-is and reads one trimmed line. It returns io.EOF
// once input is exhausted.
func (p *Prompter) Prompt(prefix string) (string, error) {
	if _, err := io.WriteString(p.out, prefix); err != nil {
		return "", err
	}
	return p.readLine()
}

// Password reads a secret. On a terminal the input is not echoed.
func (p *Prompter) Password(label string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	if p.fd < 0 {
		return p.readLine()
	}
	pw, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// Confirm asks a yes/no question; anything but y/yes is no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Line(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
