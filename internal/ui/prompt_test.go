package ui

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestPrompter_Line(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  ann \nlast"), &out)

	got, err := p.Line("Username")
	if err != nil || got != "ann" {
		t.Fatalf("Line() = %q, %v", got, err)
	}
	got, err = p.Line("Email")
	if err != nil || got != "last" {
		t.Fatalf("Line() at EOF = %q, %v", got, err)
	}
	if _, err := p.Line("More"); !errors.Is(err, io.EOF) {
		t.Errorf("Line() on empty input error = %v, want EOF", err)
	}
	if out.String() != "Username: Email: More: " {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrompter_Password_NotTerminal(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("s3cret\n"), &out)
	got, err := p.Password("Password")
	if err != nil || got != "s3cret" {
		t.Fatalf("Password() = %q, %v", got, err)
	}
}

func TestPrompter_Password_Terminal(t *testing.T) {
	oldRead, oldIsTerm := readPassword, isTerminal
	defer func() { readPassword, isTerminal = oldRead, oldIsTerm }()
	isTerminal = func(int) bool { return true }

	var out bytes.Buffer
	p := NewPrompter(os.Stdin, &out)

	readPassword = func(int) ([]byte, error) { return []byte("hidden"), nil }
	got, err := p.Password("Password")
	if err != nil || got != "hidden" {
		t.Fatalf("Password() = %q, %v", got, err)
	}
	if out.String() != "Password: \n" {
		t.Errorf("output = %q", out.String())
	}

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	if _, err := p.Password("Password"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPrompter_Confirm(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
	} {
		p := NewPrompter(strings.NewReader(tc.input), io.Discard)
		got, err := p.Confirm("Delete?")
		if err != nil || got != tc.want {
			t.Errorf("Confirm(%q) = %v, %v; want %v", tc.input, got, err, tc.want)
		}
	}
}

func TestRender_NoColor(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = false
	if got := RenderWarn("low"); got == "low" || !strings.Contains(got, "low") {
		t.Errorf("RenderWarn() = %q, want colored", got)
	}
	ForceNoColor()
	if got := RenderError("out"); got != "out" {
		t.Errorf("RenderError() with no color = %q", got)
	}
}
