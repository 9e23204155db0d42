package main

import (
	"strings"
	"testing"

	"payscript/pkg/payscript"
)

func newSession(t *testing.T) *session {
	t.Helper()
	runtime := payscript.New(payscript.WithMemoryStore())
	t.Cleanup(func() { runtime.Close() })
	return &session{runtime: runtime}
}

func TestSessionAccumulatesLines(t *testing.T) {
	s := newSession(t)

	out, err := s.eval("x = 1")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out != "x: 1" {
		t.Errorf("out = %q, want \"x: 1\"", out)
	}

	out, err = s.eval("y = x + 2")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !strings.Contains(out, "x: 1") || !strings.Contains(out, "y: 3") {
		t.Errorf("out = %q, want x and y", out)
	}
}

func TestSessionDropsBadLine(t *testing.T) {
	s := newSession(t)

	if _, err := s.eval("x = 1"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := s.eval("y = ("); err == nil {
		t.Fatal("expected a parse error")
	}

	out, err := s.eval("z = x + 1")
	if err != nil {
		t.Fatalf("eval after bad line: %v", err)
	}
	if !strings.Contains(out, "z: 2") {
		t.Errorf("out = %q, want z: 2", out)
	}
}

func TestSessionSaveAndLoad(t *testing.T) {
	s := newSession(t)

	if _, err := s.eval("x = 4"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := s.command(":save demo"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := s.command(":reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(s.lines) != 0 {
		t.Fatalf("lines = %v, want empty after reset", s.lines)
	}

	out, err := s.command(":load demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out != "x: 4" {
		t.Errorf("out = %q, want \"x: 4\"", out)
	}

	out, err = s.command(":list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "demo" {
		t.Errorf("list = %q, want demo", out)
	}
}

func TestSessionLoadMissing(t *testing.T) {
	s := newSession(t)
	if _, err := s.command(":load nothere"); err == nil {
		t.Fatal("expected an error for a missing stream")
	}
}

func TestSessionRequests(t *testing.T) {
	s := newSession(t)
	if _, err := s.eval(`v = pays spot("EUR")`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	out, err := s.command(":requests")
	if err != nil {
		t.Fatalf("requests: %v", err)
	}
	if !strings.Contains(out, "fx EUR") || !strings.Contains(out, "numeraire") {
		t.Errorf("requests = %q", out)
	}
}

func TestSessionHelp(t *testing.T) {
	s := newSession(t)
	out, err := s.command(":help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out, "Payscript primer") {
		t.Errorf("help output missing primer heading")
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	s := newSession(t)
	if _, err := s.command(":bogus"); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}
