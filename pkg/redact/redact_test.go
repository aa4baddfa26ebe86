package redact

import (
	"strings"
	"testing"
)

func TestRedactDisabled(t *testing.T) {
	SetEnabled(false)
	in := "email a@b.com and phone +62 812 3456 7890"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
}

func TestRedactEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	in := "email a@b.com and phone +62 812 3456 7890"
	got := Text(in)
	if got == in {
		t.Fatalf("expected redaction")
	}
	if want := "[REDACTED_EMAIL]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
	if want := "[REDACTED_PHONE]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
}

func TestRedactArgs(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	args := map[string]any{
		"contact": "reach me at a@b.com",
		"count":   3,
	}
	got := Args(args)
	if s, _ := got["contact"].(string); !strings.Contains(s, "[REDACTED_EMAIL]") {
		t.Fatalf("expected redacted contact, got %v", got["contact"])
	}
	if got["count"] != 3 {
		t.Fatalf("expected non-string values untouched")
	}
}
