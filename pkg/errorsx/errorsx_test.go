package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonModelConverse)
	if Reason(err) != ReasonModelConverse {
		t.Fatalf("expected reason %s, got %s", ReasonModelConverse, Reason(err))
	}
	if !HasReason(err, ReasonModelConverse) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonToolTimeout)
	second := Wrap(first, ReasonModelConverse)
	if Reason(second) != ReasonToolTimeout {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
