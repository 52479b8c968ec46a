package build

import (
	"reflect"
	"testing"
)

func TestSets_StartedStartedFinished(t *testing.T) {
	s := NewSets()
	s.Apply(Event{Kind: Started, Name: "a"})
	s.Apply(Event{Kind: Started, Name: "b"})
	s.Apply(Event{Kind: Finished, Name: "a"})

	if got := s.Active(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("active = %v, want [b]", got)
	}
	if got := s.Completed(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("completed = %v, want [a]", got)
	}

	s.Apply(Event{Kind: Finished, Name: "a"})
	if got := s.Completed(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("duplicate Finished changed completed: %v", got)
	}
	if s.IsActive("a") || !s.IsCompleted("a") || !s.IsActive("b") {
		t.Errorf("unexpected membership after duplicate Finished")
	}
}

func TestSets_FinishedWithoutStarted(t *testing.T) {
	s := NewSets()
	s.Apply(Event{Kind: Finished, Name: "x"})
	if !s.IsCompleted("x") || s.IsActive("x") {
		t.Errorf("expected x completed only")
	}
}

func TestSets_Reset(t *testing.T) {
	s := NewSets()
	s.Apply(Event{Kind: Started, Name: "a"})
	s.Apply(Event{Kind: Finished, Name: "b"})
	s.Reset()
	if len(s.Active()) != 0 || len(s.Completed()) != 0 {
		t.Errorf("expected empty sets after Reset")
	}
}

func TestKindString(t *testing.T) {
	if Started.String() != "started" || Finished.String() != "finished" || Kind(9).String() != "unknown" {
		t.Errorf("unexpected kind names")
	}
}
