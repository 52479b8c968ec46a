package build

import (
	"time"

	"orbit/internal/shared/util"
)

type Kind int

const (
	Started Kind = iota
	Finished
)

func (k Kind) String() string {
	switch k {
	case Started:
		return "started"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is one observed build step for a component identity.
type Event struct {
	Kind Kind
	Name string
	At   time.Time
}

// Sets is the live aggregate of build events. It is not safe for concurrent
// use; the consumer owns it.
type Sets struct {
	active    map[string]struct{}
	completed map[string]struct{}
}

func NewSets() *Sets {
	return &Sets{
		active:    make(map[string]struct{}),
		completed: make(map[string]struct{}),
	}
}

// Apply folds ev into the sets. Repeated events are no-ops.
func (s *Sets) Apply(ev Event) {
	switch ev.Kind {
	case Started:
		s.active[ev.Name] = struct{}{}
	case Finished:
		delete(s.active, ev.Name)
		s.completed[ev.Name] = struct{}{}
	}
}

func (s *Sets) IsActive(name string) bool {
	_, ok := s.active[name]
	return ok
}

func (s *Sets) IsCompleted(name string) bool {
	_, ok := s.completed[name]
	return ok
}

func (s *Sets) Active() []string    { return util.SortedStringKeys(s.active) }
func (s *Sets) Completed() []string { return util.SortedStringKeys(s.completed) }

// Reset empties both sets, for a new build session.
func (s *Sets) Reset() {
	clear(s.active)
	clear(s.completed)
}
