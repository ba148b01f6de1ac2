// Package simulator is the event-driven coordinator: it holds the type
// and container registries, dispatches incoming trace events to
// per-kind handlers, validates them against the model, and mutates the
// container tree accordingly.
package simulator

import (
	"github.com/google/uuid"

	"fleetd.sh/internal/model"
)

// Option configures a Simulator at construction time.
type Option func(*Simulator)

// WithStopAt sets the simulation cutoff (§6.3): when set, Finish
// closes the model at this time instead of the last-known-time.
func WithStopAt(t float64) Option {
	return func(s *Simulator) { s.stopAt = &t }
}

// WithObserver installs the structural/selection notification sink.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// WithRunID overrides the generated correlation id for this run.
func WithRunID(id string) Option {
	return func(s *Simulator) { s.runID = id }
}

// Simulator is the top-level coordinator described by §2/§4.3. It is
// single-threaded and synchronous (§5): InputEvent is not reentrant.
type Simulator struct {
	runID string

	types      *typeRegistry
	containers *containerRegistry

	rootType      *model.Type
	rootContainer *model.Container

	lastKnownTime float64
	sawAnyTime    bool
	stopAt        *float64
	finished      bool

	selectionStart float64
	selectionEnd   float64

	variableColors map[string]*model.Color

	observer Observer
	hooks    Hooks
}

// New constructs a Simulator with its root type and root container
// already created (identifier and name "0", §3.1).
func New(opts ...Option) *Simulator {
	s := &Simulator{
		runID:          uuid.NewString(),
		types:          newTypeRegistry(),
		containers:     newContainerRegistry(),
		variableColors: make(map[string]*model.Color),
	}

	s.rootType = model.NewRootType()
	s.types.insert(s.rootType)

	s.rootContainer = model.NewContainer("0", "0", s.rootType, nil, 0)
	s.containers.insert(s.rootContainer)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunID is the correlation id tagging this simulation run in logs,
// traces, and notification frames.
func (s *Simulator) RunID() string { return s.runID }

// RootType returns the root of the type tree.
func (s *Simulator) RootType() *model.Type { return s.rootType }

// RootContainer returns the root of the container tree.
func (s *Simulator) RootContainer() *model.Container { return s.rootContainer }

// updateLastKnownTime advances the greatest Time field seen so far.
// Monotonicity is an input contract, not enforced (§9 Open Questions).
func (s *Simulator) updateLastKnownTime(t float64) {
	if !s.sawAnyTime || t > s.lastKnownTime {
		s.lastKnownTime = t
		s.fireTimeAdvanced(t)
	}
	s.sawAnyTime = true
}

// effectiveEndTime is the time Finish closes the model at.
func (s *Simulator) effectiveEndTime() float64 {
	if s.stopAt != nil {
		return *s.stopAt
	}
	return s.lastKnownTime
}
