package simulator

import (
	"time"

	"fleetd.sh/internal/trace"
)

// Hooks are optional instrumentation callbacks invoked around event
// dispatch. They let callers wire metrics/tracing/logging (internal
// /metrics, internal/observability) without the core importing them
// directly. Any field may be nil.
type Hooks struct {
	// EventAccepted fires after a trace event is successfully applied,
	// with the time spent inside the handler.
	EventAccepted func(kind trace.Kind, elapsed time.Duration)
	// EventRejected fires when a trace event fails validation.
	EventRejected func(kind trace.Kind, err error)
	// ContainerCreated/ContainerDestroyed track tree size.
	ContainerCreated   func(containerID string)
	ContainerDestroyed func(containerID string)
	// OrphanLinkDetected fires once per unmatched EndLink flushed by Finish.
	OrphanLinkDetected func(typeID, key, containerID string)
	// TimeAdvanced fires whenever the greatest observed Time field advances.
	TimeAdvanced func(t float64)
}

// WithHooks installs instrumentation hooks.
func WithHooks(h Hooks) Option {
	return func(s *Simulator) { s.hooks = h }
}

func (s *Simulator) fireAccepted(kind trace.Kind, elapsed time.Duration) {
	if s.hooks.EventAccepted != nil {
		s.hooks.EventAccepted(kind, elapsed)
	}
}

func (s *Simulator) fireRejected(kind trace.Kind, err error) {
	if s.hooks.EventRejected != nil {
		s.hooks.EventRejected(kind, err)
	}
}

func (s *Simulator) fireContainerCreated(id string) {
	if s.hooks.ContainerCreated != nil {
		s.hooks.ContainerCreated(id)
	}
}

func (s *Simulator) fireContainerDestroyed(id string) {
	if s.hooks.ContainerDestroyed != nil {
		s.hooks.ContainerDestroyed(id)
	}
}

func (s *Simulator) fireOrphanLinkDetected(typeID, key, containerID string) {
	if s.hooks.OrphanLinkDetected != nil {
		s.hooks.OrphanLinkDetected(typeID, key, containerID)
	}
}

func (s *Simulator) fireTimeAdvanced(t float64) {
	if s.hooks.TimeAdvanced != nil {
		s.hooks.TimeAdvanced(t)
	}
}
