package simulator

import (
	"time"

	"fleetd.sh/internal/simerrors"
	"fleetd.sh/internal/trace"
)

// handlerFunc is the shape of every per-kind dispatch entry (§4.3).
type handlerFunc func(*Simulator, trace.Event) error

// dispatchTable is the tag-to-handler invocation array (§9 "keep it a
// straight map", grounded on the source's indexed invocation array).
var dispatchTable = map[trace.Kind]handlerFunc{
	trace.DefineContainerType: (*Simulator).handleDefineContainerType,
	trace.DefineLinkType:      (*Simulator).handleDefineLinkType,
	trace.DefineEventType:     (*Simulator).handleDefineEventType,
	trace.DefineStateType:     (*Simulator).handleDefineStateType,
	trace.DefineVariableType:  (*Simulator).handleDefineVariableType,
	trace.DefineEntityValue:   (*Simulator).handleDefineEntityValue,
	trace.CreateContainer:     (*Simulator).handleCreateContainer,
	trace.DestroyContainer:    (*Simulator).handleDestroyContainer,
	trace.NewEvent:            (*Simulator).handleNewEvent,
	trace.SetState:            (*Simulator).handleSetState,
	trace.PushState:           (*Simulator).handlePushState,
	trace.PopState:            (*Simulator).handlePopState,
	trace.ResetState:          (*Simulator).handleResetState,
	trace.SetVariable:         (*Simulator).handleSetVariable,
	trace.AddVariable:         (*Simulator).handleAddVariable,
	trace.SubVariable:         (*Simulator).handleSubVariable,
	trace.StartLink:           (*Simulator).handleStartLink,
	trace.EndLink:             (*Simulator).handleEndLink,
}

// InputEvent is the simulator's single ingestion entry point (§4.3).
// It is not reentrant (§5): callers must serialize their calls.
func (s *Simulator) InputEvent(ev trace.Event) error {
	if s.finished {
		// Finish is conceptually terminal; further events are rejected
		// the same way an unknown-kind event would be, since the model
		// the driver was building against no longer accepts mutation.
		err := simerrors.New(simerrors.ErrUnknownEventKind, "simulator already finished").WithEventText(ev.DebugString())
		s.fireRejected(ev.Kind(), err)
		return err
	}

	if t, err := parseTime(ev); err == nil {
		if _, ok := ev.Field(trace.FieldTime); ok {
			s.updateLastKnownTime(t)
		}
	}

	handler, ok := dispatchTable[ev.Kind()]
	if !ok {
		err := simerrors.Newf(simerrors.ErrUnknownEventKind, "unknown event kind %q", ev.Kind()).WithEventText(ev.DebugString())
		s.fireRejected(ev.Kind(), err)
		return err
	}

	start := time.Now()
	if err := handler(s, ev); err != nil {
		s.fireRejected(ev.Kind(), err)
		return err
	}
	s.fireAccepted(ev.Kind(), time.Since(start))
	return nil
}
