package simulator

import (
	"fmt"
	"io"

	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
)

// TypeByID looks up a declared type by identifier.
func (s *Simulator) TypeByID(id string) (*model.Type, bool) {
	return s.types.get(id)
}

// ContainerByID looks up a container by identifier.
func (s *Simulator) ContainerByID(id string) (*model.Container, bool) {
	return s.containers.get(id)
}

// ContainedTypes returns the child types declared under a Container
// type (§6.2), i.e. the types a container of this kind may contain.
func (s *Simulator) ContainedTypes(containerType *model.Type) []*model.Type {
	return containerType.Children()
}

// StartTime is the earliest instant the model can represent: the root
// container's creation time.
func (s *Simulator) StartTime() float64 {
	return s.traceStart()
}

// EndTime is the effective end of the model: the configured stop time
// if set, otherwise the greatest Time field observed so far. Before
// Finish, this value can still change as more events arrive.
func (s *Simulator) EndTime() float64 {
	return s.effectiveEndTime()
}

// SetSelection narrows the window queries are clipped to (§6.3),
// clamping to the trace's [StartTime, EndTime] span. t0 must not
// exceed t1.
func (s *Simulator) SetSelection(t0, t1 float64) error {
	if t0 > t1 {
		return simerrors.Newf(simerrors.ErrInvalidNumber, "selection start %v is after selection end %v", t0, t1)
	}
	lo, hi := s.StartTime(), s.EndTime()
	if t0 < lo {
		t0 = lo
	}
	if t1 > hi {
		t1 = hi
	}
	s.selectionStart = t0
	s.selectionEnd = t1
	s.notifySelectionChanged()
	return nil
}

// SelectionStart returns the current selection window's lower bound.
func (s *Simulator) SelectionStart() float64 { return s.selectionStart }

// SelectionEnd returns the current selection window's upper bound.
func (s *Simulator) SelectionEnd() float64 { return s.selectionEnd }

// DumpTree writes a human-readable rendering of the container tree to
// w, one line per container, indented by depth. It is a debugging aid,
// not a stable serialization format.
func (s *Simulator) DumpTree(w io.Writer) error {
	return dumpContainer(w, s.rootContainer, 0)
}

func dumpContainer(w io.Writer, c *model.Container, depth int) error {
	prefix := ""
	for i := 0; i < depth; i++ {
		prefix += "  "
	}
	status := "open"
	if c.IsDestroyed() {
		status = fmt.Sprintf("closed@%v", *c.DestroyTime)
	}
	if _, err := fmt.Fprintf(w, "%s%s (%s) [%s] created@%v %s\n", prefix, c.ID, c.Name, c.Type.ID, c.CreateTime, status); err != nil {
		return err
	}
	for _, child := range c.Children() {
		if err := dumpContainer(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
