package simulator

import (
	"strconv"
	"strings"

	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
	"fleetd.sh/internal/trace"
)

// field returns a field's raw string, or "" if absent.
func field(ev trace.Event, name string) string {
	v, _ := ev.Field(name)
	return v
}

// parseTime parses the Time field with a locale-independent decimal
// point (§9 Open Questions), defaulting to 0 if the field is absent.
func parseTime(ev trace.Event) (float64, error) {
	raw, ok := ev.Field(trace.FieldTime)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, simerrors.Wrapf(err, simerrors.ErrInvalidNumber, "invalid Time field %q", raw).WithEventText(ev.DebugString())
	}
	return t, nil
}

// parseNumber parses a numeric field (Variable values).
func parseNumber(ev trace.Event, name string) (float64, error) {
	raw := field(ev, name)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, simerrors.Wrapf(err, simerrors.ErrInvalidNumber, "invalid %s field %q", name, raw).WithEventText(ev.DebugString())
	}
	return v, nil
}

// parseColor parses the optional Color field.
func parseColor(ev trace.Event) (*model.Color, error) {
	raw := field(ev, trace.FieldColor)
	c, err := model.ParseColor(raw)
	if err != nil {
		if se, ok := err.(*simerrors.SimError); ok {
			return nil, se.WithEventText(ev.DebugString())
		}
		return nil, err
	}
	return c, nil
}

// resolveContainer looks up a container by identifier, failing with
// ErrUnknownContainer (attributed to the event) if absent.
func (s *Simulator) resolveContainer(ev trace.Event, fieldName string) (*model.Container, error) {
	id := field(ev, fieldName)
	c, ok := s.containers.get(id)
	if !ok {
		return nil, simerrors.Newf(simerrors.ErrUnknownContainer, "unknown container %q", id).WithEventText(ev.DebugString())
	}
	return c, nil
}

// resolveType looks up a type by identifier and checks it has the
// expected kind (§4.3 handler skeleton).
func (s *Simulator) resolveType(ev trace.Event, expected model.Kind) (*model.Type, error) {
	id := field(ev, trace.FieldType)
	t, ok := s.types.get(id)
	if !ok {
		return nil, simerrors.Newf(simerrors.ErrUnknownType, "unknown type %q", id).WithEventText(ev.DebugString())
	}
	if t.Kind != expected {
		return nil, simerrors.Newf(simerrors.ErrTypeKindMismatch, "type %q is %s, expected %s", id, t.Kind, expected).WithEventText(ev.DebugString())
	}
	return t, nil
}

// checkParent enforces that typ.Parent == container.Type (§4.3).
func checkParent(ev trace.Event, typ *model.Type, c *model.Container) error {
	if typ.Parent != c.Type {
		return simerrors.Newf(simerrors.ErrTypeHierarchyMismatch,
			"type %q's parent does not match container %q's type %q", typ.ID, c.ID, c.Type.ID).WithEventText(ev.DebugString())
	}
	return nil
}
