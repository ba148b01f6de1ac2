package simulator

import (
	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
)

// chosenID returns the identifier a Define*/CreateContainer event
// installs: the alias if supplied, otherwise the name (§3.1).
func chosenID(name, alias string) string {
	if alias != "" {
		return alias
	}
	return name
}

func (s *Simulator) resolveContainerType(parentID string) (*model.Type, error) {
	parent, ok := s.types.get(parentID)
	if !ok {
		return nil, simerrors.Newf(simerrors.ErrUnknownType, "unknown parent type %q", parentID)
	}
	if parent.Kind != model.KindContainer {
		return nil, simerrors.Newf(simerrors.ErrNotContainerType, "parent type %q is not a Container type", parentID)
	}
	return parent, nil
}

func (s *Simulator) defineType(parentID, name, alias string, kind model.Kind) (*model.Type, error) {
	parent, err := s.resolveContainerType(parentID)
	if err != nil {
		return nil, err
	}
	id := chosenID(name, alias)
	if s.types.has(id) {
		return nil, simerrors.Newf(simerrors.ErrDuplicateType, "type %q already defined", id)
	}
	if existing, ok := s.types.getByName(name); ok && existing.ID != id {
		return nil, simerrors.Newf(simerrors.ErrDuplicateType, "type name %q already used by type %q", name, existing.ID)
	}
	t := model.NewType(id, name, kind, parent)
	s.types.insert(t)
	return t, nil
}

// DefineContainerType declares a new Container type under parentID (§4.1).
func (s *Simulator) DefineContainerType(parentID, name, alias string) (*model.Type, error) {
	return s.defineType(parentID, name, alias, model.KindContainer)
}

// DefineEventType declares a new Event type under parentID.
func (s *Simulator) DefineEventType(parentID, name, alias string) (*model.Type, error) {
	return s.defineType(parentID, name, alias, model.KindEvent)
}

// DefineStateType declares a new State type under parentID.
func (s *Simulator) DefineStateType(parentID, name, alias string) (*model.Type, error) {
	return s.defineType(parentID, name, alias, model.KindState)
}

// DefineVariableType declares a new Variable type under parentID. The
// color is cosmetic (used by renderers) and carried on the type, not
// validated against any Value.
func (s *Simulator) DefineVariableType(parentID, name, alias string, color *model.Color) (*model.Type, error) {
	t, err := s.defineType(parentID, name, alias, model.KindVariable)
	if err != nil {
		return nil, err
	}
	s.variableColors[t.ID] = color
	return t, nil
}

// VariableColor returns the cosmetic color declared for a Variable type, if any.
func (s *Simulator) VariableColor(typeID string) *model.Color {
	return s.variableColors[typeID]
}

// DefineLinkType declares a new Link type under parentID, with its
// expected start/end container types.
func (s *Simulator) DefineLinkType(parentID, name, alias, startContainerTypeID, endContainerTypeID string) (*model.Type, error) {
	parent, err := s.resolveContainerType(parentID)
	if err != nil {
		return nil, err
	}
	id := chosenID(name, alias)
	if s.types.has(id) {
		return nil, simerrors.Newf(simerrors.ErrDuplicateType, "type %q already defined", id)
	}
	if existing, ok := s.types.getByName(name); ok && existing.ID != id {
		return nil, simerrors.Newf(simerrors.ErrDuplicateType, "type name %q already used by type %q", name, existing.ID)
	}

	startType, ok := s.types.get(startContainerTypeID)
	if !ok || startType.Kind != model.KindContainer {
		return nil, simerrors.Newf(simerrors.ErrUnknownType, "start container type %q does not resolve to a Container type", startContainerTypeID)
	}
	endType, ok := s.types.get(endContainerTypeID)
	if !ok || endType.Kind != model.KindContainer {
		return nil, simerrors.Newf(simerrors.ErrUnknownType, "end container type %q does not resolve to a Container type", endContainerTypeID)
	}

	t := model.NewType(id, name, model.KindLink, parent)
	t.LinkStartType = startType
	t.LinkEndType = endType
	s.types.insert(t)
	return t, nil
}

// DefineValue declares a Value on an Event/State/Link type (§4.1).
func (s *Simulator) DefineValue(typeID, name, alias string, color *model.Color) (*model.Value, error) {
	t, ok := s.types.get(typeID)
	if !ok {
		return nil, simerrors.Newf(simerrors.ErrUnknownType, "unknown type %q", typeID)
	}
	return s.defineValueOn(t, name, alias, color)
}

func (s *Simulator) defineValueOn(t *model.Type, name, alias string, color *model.Color) (*model.Value, error) {
	if !t.AcceptsValues() {
		return nil, simerrors.Newf(simerrors.ErrInvalidTypeForValue, "type %q (%s) cannot carry values", t.ID, t.Kind)
	}
	id := chosenID(name, alias)
	if _, exists := t.Value(id); exists {
		return nil, simerrors.Newf(simerrors.ErrDuplicateValue, "value %q already declared on type %q", id, t.ID)
	}
	v := &model.Value{ID: id, Name: name, Color: color}
	t.DeclareValue(v)
	return v, nil
}

// valueOrInline resolves value identifier `raw` against t's declared
// values, declaring a fresh, colorless Value on the fly if absent
// (§4.3 "Inline value declaration"). An empty raw means the event
// carried no Value field at all, so no value is attached.
func (s *Simulator) valueOrInline(t *model.Type, raw string) *model.Value {
	if raw == "" {
		return nil
	}
	if v, ok := t.Value(raw); ok {
		return v
	}
	v := &model.Value{ID: raw, Name: raw}
	t.DeclareValue(v)
	return v
}
