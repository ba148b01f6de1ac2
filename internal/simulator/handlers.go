package simulator

import (
	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
	"fleetd.sh/internal/trace"
)

func (s *Simulator) handleDefineContainerType(ev trace.Event) error {
	_, err := s.DefineContainerType(field(ev, trace.FieldType), field(ev, trace.FieldName), field(ev, trace.FieldAlias))
	return attributed(err, ev)
}

func (s *Simulator) handleDefineEventType(ev trace.Event) error {
	_, err := s.DefineEventType(field(ev, trace.FieldType), field(ev, trace.FieldName), field(ev, trace.FieldAlias))
	return attributed(err, ev)
}

func (s *Simulator) handleDefineStateType(ev trace.Event) error {
	_, err := s.DefineStateType(field(ev, trace.FieldType), field(ev, trace.FieldName), field(ev, trace.FieldAlias))
	return attributed(err, ev)
}

func (s *Simulator) handleDefineVariableType(ev trace.Event) error {
	color, err := parseColor(ev)
	if err != nil {
		return err
	}
	_, err = s.DefineVariableType(field(ev, trace.FieldType), field(ev, trace.FieldName), field(ev, trace.FieldAlias), color)
	return attributed(err, ev)
}

func (s *Simulator) handleDefineLinkType(ev trace.Event) error {
	_, err := s.DefineLinkType(
		field(ev, trace.FieldType),
		field(ev, trace.FieldName),
		field(ev, trace.FieldAlias),
		field(ev, trace.FieldStartContainerType),
		field(ev, trace.FieldEndContainerType),
	)
	return attributed(err, ev)
}

func (s *Simulator) handleDefineEntityValue(ev trace.Event) error {
	color, err := parseColor(ev)
	if err != nil {
		return err
	}
	_, err = s.DefineValue(field(ev, trace.FieldType), field(ev, trace.FieldName), field(ev, trace.FieldAlias), color)
	return attributed(err, ev)
}

func (s *Simulator) handleCreateContainer(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	_, err = s.CreateContainer(
		field(ev, trace.FieldType),
		field(ev, trace.FieldContainer),
		field(ev, trace.FieldName),
		field(ev, trace.FieldAlias),
		t,
	)
	return attributed(err, ev)
}

func (s *Simulator) handleDestroyContainer(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	// The source looks a container up by Name; spec.md fixes this to
	// identifier (alias-or-name) lookup, matching CreateContainer.
	name := field(ev, trace.FieldName)
	err = s.DestroyContainer(field(ev, trace.FieldType), name, t)
	return attributed(err, ev)
}

func (s *Simulator) handleNewEvent(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindEvent)
	if err != nil {
		return err
	}
	c, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, c); err != nil {
		return err
	}
	value := s.valueOrInline(typ, field(ev, trace.FieldValue))
	c.RecordEvent(typ, t, value)
	return nil
}

func (s *Simulator) handlePushState(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindState)
	if err != nil {
		return err
	}
	c, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, c); err != nil {
		return err
	}
	value := s.valueOrInline(typ, field(ev, trace.FieldValue))
	c.PushState(typ, t, value)
	return nil
}

func (s *Simulator) handleSetState(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindState)
	if err != nil {
		return err
	}
	c, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, c); err != nil {
		return err
	}
	value := s.valueOrInline(typ, field(ev, trace.FieldValue))
	c.SetState(typ, t, value)
	return nil
}

func (s *Simulator) handlePopState(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindState)
	if err != nil {
		return err
	}
	c, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, c); err != nil {
		return err
	}
	_, err = c.PopState(typ, t)
	return attributed(err, ev)
}

func (s *Simulator) handleResetState(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindState)
	if err != nil {
		return err
	}
	c, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, c); err != nil {
		return err
	}
	c.ResetState(typ, t)
	return nil
}

func (s *Simulator) handleSetVariable(ev trace.Event) error {
	return s.variableOp(ev, (*model.Container).SetVariable)
}

func (s *Simulator) handleAddVariable(ev trace.Event) error {
	return s.variableOp(ev, (*model.Container).AddVariable)
}

func (s *Simulator) handleSubVariable(ev trace.Event) error {
	return s.variableOp(ev, (*model.Container).SubVariable)
}

func (s *Simulator) variableOp(ev trace.Event, op func(*model.Container, *model.Type, float64, float64) *model.VariableEntity) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindVariable)
	if err != nil {
		return err
	}
	c, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, c); err != nil {
		return err
	}
	v, err := parseNumber(ev, trace.FieldValue)
	if err != nil {
		return err
	}
	op(c, typ, t, v)
	return nil
}

func (s *Simulator) handleStartLink(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindLink)
	if err != nil {
		return err
	}
	linkContainer, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, linkContainer); err != nil {
		return err
	}
	startContainer, err := s.resolveContainer(ev, trace.FieldStartContainer)
	if err != nil {
		return err
	}
	if startContainer.Type != typ.LinkStartType {
		return simerrors.Newf(simerrors.ErrLinkEndpointMismatch,
			"start container %q has type %q, link type %q expects %q",
			startContainer.ID, startContainer.Type.ID, typ.ID, typ.LinkStartType.ID).WithEventText(ev.DebugString())
	}
	value := s.valueOrInline(typ, field(ev, trace.FieldValue))
	linkContainer.StartLinkHalf(typ, t, value, startContainer, field(ev, trace.FieldKey))
	return nil
}

func (s *Simulator) handleEndLink(ev trace.Event) error {
	t, err := parseTime(ev)
	if err != nil {
		return err
	}
	typ, err := s.resolveType(ev, model.KindLink)
	if err != nil {
		return err
	}
	linkContainer, err := s.resolveContainer(ev, trace.FieldContainer)
	if err != nil {
		return err
	}
	if err := checkParent(ev, typ, linkContainer); err != nil {
		return err
	}
	endContainer, err := s.resolveContainer(ev, trace.FieldEndContainer)
	if err != nil {
		return err
	}
	if endContainer.Type != typ.LinkEndType {
		return simerrors.Newf(simerrors.ErrLinkEndpointMismatch,
			"end container %q has type %q, link type %q expects %q",
			endContainer.ID, endContainer.Type.ID, typ.ID, typ.LinkEndType.ID).WithEventText(ev.DebugString())
	}
	value := s.valueOrInline(typ, field(ev, trace.FieldValue))
	linkContainer.EndLinkHalf(typ, t, value, endContainer, field(ev, trace.FieldKey))
	return nil
}

// attributed tags a non-nil error with the offending event's debug
// rendering, unless it already carries one.
func attributed(err error, ev trace.Event) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*simerrors.SimError); ok && se.EventText == "" {
		se.WithEventText(ev.DebugString())
	}
	return err
}
