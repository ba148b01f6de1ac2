package model

import (
	"sort"

	"fleetd.sh/internal/simerrors"
)

// Container is a node of the container tree: a process, thread, task or
// any other entity classified by a Type. It owns its child containers
// and the per-type entity lists recorded on it.
type Container struct {
	ID          string
	Name        string
	Type        *Type
	Parent      *Container
	CreateTime  float64
	DestroyTime *float64 // nil until destroyed

	children []*Container
	entities map[string][]Entity // keyed by type ID

	stateStacks map[string][]stateFrame     // keyed by state-type ID
	variables   map[string]*variableRegister // keyed by variable-type ID

	// Link pairing, keyed by link-type ID then by pairing key. This
	// container is the "link container" named in the StartLink/EndLink
	// event's Container field, not necessarily a link endpoint.
	pendingLinkStarts map[string]map[string]linkHalf
	pendingLinkEnds   map[string]map[string]linkHalf
}

type stateFrame struct {
	start float64
	value *Value
	depth int
}

type variableRegister struct {
	initialized bool
	cur         float64
	openSince   float64
}

type linkHalf struct {
	time      float64
	value     *Value
	container *Container
}

// NewContainer constructs a container and, if parent is non-nil,
// appends it to parent's children. The caller enforces C1/C2
// (identifier/name uniqueness, type-hierarchy match) before calling it.
func NewContainer(id, name string, typ *Type, parent *Container, createTime float64) *Container {
	c := &Container{
		ID:         id,
		Name:       name,
		Type:       typ,
		Parent:     parent,
		CreateTime: createTime,
		entities:   make(map[string][]Entity),
	}
	if parent != nil {
		parent.children = append(parent.children, c)
	}
	return c
}

// Children returns the container's child containers in creation order.
func (c *Container) Children() []*Container {
	return c.children
}

// IsDestroyed reports whether DestroyContainer (or end-of-input
// closure) has already closed this container.
func (c *Container) IsDestroyed() bool {
	return c.DestroyTime != nil
}

// Entities returns the recorded entities for the given type, in
// append order, optionally clipped to the half-open window [t0, t1).
// A nil window returns the full sequence.
func (c *Container) Entities(typ *Type, window *[2]float64) []Entity {
	all := c.entities[typ.ID]
	if window == nil {
		return all
	}
	out := make([]Entity, 0, len(all))
	for _, e := range all {
		if entityOverlaps(e, window[0], window[1]) {
			out = append(out, e)
		}
	}
	return out
}

func entityOverlaps(e Entity, t0, t1 float64) bool {
	switch v := e.(type) {
	case *EventEntity:
		return v.Time >= t0 && v.Time < t1
	case *StateEntity:
		return v.Start < t1 && v.End >= t0
	case *VariableEntity:
		return v.Start < t1 && v.End >= t0
	case *LinkEntity:
		return v.StartTime < t1 && v.EndTime >= t0
	default:
		return true
	}
}

func (c *Container) append(typeID string, e Entity) {
	c.entities[typeID] = append(c.entities[typeID], e)
}

// RecordEvent appends an instantaneous Event entity.
func (c *Container) RecordEvent(typ *Type, time float64, value *Value) {
	c.append(typ.ID, &EventEntity{Time: time, Value: value})
}

// --- State stack machine (§4.3 "State machine per (container, state type)") ---

// PushState opens a new State interval at the current stack depth.
func (c *Container) PushState(typ *Type, time float64, value *Value) {
	if c.stateStacks == nil {
		c.stateStacks = make(map[string][]stateFrame)
	}
	stack := c.stateStacks[typ.ID]
	frame := stateFrame{start: time, value: value, depth: len(stack)}
	c.stateStacks[typ.ID] = append(stack, frame)
}

// SetState closes the top interval (if any) and opens a new one at the
// same depth, behaving as pop-then-push of a single level.
func (c *Container) SetState(typ *Type, time float64, value *Value) *StateEntity {
	if c.stateStacks == nil {
		c.stateStacks = make(map[string][]stateFrame)
	}
	stack := c.stateStacks[typ.ID]
	if len(stack) == 0 {
		c.stateStacks[typ.ID] = append(stack, stateFrame{start: time, value: value, depth: 0})
		return nil
	}
	top := stack[len(stack)-1]
	closed := &StateEntity{Start: top.start, End: time, Value: top.value, Imbrication: top.depth}
	c.append(typ.ID, closed)
	stack[len(stack)-1] = stateFrame{start: time, value: value, depth: top.depth}
	c.stateStacks[typ.ID] = stack
	return closed
}

// PopState closes the top interval, or fails with ErrUnderflowPopState
// if the stack for this type is empty.
func (c *Container) PopState(typ *Type, time float64) (*StateEntity, error) {
	stack := c.stateStacks[typ.ID]
	if len(stack) == 0 {
		return nil, simerrors.New(simerrors.ErrUnderflowPopState, "PopState on empty stack for type "+typ.ID)
	}
	top := stack[len(stack)-1]
	closed := &StateEntity{Start: top.start, End: time, Value: top.value, Imbrication: top.depth}
	c.append(typ.ID, closed)
	c.stateStacks[typ.ID] = stack[:len(stack)-1]
	return closed, nil
}

// ResetState closes every open interval on the stack for this type.
func (c *Container) ResetState(typ *Type, time float64) []*StateEntity {
	stack := c.stateStacks[typ.ID]
	closed := make([]*StateEntity, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		se := &StateEntity{Start: f.start, End: time, Value: f.value, Imbrication: f.depth}
		c.append(typ.ID, se)
		closed = append(closed, se)
	}
	delete(c.stateStacks, typ.ID)
	return closed
}

// OpenStateTypeIDs returns the state-type IDs that currently have at
// least one open interval, sorted for deterministic iteration.
func (c *Container) OpenStateTypeIDs() []string {
	ids := make([]string, 0, len(c.stateStacks))
	for id, stack := range c.stateStacks {
		if len(stack) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// --- Variable register (§4.3 "Variable state machine") ---

func (c *Container) varRegister(typ *Type) *variableRegister {
	if c.variables == nil {
		c.variables = make(map[string]*variableRegister)
	}
	r, ok := c.variables[typ.ID]
	if !ok {
		r = &variableRegister{}
		c.variables[typ.ID] = r
	}
	return r
}

// SetVariable overwrites the register, closing any open interval first.
func (c *Container) SetVariable(typ *Type, time, v float64) *VariableEntity {
	r := c.varRegister(typ)
	var closed *VariableEntity
	if r.initialized {
		closed = &VariableEntity{Start: r.openSince, End: time, Numeric: r.cur}
		c.append(typ.ID, closed)
	}
	r.initialized = true
	r.cur = v
	r.openSince = time
	return closed
}

// AddVariable adds v to the register (treating an uninitialized
// register as 0.0), closing any open interval first.
func (c *Container) AddVariable(typ *Type, time, v float64) *VariableEntity {
	r := c.varRegister(typ)
	var closed *VariableEntity
	if r.initialized {
		closed = &VariableEntity{Start: r.openSince, End: time, Numeric: r.cur}
		c.append(typ.ID, closed)
		r.cur += v
	} else {
		r.cur = 0.0 + v
	}
	r.initialized = true
	r.openSince = time
	return closed
}

// SubVariable subtracts v from the register (treating an uninitialized
// register as 0.0), closing any open interval first.
func (c *Container) SubVariable(typ *Type, time, v float64) *VariableEntity {
	r := c.varRegister(typ)
	var closed *VariableEntity
	if r.initialized {
		closed = &VariableEntity{Start: r.openSince, End: time, Numeric: r.cur}
		c.append(typ.ID, closed)
		r.cur -= v
	} else {
		r.cur = 0.0 - v
	}
	r.initialized = true
	r.openSince = time
	return closed
}

// OpenVariableTypeIDs returns the variable-type IDs with an initialized,
// not-yet-finally-closed register, sorted for deterministic iteration.
func (c *Container) OpenVariableTypeIDs() []string {
	ids := make([]string, 0, len(c.variables))
	for id, r := range c.variables {
		if r.initialized {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// CloseVariable emits the final interval for a register at time t.
func (c *Container) CloseVariable(typ *Type, t float64) *VariableEntity {
	r := c.variables[typ.ID]
	if r == nil || !r.initialized {
		return nil
	}
	closed := &VariableEntity{Start: r.openSince, End: t, Numeric: r.cur}
	c.append(typ.ID, closed)
	delete(c.variables, typ.ID)
	return closed
}

// --- Link pairing (§4.3 "Link pairing") ---

// StartLinkHalf records a StartLink half, pairing it immediately with a
// pending EndLink sharing (typ, key) if one is already waiting.
func (c *Container) StartLinkHalf(typ *Type, time float64, value *Value, startContainer *Container, key string) *LinkEntity {
	if c.pendingLinkEnds == nil {
		c.pendingLinkEnds = make(map[string]map[string]linkHalf)
	}
	if c.pendingLinkStarts == nil {
		c.pendingLinkStarts = make(map[string]map[string]linkHalf)
	}
	if ends, ok := c.pendingLinkEnds[typ.ID]; ok {
		if end, ok := ends[key]; ok {
			delete(ends, key)
			link := &LinkEntity{
				StartTime:      time,
				EndTime:        end.time,
				Value:          value,
				StartContainer: startContainer,
				EndContainer:   end.container,
				Key:            key,
			}
			c.append(typ.ID, link)
			return link
		}
	}
	if c.pendingLinkStarts[typ.ID] == nil {
		c.pendingLinkStarts[typ.ID] = make(map[string]linkHalf)
	}
	c.pendingLinkStarts[typ.ID][key] = linkHalf{time: time, value: value, container: startContainer}
	return nil
}

// EndLinkHalf records an EndLink half, pairing it immediately with a
// pending StartLink sharing (typ, key) if one is already waiting.
func (c *Container) EndLinkHalf(typ *Type, time float64, value *Value, endContainer *Container, key string) *LinkEntity {
	if c.pendingLinkStarts == nil {
		c.pendingLinkStarts = make(map[string]map[string]linkHalf)
	}
	if c.pendingLinkEnds == nil {
		c.pendingLinkEnds = make(map[string]map[string]linkHalf)
	}
	if starts, ok := c.pendingLinkStarts[typ.ID]; ok {
		if start, ok := starts[key]; ok {
			delete(starts, key)
			link := &LinkEntity{
				StartTime:      start.time,
				EndTime:        time,
				Value:          start.value,
				StartContainer: start.container,
				EndContainer:   endContainer,
				Key:            key,
			}
			c.append(typ.ID, link)
			return link
		}
	}
	if c.pendingLinkEnds[typ.ID] == nil {
		c.pendingLinkEnds[typ.ID] = make(map[string]linkHalf)
	}
	c.pendingLinkEnds[typ.ID][key] = linkHalf{time: time, value: value, container: endContainer}
	return nil
}

// pendingLinkTypeIDs returns every link-type ID with pending starts
// and/or ends, sorted for deterministic iteration.
func (c *Container) pendingLinkTypeIDs() []string {
	seen := make(map[string]bool)
	for id := range c.pendingLinkStarts {
		seen[id] = true
	}
	for id := range c.pendingLinkEnds {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FlushPendingLinks finalizes every still-pending Start (closed at
// endTime with a nil EndContainer sentinel) and reports every
// still-pending End as an orphan via report.
func (c *Container) FlushPendingLinks(endTime float64, report func(typeID, key string)) []*LinkEntity {
	var closed []*LinkEntity
	for _, typeID := range c.pendingLinkTypeIDs() {
		for key, start := range c.pendingLinkStarts[typeID] {
			link := &LinkEntity{
				StartTime:      start.time,
				EndTime:        endTime,
				Value:          start.value,
				StartContainer: start.container,
				EndContainer:   nil,
				Key:            key,
			}
			c.append(typeID, link)
			closed = append(closed, link)
		}
		delete(c.pendingLinkStarts, typeID)

		for key := range c.pendingLinkEnds[typeID] {
			if report != nil {
				report(typeID, key)
			}
		}
		delete(c.pendingLinkEnds, typeID)
	}
	return closed
}

// Close closes every open State and Variable interval on this
// container (but not descendants; the caller recurses) at time t and
// marks the container destroyed.
func (c *Container) Close(t float64) {
	for _, typeID := range c.OpenStateTypeIDs() {
		stack := c.stateStacks[typeID]
		for i := len(stack) - 1; i >= 0; i-- {
			f := stack[i]
			c.append(typeID, &StateEntity{Start: f.start, End: t, Value: f.value, Imbrication: f.depth})
		}
		delete(c.stateStacks, typeID)
	}
	for _, typeID := range c.OpenVariableTypeIDs() {
		r := c.variables[typeID]
		c.append(typeID, &VariableEntity{Start: r.openSince, End: t, Numeric: r.cur})
		delete(c.variables, typeID)
	}
	dt := t
	c.DestroyTime = &dt
}
