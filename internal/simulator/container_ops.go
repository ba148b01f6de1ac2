package simulator

import (
	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
)

// CreateContainer creates a new Container and links it into the tree
// under parentID (§4.2).
func (s *Simulator) CreateContainer(typeID, parentID, name, alias string, time float64) (*model.Container, error) {
	typ, ok := s.types.get(typeID)
	if !ok {
		return nil, simerrors.Newf(simerrors.ErrUnknownType, "unknown type %q", typeID)
	}
	if typ.Kind != model.KindContainer {
		return nil, simerrors.Newf(simerrors.ErrNotContainerType, "type %q is not a Container type", typeID)
	}

	parent, ok := s.containers.get(parentID)
	if !ok {
		return nil, simerrors.Newf(simerrors.ErrUnknownContainer, "unknown parent container %q", parentID)
	}

	if typ.Parent != parent.Type {
		return nil, simerrors.Newf(simerrors.ErrTypeHierarchyMismatch,
			"type %q's parent does not match parent container %q's type", typeID, parentID)
	}

	id := chosenID(name, alias)
	if s.containers.has(id) {
		return nil, simerrors.Newf(simerrors.ErrDuplicateContainer, "container %q already exists", id)
	}
	if existing, ok := s.containers.getByName(name); ok && existing.ID != id {
		return nil, simerrors.Newf(simerrors.ErrDuplicateContainer, "container name %q already used by container %q", name, existing.ID)
	}

	c := model.NewContainer(id, name, typ, parent, time)
	s.containers.insert(c)
	s.fireContainerCreated(id)
	s.notifyHierarchyChanged()
	return c, nil
}

// DestroyContainer destroys the container identified by nameOrID,
// closing its open State/Variable intervals, then recurses onto its
// descendants (§4.2). Per spec.md's resolution of the source's
// identifier/name lookup ambiguity, lookup is always by identifier.
func (s *Simulator) DestroyContainer(typeID, nameOrID string, time float64) error {
	typ, ok := s.types.get(typeID)
	if !ok {
		return simerrors.Newf(simerrors.ErrUnknownType, "unknown type %q", typeID)
	}

	c, ok := s.containers.get(nameOrID)
	if !ok {
		return simerrors.Newf(simerrors.ErrUnknownContainer, "unknown container %q", nameOrID)
	}
	if c.Type != typ {
		return simerrors.Newf(simerrors.ErrTypeHierarchyMismatch,
			"type %q does not match container %q's actual type %q", typeID, nameOrID, c.Type.ID)
	}

	s.destroyRecursive(c, time)
	s.notifyHierarchyChanged()
	return nil
}

func (s *Simulator) destroyRecursive(c *model.Container, time float64) {
	if c.IsDestroyed() {
		return
	}
	c.Close(time)
	// The root is never reported through ContainerCreated, so its
	// destruction is not reported either.
	if c != s.rootContainer {
		s.fireContainerDestroyed(c.ID)
	}
	for _, child := range c.Children() {
		s.destroyRecursive(child, time)
	}
}

// RecursiveDestroyAt closes every still-open container in the tree at
// time t, used by Finish.
func (s *Simulator) RecursiveDestroyAt(t float64) {
	s.destroyRecursive(s.rootContainer, t)
}
