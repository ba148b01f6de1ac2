package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(id string, typ *Type) *Container {
	return NewContainer(id, id, typ, nil, 0)
}

// State imbrication, per spec §8: PushState A@0, PushState B@2, PopState@3
// must close B at depth 1, leaving A open at depth 0; PopState@4 closes A.
func TestStateImbrication(t *testing.T) {
	root := NewRootType()
	st := NewType("ST", "state", KindState, root)
	valA := &Value{ID: "A"}
	valB := &Value{ID: "B"}
	c := newTestContainer("c0", root)

	c.PushState(st, 0, valA)
	c.PushState(st, 2, valB)

	closedB, err := c.PopState(st, 3)
	require.NoError(t, err)
	assert.Equal(t, StateEntity{Start: 2, End: 3, Value: valB, Imbrication: 1}, *closedB)

	closedA, err := c.PopState(st, 4)
	require.NoError(t, err)
	assert.Equal(t, StateEntity{Start: 0, End: 4, Value: valA, Imbrication: 0}, *closedA)

	entities := c.Entities(st, nil)
	require.Len(t, entities, 2)
}

func TestPopStateUnderflow(t *testing.T) {
	root := NewRootType()
	st := NewType("ST", "state", KindState, root)
	c := newTestContainer("c0", root)

	_, err := c.PopState(st, 1)
	require.Error(t, err)
}

func TestSetStateClosesPreviousAtSameDepth(t *testing.T) {
	root := NewRootType()
	st := NewType("ST", "state", KindState, root)
	valA := &Value{ID: "A"}
	valB := &Value{ID: "B"}
	c := newTestContainer("c0", root)

	assert.Nil(t, c.SetState(st, 0, valA))
	closed := c.SetState(st, 5, valB)
	require.NotNil(t, closed)
	assert.Equal(t, StateEntity{Start: 0, End: 5, Value: valA, Imbrication: 0}, *closed)
}

// Variable aggregation, per spec §8: SetVariable@0=5, AddVariable@5=+2,
// SubVariable@7=-3 produces closed intervals (0,5,5), (5,7,7).
func TestVariableAggregation(t *testing.T) {
	root := NewRootType()
	vt := NewType("VT", "var", KindVariable, root)
	c := newTestContainer("c0", root)

	assert.Nil(t, c.SetVariable(vt, 0, 5))
	closed := c.AddVariable(vt, 5, 2)
	require.NotNil(t, closed)
	assert.Equal(t, VariableEntity{Start: 0, End: 5, Numeric: 5}, *closed)

	closed = c.SubVariable(vt, 7, 3)
	require.NotNil(t, closed)
	assert.Equal(t, VariableEntity{Start: 5, End: 7, Numeric: 7}, *closed)

	final := c.CloseVariable(vt, 10)
	require.NotNil(t, final)
	assert.Equal(t, VariableEntity{Start: 7, End: 10, Numeric: 4}, *final)
}

func TestAddVariableUninitializedStartsFromZero(t *testing.T) {
	root := NewRootType()
	vt := NewType("VT", "var", KindVariable, root)
	c := newTestContainer("c0", root)

	assert.Nil(t, c.AddVariable(vt, 0, 10))
	closed := c.CloseVariable(vt, 3)
	require.NotNil(t, closed)
	assert.Equal(t, VariableEntity{Start: 0, End: 3, Numeric: 10}, *closed)
}

func TestLinkPairingStartThenEnd(t *testing.T) {
	root := NewRootType()
	lt := NewType("LT", "link", KindLink, root)
	startC := newTestContainer("s", root)
	endC := newTestContainer("e", root)
	c := newTestContainer("c0", root)

	assert.Nil(t, c.StartLinkHalf(lt, 1, nil, startC, "k"))
	link := c.EndLinkHalf(lt, 4, nil, endC, "k")
	require.NotNil(t, link)
	assert.Equal(t, 1.0, link.StartTime)
	assert.Equal(t, 4.0, link.EndTime)
	assert.Same(t, startC, link.StartContainer)
	assert.Same(t, endC, link.EndContainer)
}

func TestLinkPairingEndThenStart(t *testing.T) {
	root := NewRootType()
	lt := NewType("LT", "link", KindLink, root)
	startC := newTestContainer("s", root)
	endC := newTestContainer("e", root)
	c := newTestContainer("c0", root)

	assert.Nil(t, c.EndLinkHalf(lt, 4, nil, endC, "k"))
	link := c.StartLinkHalf(lt, 1, nil, startC, "k")
	require.NotNil(t, link)
	assert.Equal(t, 1.0, link.StartTime)
	assert.Equal(t, 4.0, link.EndTime)
}

func TestFlushPendingLinksReportsOrphanEnd(t *testing.T) {
	root := NewRootType()
	lt := NewType("LT", "link", KindLink, root)
	endC := newTestContainer("e", root)
	c := newTestContainer("c0", root)

	c.EndLinkHalf(lt, 4, nil, endC, "orphan")

	var reported []string
	closed := c.FlushPendingLinks(10, func(typeID, key string) {
		reported = append(reported, typeID+"/"+key)
	})
	assert.Empty(t, closed)
	assert.Equal(t, []string{"LT/orphan"}, reported)
}

func TestFlushPendingLinksClosesOrphanStart(t *testing.T) {
	root := NewRootType()
	lt := NewType("LT", "link", KindLink, root)
	startC := newTestContainer("s", root)
	c := newTestContainer("c0", root)

	c.StartLinkHalf(lt, 2, nil, startC, "k")

	closed := c.FlushPendingLinks(9, nil)
	require.Len(t, closed, 1)
	assert.Equal(t, 2.0, closed[0].StartTime)
	assert.Equal(t, 9.0, closed[0].EndTime)
	assert.Nil(t, closed[0].EndContainer)
}

func TestCloseClosesOpenStatesAndVariables(t *testing.T) {
	root := NewRootType()
	st := NewType("ST", "state", KindState, root)
	vt := NewType("VT", "var", KindVariable, root)
	c := newTestContainer("c0", root)

	c.PushState(st, 0, &Value{ID: "A"})
	c.SetVariable(vt, 0, 5)

	c.Close(10)

	assert.True(t, c.IsDestroyed())
	require.NotNil(t, c.DestroyTime)
	assert.Equal(t, 10.0, *c.DestroyTime)
	assert.Empty(t, c.OpenStateTypeIDs())
	assert.Empty(t, c.OpenVariableTypeIDs())

	states := c.Entities(st, nil)
	require.Len(t, states, 1)
	assert.Equal(t, 10.0, states[0].(*StateEntity).End)
}
