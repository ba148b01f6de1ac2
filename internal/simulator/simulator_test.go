package simulator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
	"fleetd.sh/internal/trace"
)

func defineContainerType(t *testing.T, s *Simulator, parentID, name, alias string) {
	t.Helper()
	ev := trace.NewLine(trace.DefineContainerType, map[string]string{
		trace.FieldType: parentID, trace.FieldName: name, trace.FieldAlias: alias,
	})
	require.NoError(t, s.InputEvent(ev))
}

func createContainer(t *testing.T, s *Simulator, typeID, parentID, name, alias, time string) {
	t.Helper()
	ev := trace.NewLine(trace.CreateContainer, map[string]string{
		trace.FieldType: typeID, trace.FieldContainer: parentID,
		trace.FieldName: name, trace.FieldAlias: alias, trace.FieldTime: time,
	})
	require.NoError(t, s.InputEvent(ev))
}

func TestTypeHierarchyDuplicateType(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")

	ev := trace.NewLine(trace.DefineContainerType, map[string]string{
		trace.FieldType: "0", trace.FieldName: "Process", trace.FieldAlias: "P",
	})
	err := s.InputEvent(ev)
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrDuplicateType, simerrors.GetKind(err))
}

func TestDefineTypeRejectsDuplicateNameUnderDistinctAlias(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")

	// Same name, different alias: distinct identifier but a name
	// collision, which §3.1/T1 forbids just as much as a duplicate id.
	ev := trace.NewLine(trace.DefineContainerType, map[string]string{
		trace.FieldType: "0", trace.FieldName: "Process", trace.FieldAlias: "P2",
	})
	err := s.InputEvent(ev)
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrDuplicateType, simerrors.GetKind(err))
}

func TestPushStateWithoutValueLeavesValueNil(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")
	require.NoError(t, s.InputEvent(trace.NewLine(trace.DefineStateType, map[string]string{
		trace.FieldType: "P", trace.FieldName: "State", trace.FieldAlias: "S",
	})))

	// No Value field at all, not even an empty one: must not declare
	// an inline value with an empty identifier.
	require.NoError(t, s.InputEvent(trace.NewLine(trace.PushState, map[string]string{
		trace.FieldType: "S", trace.FieldContainer: "p1", trace.FieldTime: "0",
	})))
	require.NoError(t, s.InputEvent(trace.NewLine(trace.PopState, map[string]string{
		trace.FieldType: "S", trace.FieldContainer: "p1", trace.FieldTime: "1",
	})))

	c, _ := s.ContainerByID("p1")
	typ, _ := s.TypeByID("S")
	entities := c.Entities(typ, nil)
	require.Len(t, entities, 1)
	st := entities[0].(*model.StateEntity)
	assert.Nil(t, st.Value)
	_, declared := typ.Value("")
	assert.False(t, declared, "empty-string value must not be declared on the type")
}

func TestCreateContainerRejectsDuplicateNameUnderDistinctAlias(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")

	ev := trace.NewLine(trace.CreateContainer, map[string]string{
		trace.FieldType: "P", trace.FieldContainer: "0",
		trace.FieldName: "proc-1", trace.FieldAlias: "p2", trace.FieldTime: "0",
	})
	err := s.InputEvent(ev)
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrDuplicateContainer, simerrors.GetKind(err))
}

func TestCreateAndDestroyContainer(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")

	c, ok := s.ContainerByID("p1")
	require.True(t, ok)
	assert.Equal(t, "proc-1", c.Name)
	assert.False(t, c.IsDestroyed())

	ev := trace.NewLine(trace.DestroyContainer, map[string]string{
		trace.FieldType: "P", trace.FieldName: "p1", trace.FieldTime: "10",
	})
	require.NoError(t, s.InputEvent(ev))
	assert.True(t, c.IsDestroyed())
}

func TestStateImbricationViaEvents(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")

	ev := trace.NewLine(trace.DefineStateType, map[string]string{
		trace.FieldType: "P", trace.FieldName: "State", trace.FieldAlias: "S",
	})
	require.NoError(t, s.InputEvent(ev))

	push := func(value, time string) {
		require.NoError(t, s.InputEvent(trace.NewLine(trace.PushState, map[string]string{
			trace.FieldType: "S", trace.FieldContainer: "p1", trace.FieldValue: value, trace.FieldTime: time,
		})))
	}
	pop := func(time string) {
		require.NoError(t, s.InputEvent(trace.NewLine(trace.PopState, map[string]string{
			trace.FieldType: "S", trace.FieldContainer: "p1", trace.FieldTime: time,
		})))
	}

	push("A", "0")
	push("B", "2")
	pop("3") // closes B at depth 1
	pop("4") // closes A at depth 0

	c, _ := s.ContainerByID("p1")
	typ, _ := s.TypeByID("S")
	entities := c.Entities(typ, nil)
	require.Len(t, entities, 2)

	b := entities[0].(*model.StateEntity)
	assert.Equal(t, 2.0, b.Start)
	assert.Equal(t, 3.0, b.End)
	assert.Equal(t, 1, b.Imbrication)

	a := entities[1].(*model.StateEntity)
	assert.Equal(t, 0.0, a.Start)
	assert.Equal(t, 4.0, a.End)
	assert.Equal(t, 0, a.Imbrication)
}

func TestVariableAggregationViaEvents(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")
	require.NoError(t, s.InputEvent(trace.NewLine(trace.DefineVariableType, map[string]string{
		trace.FieldType: "P", trace.FieldName: "Var", trace.FieldAlias: "V",
	})))

	require.NoError(t, s.InputEvent(trace.NewLine(trace.SetVariable, map[string]string{
		trace.FieldType: "V", trace.FieldContainer: "p1", trace.FieldValue: "5", trace.FieldTime: "0",
	})))
	require.NoError(t, s.InputEvent(trace.NewLine(trace.AddVariable, map[string]string{
		trace.FieldType: "V", trace.FieldContainer: "p1", trace.FieldValue: "2", trace.FieldTime: "5",
	})))
	require.NoError(t, s.InputEvent(trace.NewLine(trace.SubVariable, map[string]string{
		trace.FieldType: "V", trace.FieldContainer: "p1", trace.FieldValue: "3", trace.FieldTime: "7",
	})))

	require.NoError(t, s.Finish())

	c, _ := s.ContainerByID("p1")
	typ, _ := s.TypeByID("V")
	entities := c.Entities(typ, nil)
	require.Len(t, entities, 3)

	first := entities[0].(*model.VariableEntity)
	assert.Equal(t, model.VariableEntity{Start: 0, End: 5, Numeric: 5}, *first)
	second := entities[1].(*model.VariableEntity)
	assert.Equal(t, model.VariableEntity{Start: 5, End: 7, Numeric: 7}, *second)
	third := entities[2].(*model.VariableEntity)
	assert.Equal(t, float64(7), third.Start)
	assert.Equal(t, float64(4), third.Numeric)
}

func TestLinkPairingWithOrphanDetection(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")
	createContainer(t, s, "P", "0", "proc-2", "p2", "0")

	require.NoError(t, s.InputEvent(trace.NewLine(trace.DefineLinkType, map[string]string{
		trace.FieldType: "0", trace.FieldName: "Link", trace.FieldAlias: "L",
		trace.FieldStartContainerType: "P", trace.FieldEndContainerType: "P",
	})))

	require.NoError(t, s.InputEvent(trace.NewLine(trace.StartLink, map[string]string{
		trace.FieldType: "L", trace.FieldContainer: "0", trace.FieldStartContainer: "p1",
		trace.FieldKey: "k1", trace.FieldTime: "1",
	})))
	require.NoError(t, s.InputEvent(trace.NewLine(trace.EndLink, map[string]string{
		trace.FieldType: "L", trace.FieldContainer: "0", trace.FieldEndContainer: "p2",
		trace.FieldKey: "k1", trace.FieldTime: "4",
	})))

	// Orphan: an EndLink with no matching StartLink.
	require.NoError(t, s.InputEvent(trace.NewLine(trace.EndLink, map[string]string{
		trace.FieldType: "L", trace.FieldContainer: "0", trace.FieldEndContainer: "p2",
		trace.FieldKey: "orphan", trace.FieldTime: "6",
	})))

	err := s.Finish()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "orphan"))

	root := s.RootContainer()
	linkType, _ := s.TypeByID("L")
	links := root.Entities(linkType, nil)
	require.Len(t, links, 1)
	assert.Equal(t, 1.0, links[0].(*model.LinkEntity).StartTime)
	assert.Equal(t, 4.0, links[0].(*model.LinkEntity).EndTime)
}

func TestInlineValueDeclarationOnNewEvent(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")
	require.NoError(t, s.InputEvent(trace.NewLine(trace.DefineEventType, map[string]string{
		trace.FieldType: "P", trace.FieldName: "Ev", trace.FieldAlias: "E",
	})))

	require.NoError(t, s.InputEvent(trace.NewLine(trace.NewEvent, map[string]string{
		trace.FieldType: "E", trace.FieldContainer: "p1", trace.FieldValue: "unseen", trace.FieldTime: "1",
	})))

	typ, _ := s.TypeByID("E")
	v, ok := typ.Value("unseen")
	require.True(t, ok)
	assert.Equal(t, "unseen", v.Name)
}

func TestFinishIsIdempotent(t *testing.T) {
	s := New()
	require.NoError(t, s.Finish())
	require.NoError(t, s.Finish())
}

func TestInputEventAfterFinishIsRejected(t *testing.T) {
	s := New()
	require.NoError(t, s.Finish())

	err := s.InputEvent(trace.NewLine(trace.DefineContainerType, map[string]string{
		trace.FieldType: "0", trace.FieldName: "X", trace.FieldAlias: "X",
	}))
	require.Error(t, err)
}

func TestSetSelectionClampsAndValidates(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")
	createContainer(t, s, "P", "0", "proc-2", "p2", "20")
	require.NoError(t, s.Finish())

	require.NoError(t, s.SetSelection(5, 15))
	assert.Equal(t, 5.0, s.SelectionStart())
	assert.Equal(t, 15.0, s.SelectionEnd())

	// out-of-range selection clamps to [StartTime, EndTime]
	require.NoError(t, s.SetSelection(-100, 1000))
	assert.Equal(t, s.StartTime(), s.SelectionStart())
	assert.Equal(t, s.EndTime(), s.SelectionEnd())

	err := s.SetSelection(10, 5)
	require.Error(t, err)
}

func TestDumpTreeWritesHierarchy(t *testing.T) {
	s := New()
	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")

	var buf strings.Builder
	require.NoError(t, s.DumpTree(&buf))
	assert.Contains(t, buf.String(), "p1")
}
