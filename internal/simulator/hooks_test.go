package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetd.sh/internal/trace"
)

func TestHooksFireOnAcceptAndReject(t *testing.T) {
	var accepted []trace.Kind
	var rejected []trace.Kind
	var created []string

	s := New(WithHooks(Hooks{
		EventAccepted:    func(kind trace.Kind, _ time.Duration) { accepted = append(accepted, kind) },
		EventRejected:    func(kind trace.Kind, _ error) { rejected = append(rejected, kind) },
		ContainerCreated: func(id string) { created = append(created, id) },
	}))

	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")

	err := s.InputEvent(trace.NewLine(trace.DefineContainerType, map[string]string{
		trace.FieldType: "0", trace.FieldName: "Process", trace.FieldAlias: "P",
	}))
	require.Error(t, err)

	assert.Equal(t, []trace.Kind{trace.DefineContainerType, trace.CreateContainer}, accepted)
	assert.Equal(t, []trace.Kind{trace.DefineContainerType}, rejected)
	assert.Equal(t, []string{"p1"}, created)
}

func TestHooksFireOnOrphanLinkAndTimeAdvanced(t *testing.T) {
	var orphanTypes []string
	var times []float64

	s := New(WithHooks(Hooks{
		OrphanLinkDetected: func(typeID, key, containerID string) { orphanTypes = append(orphanTypes, typeID+"/"+key) },
		TimeAdvanced:       func(t float64) { times = append(times, t) },
	}))

	defineContainerType(t, s, "0", "Process", "P")
	createContainer(t, s, "P", "0", "proc-1", "p1", "0")
	require.NoError(t, s.InputEvent(trace.NewLine(trace.DefineLinkType, map[string]string{
		trace.FieldType: "0", trace.FieldName: "Link", trace.FieldAlias: "L",
		trace.FieldStartContainerType: "P", trace.FieldEndContainerType: "P",
	})))
	require.NoError(t, s.InputEvent(trace.NewLine(trace.EndLink, map[string]string{
		trace.FieldType: "L", trace.FieldContainer: "0", trace.FieldEndContainer: "p1",
		trace.FieldKey: "orphan", trace.FieldTime: "3",
	})))

	err := s.Finish()
	require.Error(t, err)

	assert.Equal(t, []string{"L/orphan"}, orphanTypes)
	assert.Contains(t, times, 3.0)
}
