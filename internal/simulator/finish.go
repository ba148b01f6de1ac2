package simulator

import (
	"github.com/hashicorp/go-multierror"

	"fleetd.sh/internal/model"
	"fleetd.sh/internal/simerrors"
)

// Finish closes the model at its effective end time (§4.5): every
// still-open State/Variable interval is closed, every still-pending
// link half is resolved (a pending Start closes with a nil
// EndContainer sentinel; a pending End is reported as
// ErrOrphanLinkEnd), and the selection window is reset to the full
// trace span. It is idempotent (R2): calling it twice is a no-op the
// second time.
func (s *Simulator) Finish() error {
	if s.finished {
		return nil
	}

	end := s.effectiveEndTime()
	s.RecursiveDestroyAt(end)

	var result *multierror.Error
	walkContainers(s.rootContainer, func(c *model.Container) {
		c.FlushPendingLinks(end, func(typeID, key string) {
			s.fireOrphanLinkDetected(typeID, key, c.ID)
			result = multierror.Append(result, simerrors.Newf(simerrors.ErrOrphanLinkEnd,
				"unmatched EndLink for type %q key %q on container %q", typeID, key, c.ID))
		})
	})

	s.finished = true
	s.selectionStart = s.traceStart()
	s.selectionEnd = end

	s.notifyHierarchyChanged()
	s.notifyTimeLimitsChanged()
	s.notifySelectionChanged()

	return result.ErrorOrNil()
}

// traceStart is the root container's creation time, the earliest
// instant the model can represent.
func (s *Simulator) traceStart() float64 {
	return s.rootContainer.CreateTime
}

func walkContainers(c *model.Container, fn func(*model.Container)) {
	fn(c)
	for _, child := range c.Children() {
		walkContainers(child, fn)
	}
}
