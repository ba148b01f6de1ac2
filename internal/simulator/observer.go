package simulator

// Observer is the injected notification surface (§6.2, §9 "Observer
// callbacks"). Any field may be left nil; the simulator checks before
// calling it. This is deliberately a plain struct of function pointers
// rather than a global signal/event bus: the Simulator owns at most
// one Observer, set at construction or via SetObserver.
type Observer struct {
	HierarchyChanged  func()
	TimeLimitsChanged func()
	SelectionChanged  func()
}

// SetObserver installs (or replaces) the simulator's notification sink.
func (s *Simulator) SetObserver(o Observer) {
	s.observer = o
}

func (s *Simulator) notifyHierarchyChanged() {
	if s.observer.HierarchyChanged != nil {
		s.observer.HierarchyChanged()
	}
}

func (s *Simulator) notifyTimeLimitsChanged() {
	if s.observer.TimeLimitsChanged != nil {
		s.observer.TimeLimitsChanged()
	}
}

func (s *Simulator) notifySelectionChanged() {
	if s.observer.SelectionChanged != nil {
		s.observer.SelectionChanged()
	}
}
