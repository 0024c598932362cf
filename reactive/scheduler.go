package reactive

// SchedulerImpl batches watcher runs. A reactive write queues its dependent
// watchers and requests a flush; by default the flush happens synchronously,
// but a host event loop can register a request callback to defer it, which
// coalesces multiple writes in one host-loop turn into a single flush.
type SchedulerImpl struct {
	queue        []*Watcher
	queued       map[int]struct{}
	requestFlush func()
	flushing     bool
	requested    bool
}

var sched = &SchedulerImpl{queued: make(map[int]struct{})}

// Scheduler returns the package-level scheduler.
func Scheduler() *SchedulerImpl {
	return sched
}

// RegisterRequestFlush installs the host callback invoked when a flush is
// needed. The host must eventually call Flush on its own loop. Passing nil
// restores the default synchronous behavior.
func (s *SchedulerImpl) RegisterRequestFlush(fn func()) {
	s.requestFlush = fn
}

func (s *SchedulerImpl) queueWatcher(w *Watcher) {
	if _, ok := s.queued[w.id]; ok {
		return
	}
	s.queued[w.id] = struct{}{}
	s.queue = append(s.queue, w)
	if s.flushing {
		// Picked up by the flush loop already in progress.
		return
	}
	if s.requestFlush != nil {
		if !s.requested {
			s.requested = true
			s.requestFlush()
		}
		return
	}
	s.Flush()
}

// Flush runs all queued watchers. Watchers queued while flushing are picked
// up by the same pass, so one flush settles the whole cascade. A panicking
// watcher propagates to the caller, but the queue is reset on the way out so
// the scheduler stays usable.
func (s *SchedulerImpl) Flush() {
	if s.flushing {
		return
	}
	s.flushing = true
	s.requested = false
	defer func() {
		for _, w := range s.queue {
			delete(s.queued, w.id)
		}
		s.queue = s.queue[:0]
		s.flushing = false
	}()
	for i := 0; i < len(s.queue); i++ {
		w := s.queue[i]
		delete(s.queued, w.id)
		w.run()
	}
}
