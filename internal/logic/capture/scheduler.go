package capture

// Scheduler runs continuations after the next frame has finished rendering.
// It is driven by the control goroutine; continuations cannot be cancelled.
type Scheduler struct {
	pending []func()
}

// AfterRender queues fn for the next FrameRendered call.
func (s *Scheduler) AfterRender(fn func()) {
	if fn != nil {
		s.pending = append(s.pending, fn)
	}
}

// Pending returns the number of queued continuations.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// FrameRendered runs every continuation queued before the call, in order.
// Continuations queued while running wait for the following frame.
func (s *Scheduler) FrameRendered() int {
	batch := s.pending
	s.pending = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}
