package server

// taskHandle tracks one spawned session goroutine.
type taskHandle struct {
	done chan struct{}
}

func newTaskHandle() *taskHandle {
	return &taskHandle{done: make(chan struct{})}
}

// finish is deferred by the goroutine the handle belongs to.
func (h *taskHandle) finish() {
	close(h.done)
}

func (h *taskHandle) join() {
	<-h.done
}

// registry holds the handles of every session spawned by the accept loop.
// Handles are never removed by their own goroutine; the registry is drained
// once, at shutdown. Both methods are called from the goroutine running
// Serve, so no locking is needed.
type registry struct {
	handles []*taskHandle
}

func (r *registry) register(h *taskHandle) {
	r.handles = append(r.handles, h)
}

func (r *registry) len() int {
	return len(r.handles)
}

// drainAndJoinAll waits for every registered task to finish, releases the
// handles and returns how many were joined.
func (r *registry) drainAndJoinAll() int {
	n := len(r.handles)
	for i, h := range r.handles {
		h.join()
		r.handles[i] = nil
	}
	r.handles = nil
	return n
}
