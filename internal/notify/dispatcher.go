package notify

import "sync"

type item struct {
	n     Notification
	clear bool
}

// Dispatcher delivers notifications to a Sink from a single goroutine, in the
// order they were dispatched. Dispatch and Clear never block on the sink.
type Dispatcher struct {
	sink Sink

	mu     sync.Mutex
	queue  []item
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewDispatcher starts a Dispatcher delivering to sink.
func NewDispatcher(sink Sink) *Dispatcher {
	d := &Dispatcher{
		sink: sink,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues n for delivery. It is a no-op after Close.
func (d *Dispatcher) Dispatch(n Notification) {
	d.push(item{n: n})
}

// Clear queues a history clear, ordered with the notifications around it.
// Sinks that do not implement Clearer ignore it.
func (d *Dispatcher) Clear() {
	d.push(item{clear: true})
}

// Close delivers everything already queued, then stops the delivery goroutine.
// It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.signal()
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) push(it item) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, it)
	d.signal()
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closed := d.closed
		d.mu.Unlock()

		for _, it := range batch {
			d.deliver(it)
		}

		// Nothing is queued once closed is observed, so the batch was the last one.
		if closed {
			return
		}
		<-d.wake
	}
}

func (d *Dispatcher) deliver(it item) {
	if it.clear {
		if c, ok := d.sink.(Clearer); ok {
			c.ClearHistory()
		}
		return
	}
	d.sink.Notify(it.n.Text, it.n.Level())
}
