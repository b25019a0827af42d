package game

import "sync"

// dispatcher delivers events to a bus from its own goroutine, in the order
// they were enqueued. Enqueue never blocks, so a slow subscriber cannot stall
// the session.
type dispatcher struct {
	bus  EventBus
	mu   sync.Mutex
	q    []Event
	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newDispatcher(bus EventBus) *dispatcher {
	return &dispatcher{
		bus:  bus,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (d *dispatcher) enqueue(e Event) {
	d.mu.Lock()
	d.q = append(d.q, e)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.flush()
		case <-d.quit:
			d.flush()
			return
		}
	}
}

func (d *dispatcher) flush() {
	for {
		d.mu.Lock()
		batch := d.q
		d.q = nil
		d.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			d.bus.Publish(e)
		}
	}
}

// close delivers whatever is queued and then exits. It does not wait, since
// a subscriber may be the caller.
func (d *dispatcher) close() {
	d.once.Do(func() { close(d.quit) })
}
