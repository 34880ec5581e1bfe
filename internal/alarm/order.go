package alarm

import "sync"

// deliveryOrder hands transitions to the notifier in the order the state
// changes were made. A ticket is taken while Controller.mu is held and
// delivered after it is released; deliver waits for every earlier ticket.
// Every ticket taken must be delivered.
type deliveryOrder struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
	turn uint64
}

type ticket struct {
	seq uint64
	n   Notifier
}

func (o *deliveryOrder) take(n Notifier) ticket {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := ticket{seq: o.next, n: n}
	o.next++
	return t
}

// deliver blocks until t is next in line, then notifies. Notifiers must not
// call back into the Controller.
func (o *deliveryOrder) deliver(t ticket, tr Transition) {
	o.mu.Lock()
	if o.cond == nil {
		o.cond = sync.NewCond(&o.mu)
	}
	for o.turn != t.seq {
		o.cond.Wait()
	}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.turn++
		o.cond.Broadcast()
		o.mu.Unlock()
	}()
	notify(t.n, tr)
}
