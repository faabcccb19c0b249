package service

import (
	"sync"

	"valuation-lab/internal/domain"
)

const subscriberBuffer = 16

// Update is a progress notification for one run.
type Update struct {
	ID       string           `json:"id"`
	Fraction float64          `json:"fraction"`
	Status   domain.RunStatus `json:"status"`
	Error    string           `json:"error,omitempty"`
}

// tracker fans progress of one run out to subscribers.
type tracker struct {
	mu     sync.Mutex
	id     string
	last   Update
	subs   map[chan Update]struct{}
	closed bool
}

func newTracker() *tracker {
	return &tracker{
		last: Update{Status: domain.StatusRunning},
		subs: make(map[chan Update]struct{}),
	}
}

func (t *tracker) setID(id string) {
	t.mu.Lock()
	t.id = id
	t.last.ID = id
	t.mu.Unlock()
}

func (t *tracker) progress(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last.Fraction = fraction
	t.broadcast()
}

func (t *tracker) finish(status domain.RunStatus, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last.Status = status
	if status == domain.StatusCompleted {
		t.last.Fraction = 1
	}
	if err != nil {
		t.last.Error = err.Error()
	}
	u := t.last
	u.ID = t.id
	for ch := range t.subs {
		// The terminal update replaces the oldest pending one on a full buffer.
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- u
		}
		close(ch)
	}
	t.subs = nil
	t.closed = true
}

// broadcast drops updates for subscribers that are not keeping up. Caller holds mu.
func (t *tracker) broadcast() {
	u := t.last
	u.ID = t.id
	for ch := range t.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// subscribe returns a channel primed with the latest update. The channel is closed
// after the terminal update.
func (t *tracker) subscribe() (<-chan Update, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	ch <- t.last
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
}
