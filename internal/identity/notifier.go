package identity

import (
	"sync"

	"github.com/google/uuid"
)

type TransitionKind string

const (
	// SignedIn and SignedOut mark an account moving between zero and one or
	// more active sessions.
	SignedIn  TransitionKind = "signed_in"
	SignedOut TransitionKind = "signed_out"
	// SessionEnded fires for every individual session that is revoked.
	SessionEnded TransitionKind = "session_ended"
)

// Transition is published once when an account becomes signed in and at most
// once when it stops being signed in. SessionID names the session that caused
// the change.
type Transition struct {
	Kind      TransitionKind `json:"kind"`
	AccountID uuid.UUID      `json:"account_id"`
	SessionID uuid.UUID      `json:"session_id"`
}

type subscriber struct {
	id int
	fn func(Transition)
}

// Notifier fans transitions out to subscribers in subscription order
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns a function that removes it
func (n *Notifier) Subscribe(fn func(Transition)) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *Notifier) publish(t Transition) {
	n.mu.RLock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		s.fn(t)
	}
}
