package scanner

import (
	"errors"
	"sync"

	"golang.org/x/net/html"
)

// RecordType classifies one change record.
type RecordType int

const (
	// RecordNodeAdded reports nodes inserted into the observed subtree.
	RecordNodeAdded RecordType = iota
	// RecordTextChanged reports an in-place edit of a text node.
	RecordTextChanged
)

// Record is one entry of a change batch delivered by the host facility.
type Record struct {
	Type   RecordType
	Added  []*html.Node // populated for RecordNodeAdded
	Target *html.Node   // populated for RecordTextChanged
}

// ObserveOptions selects what the notifier reports for a registration.
type ObserveOptions struct {
	Subtree       bool
	CharacterData bool
}

// Handle identifies one registration with a notifier.
type Handle int64

// Notifier is the host's change-notification facility. It is injected so the
// scanner can be driven deterministically by a synthetic notifier in tests
// and by the replay notifier in watch mode.
type Notifier interface {
	Register(target *html.Node, options ObserveOptions, fn func([]Record)) (Handle, error)
	Unregister(handle Handle) error
}

// ErrNotRegistered is returned by Unregister for an unknown handle.
var ErrNotRegistered = errors.New("handle is not registered")

// ManualNotifier is a synthetic Notifier driven by explicit Emit calls.
// Delivery is synchronous and in registration order.
type ManualNotifier struct {
	mu   sync.Mutex
	next Handle
	subs map[Handle]subscription

	// RegisterErr, when set, makes Register fail. Used to exercise the
	// host-facility failure path.
	RegisterErr error
}

type subscription struct {
	target  *html.Node
	options ObserveOptions
	fn      func([]Record)
}

func NewManualNotifier() *ManualNotifier {
	return &ManualNotifier{subs: make(map[Handle]subscription)}
}

func (m *ManualNotifier) Register(target *html.Node, options ObserveOptions, fn func([]Record)) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return 0, m.RegisterErr
	}
	m.next++
	m.subs[m.next] = subscription{target: target, options: options, fn: fn}
	return m.next, nil
}

func (m *ManualNotifier) Unregister(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[handle]; !ok {
		return ErrNotRegistered
	}
	delete(m.subs, handle)
	return nil
}

// Emit delivers one batch to every live registration.
func (m *ManualNotifier) Emit(records []Record) {
	m.mu.Lock()
	fns := make([]func([]Record), 0, len(m.subs))
	for h := Handle(1); h <= m.next; h++ {
		if sub, ok := m.subs[h]; ok {
			fns = append(fns, sub.fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(records)
	}
}

// Active reports the number of live registrations.
func (m *ManualNotifier) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
