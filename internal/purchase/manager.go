package purchase

import (
	"context"
	"sync"
	"time"

	"scrollvite/internal/client"
)

type flowKey struct {
	sessionID  string
	templateID string
}

type entry struct {
	mu      sync.Mutex
	flow    *Flow
	touched time.Time
}

// AttemptTTL is how long an attempt nobody finishes or cancels is kept.
const AttemptTTL = time.Hour

// Manager keeps at most one flow per session and template. Backend calls run
// under the flow's own lock, so one slow gateway does not stall other buyers.
type Manager struct {
	mu    sync.Mutex
	flows map[flowKey]*entry
	TTL   time.Duration
}

func NewManager() *Manager {
	return &Manager{flows: make(map[flowKey]*entry), TTL: AttemptTTL}
}

func (m *Manager) entry(k flowKey) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.flows[k]
	if !ok {
		e = &entry{flow: NewFlow(k.templateID), touched: time.Now()}
		m.flows[k] = e
	}
	return e
}

// settle forgets flows that are back at rest so the map does not grow.
func (m *Manager) settle(k flowKey, e *entry) {
	if s := e.flow.State(); s != Idle && s != Verified {
		return
	}
	m.mu.Lock()
	if m.flows[k] == e {
		delete(m.flows, k)
	}
	m.mu.Unlock()
}

func (m *Manager) run(k flowKey, fn func(f *Flow) (Outcome, error)) (Outcome, error) {
	e := m.entry(k)
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := fn(e.flow)
	e.touched = time.Now()
	m.settle(k, e)
	return out, err
}

func (m *Manager) Start(ctx context.Context, b Backend, sessionID, templateID string) (Outcome, error) {
	return m.run(flowKey{sessionID, templateID}, func(f *Flow) (Outcome, error) {
		return f.Start(ctx, b)
	})
}

func (m *Manager) Confirm(ctx context.Context, b Backend, sessionID, templateID string, conf client.PaymentConfirmation) (Outcome, error) {
	return m.run(flowKey{sessionID, templateID}, func(f *Flow) (Outcome, error) {
		return f.Confirm(ctx, b, conf)
	})
}

func (m *Manager) Cancel(sessionID, templateID string) (Outcome, error) {
	return m.run(flowKey{sessionID, templateID}, func(f *Flow) (Outcome, error) {
		return f.Cancel()
	})
}

// Open returns the checkout options of an attempt still waiting on the
// gateway, so a reloaded page can reopen it.
func (m *Manager) Open(sessionID, templateID string) *CheckoutOptions {
	m.mu.Lock()
	e, ok := m.flows[flowKey{sessionID, templateID}]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flow.Checkout()
}

// PurgeStale drops attempts last used before cutoff, such as a checkout the
// buyer closed without cancelling. Attempts busy with the gateway are kept.
func (m *Manager) PurgeStale(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.flows {
		if !e.mu.TryLock() {
			continue
		}
		if e.touched.Before(cutoff) {
			delete(m.flows, k)
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// PurgeExpired lets the store janitor sweep attempts older than TTL.
func (m *Manager) PurgeExpired(_ context.Context) (int64, error) {
	return int64(m.PurgeStale(time.Now().Add(-m.TTL))), nil
}
