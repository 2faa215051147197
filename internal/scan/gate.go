// Package scan debounces the decode stream coming from the capture device.
// A physical QR code held in front of the camera decodes many times per
// second; after a successful registration the gate enters a quiet period
// during which further decodes are dropped.
package scan

import (
	"sync"
	"time"
)

// State is the gate's current mode.
type State string

const (
	Active   State = "active"
	Cooldown State = "cooldown"
)

// DefaultQuietPeriod matches the original register's re-scan suppression.
const DefaultQuietPeriod = 2 * time.Second

// Gate is the {Active, Cooldown(expiry)} machine. The expiry timer is the
// wall clock, injected for tests.
type Gate struct {
	mu     sync.Mutex
	quiet  time.Duration
	expiry time.Time
	now    func() time.Time
}

// NewGate creates a gate with the given quiet period (DefaultQuietPeriod
// when zero or negative).
func NewGate(quiet time.Duration) *Gate {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Gate{quiet: quiet, now: time.Now}
}

// Admit reports whether a freshly decoded code should be processed now.
// During cooldown every decode is dropped regardless of its content.
func (g *Gate) Admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.now().Before(g.expiry)
}

// Trip starts the quiet period. Called after a decode is accepted.
func (g *Gate) Trip() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expiry = g.now().Add(g.quiet)
}

// State returns the current mode.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.now().Before(g.expiry) {
		return Cooldown
	}
	return Active
}
