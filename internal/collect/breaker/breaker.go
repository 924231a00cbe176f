// Package breaker tracks consecutive request failures across a run and
// halts new work once a threshold is reached. A long unattended batch
// job must not spend its whole budget retrying against a systemically
// broken API; N consecutive failures is a strong signal of a condition
// per-call retries cannot fix (revoked credentials, outage).
package breaker

// Breaker is a consecutive-failure circuit breaker. Once tripped it
// stays tripped for the remainder of the run.
type Breaker struct {
	threshold   int
	consecutive int
	tripped     bool
}

// New creates a breaker that trips after threshold consecutive failures.
func New(threshold int) *Breaker {
	if threshold <= 0 {
		threshold = 10
	}
	return &Breaker{threshold: threshold}
}

// Record updates the breaker with the outcome of one unit.
// Any success resets the consecutive counter; it never un-trips.
func (b *Breaker) Record(success bool) {
	if success {
		b.consecutive = 0
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.tripped = true
	}
}

// Tripped reports whether the breaker has tripped.
func (b *Breaker) Tripped() bool {
	return b.tripped
}

// Consecutive returns the current consecutive failure count.
func (b *Breaker) Consecutive() int {
	return b.consecutive
}

// Threshold returns the configured trip threshold.
func (b *Breaker) Threshold() int {
	return b.threshold
}
