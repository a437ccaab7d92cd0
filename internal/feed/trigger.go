package feed

import "time"

// Trigger gates infinite-scroll cursor advances. Scroll events are throttled
// by a fixed cooldown; a fired advance sets a busy flag that blocks
// re-entrancy until the append cycle commits or is superseded. The trigger
// is detached at the start of every render cycle and re-armed on commit
// rather than assumed stable.
type Trigger struct {
	cooldown   time.Duration
	multiplier float64
	now        func() time.Time

	armed    bool
	busy     bool
	lastEval time.Time
}

// NewTrigger creates a detached trigger.
func NewTrigger(cooldown time.Duration, multiplier float64) *Trigger {
	return &Trigger{cooldown: cooldown, multiplier: multiplier, now: time.Now}
}

// Allow reports whether this scroll event should be processed at all.
// Events inside the cooldown window are dropped.
func (t *Trigger) Allow() bool {
	if !t.armed {
		return false
	}
	now := t.now()
	if !t.lastEval.IsZero() && now.Sub(t.lastEval) < t.cooldown {
		return false
	}
	t.lastEval = now
	return true
}

// ShouldAdvance reports whether the cursor should advance given the current
// distance from the content bottom. The comparison is strictly less-than;
// a distance exactly at the threshold does not fire.
func (t *Trigger) ShouldAdvance(distanceFromBottom, clientHeight int, hasMore bool) bool {
	if !t.armed || t.busy || !hasMore {
		return false
	}
	threshold := int(t.multiplier * float64(clientHeight))
	if distanceFromBottom >= threshold {
		return false
	}
	t.busy = true
	return true
}

// Arm attaches the trigger after a commit and clears the busy flag.
func (t *Trigger) Arm() {
	t.armed = true
	t.busy = false
}

// Detach removes the trigger at the start of a render cycle or on teardown.
func (t *Trigger) Detach() {
	t.armed = false
	t.busy = false
}
