// Package presence derives the UI's "peer connected" signal from the
// channel's membership reports.
package presence

// Tracker consumes presence sync member sets. The connected signal is
// binary: true iff at least two participants are present. All methods are
// called from the app's single event loop.
type Tracker struct {
	members   int
	connected bool
	onChange  func(connected bool)
}

// NewTracker creates a tracker. onChange fires only on transitions and may
// be nil.
func NewTracker(onChange func(connected bool)) *Tracker {
	return &Tracker{onChange: onChange}
}

// Sync records the current membership set.
func (t *Tracker) Sync(members []string) {
	t.members = len(members)
	connected := t.members >= 2
	if connected != t.connected {
		t.connected = connected
		if t.onChange != nil {
			t.onChange(connected)
		}
	}
}

// PeerConnected reports whether a peer is present besides this client.
func (t *Tracker) PeerConnected() bool {
	return t.connected
}

// Members returns the size of the last reported membership set.
func (t *Tracker) Members() int {
	return t.members
}
