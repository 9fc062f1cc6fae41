package engine

import "github.com/flixoflax/lto.lachsnudel.space/internal/models"

// Event is anything the engine reacts to. The app funnels user actions,
// player ticks and remote messages into one ordered queue of these, which
// preserves the single-threaded ordering guarantee without leaning on any
// particular runtime's event-loop semantics.
type Event interface {
	isEvent()
}

// PlayEvent is a discrete user play action.
type PlayEvent struct{}

// PauseEvent is a discrete user pause action.
type PauseEvent struct{}

// SeekEvent is a discrete user seek to an absolute position.
type SeekEvent struct {
	Seconds float64
}

// SelectEvent is a user episode selection.
type SelectEvent struct {
	EpisodeID string
}

// TickEvent is a periodic position report from the player.
type TickEvent struct {
	Seconds float64
}

// RemoteEvent is an inbound playback broadcast from the peer.
type RemoteEvent struct {
	State models.PlaybackState
}

func (PlayEvent) isEvent()   {}
func (PauseEvent) isEvent()  {}
func (SeekEvent) isEvent()   {}
func (SelectEvent) isEvent() {}
func (TickEvent) isEvent()   {}
func (RemoteEvent) isEvent() {}

// Apply dispatches a single event. Must be called from the same goroutine
// as every other engine method.
func (e *Engine) Apply(ev Event) {
	switch ev := ev.(type) {
	case PlayEvent:
		e.HandlePlay()
	case PauseEvent:
		e.HandlePause()
	case SeekEvent:
		e.HandleSeek(ev.Seconds)
	case SelectEvent:
		e.HandleSelect(ev.EpisodeID)
	case TickEvent:
		e.HandleTick(ev.Seconds)
	case RemoteEvent:
		e.HandleRemote(ev.State)
	}
}
