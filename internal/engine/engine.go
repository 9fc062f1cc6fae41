// Package engine reconciles locally-driven playback actions with
// remotely-broadcast state updates. It is the single authority for deciding
// when a local action must be published and when an inbound remote message
// overwrites local state, and it guarantees the two clients never enter a
// remote→local→remote feedback loop.
package engine

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"

	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
)

const (
	// EchoSuppressWindow is how long outbound publication stays gated
	// after a remote update is applied. Programmatically driving the
	// player fires the same notifications a user action would; without
	// the window those echoes would be re-broadcast forever.
	EchoSuppressWindow = 100 * time.Millisecond

	// DriftTolerance is the position gap, in seconds, above which a
	// remote position for the same episode force-corrects the local one.
	// Smaller gaps are left alone to avoid audible micro-seeks.
	DriftTolerance = 2.0

	// PublishIntervalSeconds throttles routine position ticks: a tick is
	// only published when floor(position) is a multiple of this.
	PublishIntervalSeconds = 3
)

// Driver receives playback decisions. Commands are fire-and-forget; the
// driver reports asynchronous failures out-of-band.
type Driver interface {
	Load(episode *models.Episode)
	Play()
	Pause()
	SeekTo(seconds float64)
}

// Publisher sends the local state to the peer.
type Publisher interface {
	Publish(state models.PlaybackState) error
}

// Engine owns the only mutable PlaybackState replica on this client. All
// methods must be called from a single goroutine; the app's event loop
// delivers user actions, player ticks and remote messages in order.
type Engine struct {
	clientID string
	clock    clock.Clock
	driver   Driver
	pub      Publisher
	logger   *log.Logger

	episodes      map[string]*models.Episode
	state         models.PlaybackState
	suppressUntil time.Time

	onWarning func(msg string)
}

// New creates an engine in the Idle state: no episode, paused, position 0.
func New(clientID string, driver Driver, pub Publisher, clk clock.Clock, logger *log.Logger) *Engine {
	return &Engine{
		clientID: clientID,
		clock:    clk,
		driver:   driver,
		pub:      pub,
		logger:   logger,
		episodes: make(map[string]*models.Episode),
	}
}

// SetOnWarning registers a callback for non-fatal conditions the UI should
// surface (e.g. a remote update referencing an unknown episode).
func (e *Engine) SetOnWarning(fn func(msg string)) {
	e.onWarning = fn
}

// SetEpisodes replaces the episode index, e.g. after a feed refresh.
func (e *Engine) SetEpisodes(episodes []*models.Episode) {
	e.episodes = make(map[string]*models.Episode, len(episodes))
	for _, ep := range episodes {
		e.episodes[ep.ID] = ep
	}
}

// State returns the current local replica.
func (e *Engine) State() models.PlaybackState {
	return e.state
}

// Episode returns the currently selected episode, or nil when idle.
func (e *Engine) Episode() *models.Episode {
	if e.state.EpisodeID == "" {
		return nil
	}
	return e.episodes[e.state.EpisodeID]
}

// HandlePlay processes a user play action. The intent to play is
// authoritative and synchronized even if local playback fails to start.
func (e *Engine) HandlePlay() {
	if e.state.EpisodeID == "" {
		return
	}
	e.driver.Play()
	e.state.IsPlaying = true
	e.publish()
}

// HandlePause processes a user pause action.
func (e *Engine) HandlePause() {
	if e.state.EpisodeID == "" {
		return
	}
	e.driver.Pause()
	e.state.IsPlaying = false
	e.publish()
}

// HandleSeek processes a discrete user seek to an absolute position.
// Out-of-range targets are clamped by the driver, not here.
func (e *Engine) HandleSeek(seconds float64) {
	if e.state.EpisodeID == "" {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	e.driver.SeekTo(seconds)
	e.state.PositionSeconds = seconds
	e.publish()
}

// HandleSelect switches to a new episode: position resets to zero and
// playback starts paused.
func (e *Engine) HandleSelect(episodeID string) {
	ep, ok := e.episodes[episodeID]
	if !ok {
		e.warnf("unknown episode selected")
		return
	}

	e.driver.Load(ep)
	e.state.EpisodeID = ep.ID
	e.state.PositionSeconds = 0
	e.state.IsPlaying = false
	e.publish()
}

// HandleTick processes a periodic position report from the player. The
// position always updates the local replica; it is only published when the
// throttle interval lines up.
func (e *Engine) HandleTick(seconds float64) {
	if e.state.EpisodeID == "" {
		return
	}
	e.state.PositionSeconds = seconds

	if int(math.Floor(seconds))%PublishIntervalSeconds == 0 {
		e.publish()
	}
}

// HandleRemote applies a broadcast from the peer. Messages carrying this
// client's own origin identity are ignored entirely; everything else opens
// the echo suppression window before touching the driver.
func (e *Engine) HandleRemote(remote models.PlaybackState) {
	if remote.OriginID == e.clientID {
		return
	}

	// Gate outbound publication before driving the player: the driver
	// notifications caused by the commands below must not re-broadcast.
	e.suppressUntil = e.clock.Now().Add(EchoSuppressWindow)

	if !remote.SameEpisode(e.state) {
		// Different episode: full replace. The existing position is
		// meaningless, so the remote one applies unconditionally even
		// when the new episode's duration is not yet known.
		if ep, ok := e.episodes[remote.EpisodeID]; ok {
			e.driver.Load(ep)
			e.driver.SeekTo(remote.PositionSeconds)
		} else if remote.EpisodeID != "" {
			e.warnf("peer selected an episode missing from the local feed")
		}
		e.state.PositionSeconds = remote.PositionSeconds
	} else {
		// Same episode: only correct position when drift is audible
		drift := math.Abs(e.state.PositionSeconds - remote.PositionSeconds)
		if drift > DriftTolerance {
			e.driver.SeekTo(remote.PositionSeconds)
			e.state.PositionSeconds = remote.PositionSeconds
		}
	}

	if remote.IsPlaying {
		e.driver.Play()
	} else {
		e.driver.Pause()
	}

	e.state.EpisodeID = remote.EpisodeID
	e.state.IsPlaying = remote.IsPlaying
	e.state.UpdatedAt = remote.UpdatedAt
	e.state.OriginID = remote.OriginID
}

// publish stamps and sends the local state unless the echo suppression
// window is open, in which case the mutation stays local.
func (e *Engine) publish() {
	e.state.UpdatedAt = e.clock.Now()
	e.state.OriginID = e.clientID

	if e.clock.Now().Before(e.suppressUntil) {
		return
	}

	if err := e.pub.Publish(e.state); err != nil {
		// Transient transport failure: abandoned, self-corrects at the
		// next tick or discrete action
		e.logger.Warn("failed to publish playback state", "err", err)
	}
}

func (e *Engine) warnf(msg string) {
	e.logger.Warn(msg)
	if e.onWarning != nil {
		e.onWarning(msg)
	}
}
