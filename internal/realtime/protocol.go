// Package realtime implements the relay channel: a named room carrying
// broadcast messages and presence tracking between its subscribers.
// Wire format: JSON envelopes over a websocket.
package realtime

import "encoding/json"

// Envelope types.
const (
	TypeBroadcast = "broadcast" // client → relay → all subscribers
	TypeTrack     = "track"     // client → relay (presence announcement)
	TypePresence  = "presence"  // relay → clients (membership changed)
)

// EventPlaybackUpdate is the broadcast event carrying a PlaybackState.
const EventPlaybackUpdate = "playback-update"

// EventSync is the presence event sent whenever room membership changes.
const EventSync = "sync"

// Envelope is the single wire type. Which fields are set depends on Type:
// broadcasts carry Event, Sender and Payload; track carries Meta; presence
// carries Event and Members.
type Envelope struct {
	Type    string                  `json:"type"`
	Event   string                  `json:"event,omitempty"`
	Sender  string                  `json:"sender,omitempty"`
	Payload json.RawMessage         `json:"payload,omitempty"`
	Meta    *PresenceMeta           `json:"meta,omitempty"`
	Members map[string]PresenceMeta `json:"members,omitempty"`
}

// PresenceMeta is the arbitrary record a client announces itself with.
type PresenceMeta struct {
	User     string `json:"user"`
	OnlineAt string `json:"online_at"`
}
