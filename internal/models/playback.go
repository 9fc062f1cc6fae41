package models

import (
	"time"

	"github.com/google/uuid"
)

// PlaybackState is the shared playback position agreed on by both
// participants. Each client holds its own replica which may transiently
// diverge; OriginID records which client produced the value.
type PlaybackState struct {
	EpisodeID       string    `json:"episodeGuid"`
	IsPlaying       bool      `json:"isPlaying"`
	PositionSeconds float64   `json:"currentTime"`
	UpdatedAt       time.Time `json:"lastUpdated"`
	OriginID        string    `json:"updatedBy"`
}

// SameEpisode reports whether both states refer to the same episode.
func (s PlaybackState) SameEpisode(other PlaybackState) bool {
	return s.EpisodeID == other.EpisodeID
}

// Equal reports whether two states describe the same playback moment.
// UpdatedAt and OriginID are deliberately excluded: two clients reporting
// the identical position are in agreement.
func (s PlaybackState) Equal(other PlaybackState) bool {
	return s.EpisodeID == other.EpisodeID &&
		s.IsPlaying == other.IsPlaying &&
		s.PositionSeconds == other.PositionSeconds
}

// NewClientID generates the process-lifetime identity used to tell local
// state changes apart from remote ones. It is never persisted and carries
// no authentication meaning.
func NewClientID() string {
	return uuid.New().String()
}
