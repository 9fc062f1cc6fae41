package models

import (
	"fmt"
	"time"
)

// Episode is a single entry from the podcast feed. Episodes are created once
// per feed parse and never mutated afterwards; identity is the ID.
type Episode struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	AudioURL        string    `json:"audioUrl"`
	DurationDisplay string    `json:"duration"`
	PublishedAt     time.Time `json:"publishedAt"`
	Description     string    `json:"description,omitempty"`
	Chapters        []Chapter `json:"chapters,omitempty"`
}

// Chapter is a named position inside an episode. StartDisplay keeps the
// original textual representation from the feed (e.g. "00:15:20").
type Chapter struct {
	StartSeconds float64 `json:"start"`
	Title        string  `json:"title"`
	StartDisplay string  `json:"startFormatted"`
}

// ChapterAt returns the chapter covering the given position, i.e. the last
// chapter whose start does not exceed it. Chapter lists from feeds are not
// guaranteed to be sorted, so every entry is considered.
func (e *Episode) ChapterAt(seconds float64) *Chapter {
	if len(e.Chapters) == 0 {
		return nil
	}

	best := -1
	for i := range e.Chapters {
		if e.Chapters[i].StartSeconds > seconds {
			continue
		}
		if best < 0 || e.Chapters[i].StartSeconds >= e.Chapters[best].StartSeconds {
			best = i
		}
	}

	if best < 0 {
		return &e.Chapters[0]
	}
	return &e.Chapters[best]
}

// FormatSeconds renders a position as m:ss for display.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}
