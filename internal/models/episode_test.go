package models

import (
	"testing"
)

func TestChapterAt(t *testing.T) {
	episode := &Episode{
		ID:    "ep1",
		Title: "Test Episode",
		Chapters: []Chapter{
			{StartSeconds: 0, Title: "Intro", StartDisplay: "00:00:00"},
			{StartSeconds: 120, Title: "Topic A", StartDisplay: "00:02:00"},
			{StartSeconds: 600, Title: "Topic B", StartDisplay: "00:10:00"},
		},
	}

	tests := []struct {
		name     string
		position float64
		expected string
	}{
		{"at start", 0, "Intro"},
		{"within first chapter", 60, "Intro"},
		{"exactly on boundary", 120, "Topic A"},
		{"within second chapter", 599, "Topic A"},
		{"past last chapter start", 4000, "Topic B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := episode.ChapterAt(tt.position)
			if ch == nil {
				t.Fatal("Expected a chapter, got nil")
			}
			if ch.Title != tt.expected {
				t.Errorf("Expected chapter '%s', got '%s'", tt.expected, ch.Title)
			}
		})
	}
}

func TestChapterAt_UnsortedChapters(t *testing.T) {
	// Feeds do not guarantee chapter ordering
	episode := &Episode{
		Chapters: []Chapter{
			{StartSeconds: 600, Title: "Topic B"},
			{StartSeconds: 0, Title: "Intro"},
			{StartSeconds: 120, Title: "Topic A"},
		},
	}

	ch := episode.ChapterAt(300)
	if ch == nil {
		t.Fatal("Expected a chapter, got nil")
	}
	if ch.Title != "Topic A" {
		t.Errorf("Expected 'Topic A' for unsorted chapters, got '%s'", ch.Title)
	}
}

func TestChapterAt_NoChapters(t *testing.T) {
	episode := &Episode{ID: "ep1"}
	if ch := episode.ChapterAt(10); ch != nil {
		t.Errorf("Expected nil for episode without chapters, got '%s'", ch.Title)
	}
}

func TestChapterAt_PositionBeforeAllChapters(t *testing.T) {
	episode := &Episode{
		Chapters: []Chapter{
			{StartSeconds: 30, Title: "Late Intro"},
			{StartSeconds: 300, Title: "Main"},
		},
	}

	// Falls back to the first listed chapter
	ch := episode.ChapterAt(5)
	if ch == nil {
		t.Fatal("Expected a chapter, got nil")
	}
	if ch.Title != "Late Intro" {
		t.Errorf("Expected 'Late Intro', got '%s'", ch.Title)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59.9, "0:59"},
		{60, "1:00"},
		{330, "5:30"},
		{3661, "61:01"},
		{-10, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.seconds); got != tt.expected {
			t.Errorf("FormatSeconds(%v) = '%s', expected '%s'", tt.seconds, got, tt.expected)
		}
	}
}

func TestPlaybackStateEqual(t *testing.T) {
	a := PlaybackState{EpisodeID: "ep1", IsPlaying: true, PositionSeconds: 42}
	b := PlaybackState{EpisodeID: "ep1", IsPlaying: true, PositionSeconds: 42, OriginID: "other"}

	if !a.Equal(b) {
		t.Error("States differing only in origin should be equal")
	}

	b.PositionSeconds = 43
	if a.Equal(b) {
		t.Error("States with different positions should not be equal")
	}

	c := PlaybackState{EpisodeID: "ep2", IsPlaying: true, PositionSeconds: 42}
	if a.Equal(c) {
		t.Error("States with different episodes should not be equal")
	}
	if a.SameEpisode(c) {
		t.Error("SameEpisode should be false for different episode IDs")
	}
}

func TestNewClientID(t *testing.T) {
	id1 := NewClientID()
	id2 := NewClientID()

	if id1 == "" {
		t.Error("Expected non-empty client ID")
	}
	if id1 == id2 {
		t.Error("Expected unique client IDs per call")
	}
}
