package feed

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"context"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://itunes.apple.com/dtds/podcast-1.0.dtd" xmlns:psc="http://podlove.org/simple-chapters">
  <channel>
    <title>Test Podcast</title>
    <description>A test podcast</description>
    <link>https://example.com</link>
    <item>
      <guid>episode-1</guid>
      <title>Episode 1</title>
      <description><![CDATA[<p>First &amp; finest episode.</p>  <a href="https://example.com/notes">Show notes</a>]]></description>
      <enclosure url="https://example.com/episode1.mp3" type="audio/mpeg" length="1024"/>
      <pubDate>Mon, 15 Oct 2023 12:00:00 GMT</pubDate>
      <itunes:duration>30:00</itunes:duration>
      <psc:chapters version="1.2">
        <psc:chapter start="00:00:00" title="Intro"/>
        <psc:chapter start="05:30" title="Main Topic"/>
        <psc:chapter start="bogus" title="Broken"/>
      </psc:chapters>
    </item>
    <item>
      <guid>episode-2</guid>
      <title>Episode 2</title>
      <enclosure url="https://example.com/episode2.mp3" type="audio/mpeg" length="2048"/>
      <pubDate>Tue, 16 Oct 2023 12:00:00 GMT</pubDate>
      <duration>45:00</duration>
    </item>
    <item>
      <guid>episode-3-no-audio</guid>
      <title>No Audio</title>
      <pubDate>Wed, 17 Oct 2023 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No GUID</title>
      <enclosure url="https://example.com/orphan.mp3" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func TestParse(t *testing.T) {
	episodes, err := Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Failed to parse feed: %v", err)
	}

	// Items without guid or audio URL are dropped
	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(episodes))
	}

	ep1 := episodes[0]
	if ep1.ID != "episode-1" {
		t.Errorf("Expected ID 'episode-1', got '%s'", ep1.ID)
	}
	if ep1.Title != "Episode 1" {
		t.Errorf("Expected title 'Episode 1', got '%s'", ep1.Title)
	}
	if ep1.AudioURL != "https://example.com/episode1.mp3" {
		t.Errorf("Expected audio URL 'https://example.com/episode1.mp3', got '%s'", ep1.AudioURL)
	}
	if ep1.DurationDisplay != "30:00" {
		t.Errorf("Expected duration '30:00', got '%s'", ep1.DurationDisplay)
	}
	if ep1.PublishedAt.IsZero() {
		t.Error("Expected a parsed publish date")
	}

	expectedDesc := "First & finest episode. Show notes (https://example.com/notes)"
	if ep1.Description != expectedDesc {
		t.Errorf("Expected description '%s', got '%s'", expectedDesc, ep1.Description)
	}

	if len(ep1.Chapters) != 3 {
		t.Fatalf("Expected 3 chapters, got %d", len(ep1.Chapters))
	}
	if ep1.Chapters[0].StartSeconds != 0 {
		t.Errorf("Expected first chapter at 0s, got %v", ep1.Chapters[0].StartSeconds)
	}
	if ep1.Chapters[1].StartSeconds != 330 {
		t.Errorf("Expected '05:30' chapter at 330s, got %v", ep1.Chapters[1].StartSeconds)
	}
	if ep1.Chapters[1].StartDisplay != "05:30" {
		t.Errorf("Expected original display '05:30', got '%s'", ep1.Chapters[1].StartDisplay)
	}

	// Malformed chapter times default to zero
	if ep1.Chapters[2].StartSeconds != 0 {
		t.Errorf("Expected malformed chapter start 0, got %v", ep1.Chapters[2].StartSeconds)
	}

	// Plain duration tag fallback
	ep2 := episodes[1]
	if ep2.DurationDisplay != "45:00" {
		t.Errorf("Expected fallback duration '45:00', got '%s'", ep2.DurationDisplay)
	}
	if len(ep2.Chapters) != 0 {
		t.Errorf("Expected no chapters, got %d", len(ep2.Chapters))
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("this is not xml at all <<<")); err == nil {
		t.Error("Expected error for malformed feed text")
	}
}

func TestParse_EmptyChannel(t *testing.T) {
	episodes, err := Parse([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	if err != nil {
		t.Fatalf("Failed to parse empty channel: %v", err)
	}
	if len(episodes) != 0 {
		t.Errorf("Expected no episodes, got %d", len(episodes))
	}
}

func TestParseTimeToSeconds(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"00:15:20", 920},
		{"01:00:00", 3600},
		{"05:30", 330},
		{"0:05", 5},
		{"00:00:00", 0},
		{"", 0},
		{"garbage", 0},
		{"1:2:3:4", 0},
		{"aa:bb", 0},
		{"10", 0},
	}

	for _, tt := range tests {
		if got := ParseTimeToSeconds(tt.input); got != tt.expected {
			t.Errorf("ParseTimeToSeconds(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	episodes, err := Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Failed to fetch feed: %v", err)
	}
	if len(episodes) != 2 {
		t.Errorf("Expected 2 episodes, got %d", len(episodes))
	}
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := Fetch(context.Background(), server.URL); err == nil {
		t.Error("Expected error for server failure")
	}
}
