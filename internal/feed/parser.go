package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
)

type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

type Channel struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	Items       []Item `xml:"item"`
}

type Item struct {
	GUID           string        `xml:"guid"`
	Title          string        `xml:"title"`
	Description    string        `xml:"description"`
	Enclosure      Enclosure     `xml:"enclosure"`
	PubDate        string        `xml:"pubDate"`
	ITunesDuration string        `xml:"itunes:duration"`
	Duration       string        `xml:"duration"`
	Chapters       []ChapterElem `xml:"chapters>chapter"`
}

type Enclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}

type ChapterElem struct {
	Start string `xml:"start,attr"`
	Title string `xml:"title,attr"`
}

// Parse converts raw feed text into the ordered episode list. It is a pure
// function: no network access, no side effects. Items without a guid or an
// enclosure URL are dropped without comment; feed data is best-effort and
// partial success is the norm.
func Parse(data []byte) ([]*models.Episode, error) {
	var rss RSS
	if err := xml.Unmarshal(data, &rss); err != nil {
		return nil, fmt.Errorf("failed to parse RSS: %w", err)
	}

	episodes := make([]*models.Episode, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		guid := strings.TrimSpace(item.GUID)
		audioURL := strings.TrimSpace(item.Enclosure.URL)
		if guid == "" || audioURL == "" {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Untitled Episode"
		}

		// Prefer the iTunes duration, fall back to a plain duration tag
		duration := item.ITunesDuration
		if duration == "" {
			duration = item.Duration
		}
		if duration == "" {
			duration = "00:00:00"
		}

		episode := &models.Episode{
			ID:              guid,
			Title:           title,
			AudioURL:        audioURL,
			DurationDisplay: duration,
			Description:     FlattenDescription(item.Description),
		}

		if pubDate, err := parseRFC2822Date(item.PubDate); err == nil {
			episode.PublishedAt = pubDate
		}

		for _, ch := range item.Chapters {
			start := ch.Start
			if start == "" {
				start = "00:00:00"
			}
			chapterTitle := ch.Title
			if chapterTitle == "" {
				chapterTitle = "Untitled"
			}
			episode.Chapters = append(episode.Chapters, models.Chapter{
				StartSeconds: ParseTimeToSeconds(start),
				Title:        chapterTitle,
				StartDisplay: start,
			})
		}

		episodes = append(episodes, episode)
	}

	return episodes, nil
}

// Fetch retrieves the feed and parses it. Callers treat any error here as
// transient: log it and leave the episode list empty.
func Fetch(ctx context.Context, url string) ([]*models.Episode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	return Parse(data)
}

// ParseTimeToSeconds converts "HH:MM:SS" or "MM:SS" into a second count.
// Malformed values yield 0.
func ParseTimeToSeconds(timeStr string) float64 {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")

	var hours, minutes int
	var seconds float64
	var err error

	switch len(parts) {
	case 2: // MM:SS
		if minutes, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if seconds, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return 0
		}
	case 3: // HH:MM:SS
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0
		}
		if seconds, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0
		}
	default:
		return 0
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds
}

func parseRFC2822Date(dateStr string) (time.Time, error) {
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 -0700",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
