package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
)

// PlayerView is the now-playing screen: episode details, a progress bar and
// chapter navigation.
type PlayerView struct {
	episode     *models.Episode
	state       models.PlaybackState
	duration    float64
	selectedIdx int
}

func NewPlayerView() *PlayerView {
	return &PlayerView{}
}

// SetEpisode switches the view to a new episode.
func (v *PlayerView) SetEpisode(episode *models.Episode) {
	if v.episode == nil || episode == nil || v.episode.ID != episode.ID {
		v.selectedIdx = 0
	}
	v.episode = episode
}

// SetState updates the playback snapshot shown by the view. duration is 0
// while still unknown.
func (v *PlayerView) SetState(state models.PlaybackState, duration float64) {
	v.state = state
	v.duration = duration
}

// SelectedChapter returns the chapter under the cursor, or nil.
func (v *PlayerView) SelectedChapter() *models.Chapter {
	if v.episode == nil || v.selectedIdx < 0 || v.selectedIdx >= len(v.episode.Chapters) {
		return nil
	}
	return &v.episode.Chapters[v.selectedIdx]
}

func (v *PlayerView) Draw(s tcell.Screen) {
	w, h := s.Size()

	drawText(s, 0, 0, tcell.StyleDefault.Foreground(ColorHeader).Bold(true), "Now Playing")
	for x := 0; x < w; x++ {
		s.SetContent(x, 1, '─', nil, tcell.StyleDefault.Foreground(ColorDimmed))
	}

	if v.episode == nil {
		drawText(s, 2, 3, tcell.StyleDefault.Foreground(ColorDimmed), "No episode selected")
		drawText(s, 2, 4, tcell.StyleDefault.Foreground(ColorDimmed), "Press Tab to open the episode list")
		return
	}

	drawText(s, 0, 2, tcell.StyleDefault.Bold(true), truncate(v.episode.Title, w))

	meta := ""
	if !v.episode.PublishedAt.IsZero() {
		meta = "Broadcast " + v.episode.PublishedAt.Format("02 Jan 2006")
	}
	if v.episode.DurationDisplay != "" {
		if meta != "" {
			meta += "  ·  "
		}
		meta += v.episode.DurationDisplay
	}
	drawText(s, 0, 3, tcell.StyleDefault.Foreground(ColorDimmed), truncate(meta, w))

	if chapter := v.episode.ChapterAt(v.state.PositionSeconds); chapter != nil {
		drawText(s, 0, 4, tcell.StyleDefault.Foreground(ColorCyan), truncate("Chapter: "+chapter.Title, w))
	}

	v.drawProgressBar(s, 6, w)
	v.drawChapters(s, 8, w, h)
}

func (v *PlayerView) drawProgressBar(s tcell.Screen, y, w int) {
	position := models.FormatSeconds(v.state.PositionSeconds)
	total := v.episode.DurationDisplay
	if v.duration > 0 {
		total = models.FormatSeconds(v.duration)
	}

	label := fmt.Sprintf("%s / %s", position, total)
	drawText(s, 0, y, tcell.StyleDefault, label)

	barStart := len(label) + 2
	barWidth := w - barStart - 1
	if barWidth < 10 {
		return
	}

	filled := 0
	if v.duration > 0 {
		filled = int(v.state.PositionSeconds / v.duration * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
	}

	for x := 0; x < barWidth; x++ {
		ch := '░'
		style := tcell.StyleDefault.Foreground(ColorDimmed)
		if x < filled {
			ch = '█'
			style = tcell.StyleDefault.Foreground(ColorPlaying)
		}
		s.SetContent(barStart+x, y, ch, nil, style)
	}
}

func (v *PlayerView) drawChapters(s tcell.Screen, top, w, h int) {
	if len(v.episode.Chapters) == 0 {
		return
	}

	drawText(s, 0, top, tcell.StyleDefault.Foreground(ColorHeader),
		fmt.Sprintf("Chapters (%d)", len(v.episode.Chapters)))

	current := v.episode.ChapterAt(v.state.PositionSeconds)
	maxRows := h - top - 1 - reservedRows

	for i := range v.episode.Chapters {
		if i >= maxRows {
			break
		}
		chapter := &v.episode.Chapters[i]

		style := tcell.StyleDefault
		if i == v.selectedIdx {
			style = style.Background(ColorSelection)
		}
		if current != nil && chapter.StartSeconds == current.StartSeconds {
			style = style.Foreground(ColorPlaying)
		}

		line := fmt.Sprintf("  %8s  %s", chapter.StartDisplay, chapter.Title)
		drawText(s, 0, top+1+i, style, truncate(line, w))
	}
}

func (v *PlayerView) HandleKey(ev *tcell.EventKey) bool {
	if v.episode == nil || len(v.episode.Chapters) == 0 {
		return false
	}

	switch ev.Key() {
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			if v.selectedIdx < len(v.episode.Chapters)-1 {
				v.selectedIdx++
				return true
			}
		case 'k':
			if v.selectedIdx > 0 {
				v.selectedIdx--
				return true
			}
		}
	case tcell.KeyDown:
		if v.selectedIdx < len(v.episode.Chapters)-1 {
			v.selectedIdx++
			return true
		}
	case tcell.KeyUp:
		if v.selectedIdx > 0 {
			v.selectedIdx--
			return true
		}
	}
	return false
}
