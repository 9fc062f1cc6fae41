package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
)

// EpisodeListView shows the feed's episodes with fuzzy search and a
// description window for the selection.
type EpisodeListView struct {
	episodes     []*models.Episode
	filtered     []*models.Episode
	highlights   map[string][]int
	currentID    string
	selectedIdx  int
	scrollOffset int
	screenHeight int
	search       *SearchState
}

// Height reserved at the bottom of the screen for the app's player and
// status lines.
const reservedRows = 2

const descriptionHeight = 9

func NewEpisodeListView(search *SearchState) *EpisodeListView {
	return &EpisodeListView{
		highlights: make(map[string][]int),
		search:     search,
	}
}

// SetEpisodes replaces the episode list, e.g. after a feed refresh.
func (v *EpisodeListView) SetEpisodes(episodes []*models.Episode) {
	v.episodes = episodes
	v.ApplyFilter()
}

// SetCurrentID marks the episode both clients are synced on.
func (v *EpisodeListView) SetCurrentID(id string) {
	v.currentID = id
}

// GetSelected returns the episode under the cursor, or nil.
func (v *EpisodeListView) GetSelected() *models.Episode {
	if v.selectedIdx < 0 || v.selectedIdx >= len(v.filtered) {
		return nil
	}
	return v.filtered[v.selectedIdx]
}

// ApplyFilter re-runs the fuzzy search over all episodes.
func (v *EpisodeListView) ApplyFilter() {
	v.filtered = v.filtered[:0]
	v.highlights = make(map[string][]int)

	for _, ep := range v.episodes {
		ok, match := v.search.MatchEpisode(ep.Title, ep.Description)
		if !ok {
			continue
		}
		v.filtered = append(v.filtered, ep)
		if len(match.Positions) > 0 {
			v.highlights[ep.ID] = match.Positions
		}
	}

	if v.selectedIdx >= len(v.filtered) {
		v.selectedIdx = len(v.filtered) - 1
	}
	if v.selectedIdx < 0 {
		v.selectedIdx = 0
	}
	v.ensureVisible()
}

func (v *EpisodeListView) Draw(s tcell.Screen) {
	w, h := s.Size()
	v.screenHeight = h

	title := "Episodes"
	if v.search.Active() {
		title = fmt.Sprintf("Episodes (%d/%d)", len(v.filtered), len(v.episodes))
	}
	drawText(s, 0, 0, tcell.StyleDefault.Foreground(ColorHeader).Bold(true), title)
	for x := 0; x < w; x++ {
		s.SetContent(x, 1, '─', nil, tcell.StyleDefault.Foreground(ColorDimmed))
	}

	listHeight := v.listHeight()
	for i := 0; i < listHeight && i+v.scrollOffset < len(v.filtered); i++ {
		idx := i + v.scrollOffset
		episode := v.filtered[idx]

		style := tcell.StyleDefault
		isSelected := idx == v.selectedIdx
		isCurrent := v.currentID != "" && episode.ID == v.currentID

		if isSelected {
			style = style.Background(ColorSelection).Foreground(ColorFg)
		} else if isCurrent {
			style = style.Foreground(ColorPlaying)
		}

		v.drawEpisodeRow(s, i+2, w, episode, isSelected, isCurrent, style)
	}

	if len(v.filtered) == 0 {
		msg := "No episodes loaded - press r to refresh the feed"
		if v.search.Active() {
			msg = "No episodes match the search"
		}
		drawText(s, 2, 3, tcell.StyleDefault.Foreground(ColorDimmed), msg)
	}

	v.drawDescriptionWindow(s, 2+listHeight, w)
}

func (v *EpisodeListView) drawEpisodeRow(s tcell.Screen, y, w int, episode *models.Episode, selected, current bool, style tcell.Style) {
	marker := "  "
	if current {
		marker = "♪ "
	}

	date := "          "
	if !episode.PublishedAt.IsZero() {
		date = episode.PublishedAt.Format("2006-01-02")
	}

	duration := fmt.Sprintf("%9s", episode.DurationDisplay)
	prefix := fmt.Sprintf("%s%s  %s  ", marker, date, duration)

	// Pad the full row so selection highlighting spans the width
	if selected {
		for x := 0; x < w; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}

	drawText(s, 0, y, style, prefix)

	titleWidth := w - len(prefix)
	if titleWidth <= 0 {
		return
	}
	title := truncate(episode.Title, titleWidth)

	if positions, ok := v.highlights[episode.ID]; ok && !selected {
		drawTextWithHighlight(s, len(prefix), y, style, title, positions)
	} else {
		drawText(s, len(prefix), y, style, title)
	}
}

func (v *EpisodeListView) drawDescriptionWindow(s tcell.Screen, top, w int) {
	for x := 0; x < w; x++ {
		s.SetContent(x, top, '─', nil, tcell.StyleDefault.Foreground(ColorDimmed))
	}

	episode := v.GetSelected()
	if episode == nil {
		return
	}

	drawText(s, 0, top+1, tcell.StyleDefault.Foreground(ColorHeader).Bold(true), truncate(episode.Title, w))

	if episode.Description == "" {
		drawText(s, 0, top+2, tcell.StyleDefault.Foreground(ColorDimmed), "No description")
		return
	}

	lines := wrapText(episode.Description, w)
	maxLines := descriptionHeight - 2
	for i, line := range lines {
		if i >= maxLines {
			break
		}
		drawText(s, 0, top+2+i, tcell.StyleDefault, line)
	}
}

func (v *EpisodeListView) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			if v.selectedIdx < len(v.filtered)-1 {
				v.selectedIdx++
				v.ensureVisible()
				return true
			}
		case 'k':
			if v.selectedIdx > 0 {
				v.selectedIdx--
				v.ensureVisible()
				return true
			}
		case 'g':
			v.selectedIdx = 0
			v.scrollOffset = 0
			return true
		case 'G':
			if len(v.filtered) > 0 {
				v.selectedIdx = len(v.filtered) - 1
				v.ensureVisible()
			}
			return true
		}
	case tcell.KeyDown:
		if v.selectedIdx < len(v.filtered)-1 {
			v.selectedIdx++
			v.ensureVisible()
			return true
		}
	case tcell.KeyUp:
		if v.selectedIdx > 0 {
			v.selectedIdx--
			v.ensureVisible()
			return true
		}
	case tcell.KeyCtrlF:
		return v.pageMove(1)
	case tcell.KeyCtrlB:
		return v.pageMove(-1)
	}
	return false
}

func (v *EpisodeListView) pageMove(direction int) bool {
	if len(v.filtered) == 0 {
		return false
	}

	pageSize := v.listHeight() - 1
	if pageSize < 1 {
		pageSize = 1
	}

	newIdx := v.selectedIdx + direction*pageSize
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(v.filtered) {
		newIdx = len(v.filtered) - 1
	}

	if newIdx == v.selectedIdx {
		return false
	}
	v.selectedIdx = newIdx
	v.ensureVisible()
	return true
}

func (v *EpisodeListView) listHeight() int {
	// Header rows, description window and the app's bottom lines all
	// come out of the screen height
	h := v.screenHeight - 2 - descriptionHeight - reservedRows
	if h < 3 {
		h = 3
	}
	return h
}

func (v *EpisodeListView) ensureVisible() {
	if len(v.filtered) == 0 || v.screenHeight == 0 {
		return
	}

	visibleHeight := v.listHeight()

	// Center the selection if possible
	targetOffset := v.selectedIdx - visibleHeight/2

	maxOffset := len(v.filtered) - visibleHeight
	if maxOffset < 0 {
		maxOffset = 0
	}

	if targetOffset < 0 {
		v.scrollOffset = 0
	} else if targetOffset > maxOffset {
		v.scrollOffset = maxOffset
	} else {
		v.scrollOffset = targetOffset
	}
}
