package ui

import (
	"github.com/gdamore/tcell/v2"
)

type HelpDialog struct {
	visible      bool
	scrollOffset int
}

func NewHelpDialog() *HelpDialog {
	return &HelpDialog{}
}

func (h *HelpDialog) Show() {
	h.visible = true
	h.scrollOffset = 0
}

func (h *HelpDialog) Hide() {
	h.visible = false
}

func (h *HelpDialog) IsVisible() bool {
	return h.visible
}

func (h *HelpDialog) Draw(s tcell.Screen) {
	if !h.visible {
		return
	}

	w, screenHeight := s.Size()
	helpLines := h.getHelpContent()

	maxLineWidth := 0
	for _, line := range helpLines {
		if len(line) > maxLineWidth {
			maxLineWidth = len(line)
		}
	}

	dialogWidth := maxLineWidth + 4
	if dialogWidth > w-4 {
		dialogWidth = w - 4
	}
	if dialogWidth < 40 {
		dialogWidth = 40
	}

	dialogHeight := len(helpLines) + 6
	if dialogHeight > screenHeight-4 {
		dialogHeight = screenHeight - 4
	}
	if dialogHeight < 10 {
		dialogHeight = 10
	}

	startX := (w - dialogWidth) / 2
	startY := (screenHeight - dialogHeight) / 2
	if startX < 1 {
		startX = 1
	}
	if startY < 1 {
		startY = 1
	}

	dialogStyle := tcell.StyleDefault.Background(ColorBgHighlight).Foreground(ColorFg)
	for y := startY; y < startY+dialogHeight; y++ {
		for x := startX; x < startX+dialogWidth; x++ {
			s.SetContent(x, y, ' ', nil, dialogStyle)
		}
	}

	for x := startX; x < startX+dialogWidth; x++ {
		switch x {
		case startX:
			s.SetContent(x, startY, '┌', nil, dialogStyle)
			s.SetContent(x, startY+dialogHeight-1, '└', nil, dialogStyle)
		case startX + dialogWidth - 1:
			s.SetContent(x, startY, '┐', nil, dialogStyle)
			s.SetContent(x, startY+dialogHeight-1, '┘', nil, dialogStyle)
		default:
			s.SetContent(x, startY, '─', nil, dialogStyle)
			s.SetContent(x, startY+dialogHeight-1, '─', nil, dialogStyle)
		}
	}
	for y := startY + 1; y < startY+dialogHeight-1; y++ {
		s.SetContent(startX, y, '│', nil, dialogStyle)
		s.SetContent(startX+dialogWidth-1, y, '│', nil, dialogStyle)
	}

	title := "Help - Keybindings"
	titleStyle := dialogStyle.Foreground(ColorHighlight).Bold(true)
	drawText(s, startX+(dialogWidth-len(title))/2, startY+1, titleStyle, title)

	contentStartY := startY + 3
	visibleLines := dialogHeight - 5
	for i := 0; i < visibleLines && i+h.scrollOffset < len(helpLines); i++ {
		line := truncate(helpLines[i+h.scrollOffset], dialogWidth-4)
		drawText(s, startX+2, contentStartY+i, dialogStyle, line)
	}

	footer := "Press Esc or ? to close"
	if len(helpLines) > visibleLines {
		footer = "j/k to scroll, Esc or ? to close"
	}
	footerStyle := dialogStyle.Foreground(ColorDimmed)
	drawText(s, startX+(dialogWidth-len(footer))/2, startY+dialogHeight-2, footerStyle, footer)
}

func (h *HelpDialog) HandleKey(ev *tcell.EventKey) bool {
	if !h.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		h.Hide()
		return true
	case tcell.KeyUp:
		h.scrollUp()
		return true
	case tcell.KeyDown:
		h.scrollDown()
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case '?':
			h.Hide()
			return true
		case 'j':
			h.scrollDown()
			return true
		case 'k':
			h.scrollUp()
			return true
		case 'g':
			h.scrollOffset = 0
			return true
		}
	}

	// Consume all other keys while visible
	return true
}

func (h *HelpDialog) getHelpContent() []string {
	return []string{
		"",
		"Navigation:",
		"  j / k         Move down/up in lists",
		"  Ctrl+F / B    Page down/up in the episode list",
		"  g / G         Go to top/bottom of the episode list",
		"  Tab           Switch between episode list and player",
		"",
		"Playback (synced with your listening partner):",
		"  Enter         Load the selected episode",
		"  Space         Play/pause",
		"  f / b         Seek forward/backward 30 seconds",
		"  Left/Right    Seek backward/forward 10 seconds",
		"  Enter (player view)  Jump to the selected chapter",
		"",
		"Feed:",
		"  r             Refresh the feed",
		"  /             Search episodes",
		"",
		"Other:",
		"  ?             Show this help dialog",
		"  Esc           Leave search / close dialogs",
		"  q             Quit",
		"",
		"The status bar shows LINKED when your partner is online.",
	}
}

func (h *HelpDialog) scrollUp() {
	if h.scrollOffset > 0 {
		h.scrollOffset--
	}
}

func (h *HelpDialog) scrollDown() {
	maxScroll := len(h.getHelpContent()) - 15
	if maxScroll < 0 {
		maxScroll = 0
	}
	if h.scrollOffset < maxScroll {
		h.scrollOffset++
	}
}
