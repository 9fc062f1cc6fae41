package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/flixoflax/lto.lachsnudel.space/internal/config"
	"github.com/flixoflax/lto.lachsnudel.space/internal/engine"
	"github.com/flixoflax/lto.lachsnudel.space/internal/feed"
	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
	"github.com/flixoflax/lto.lachsnudel.space/internal/player"
	"github.com/flixoflax/lto.lachsnudel.space/internal/presence"
	"github.com/flixoflax/lto.lachsnudel.space/internal/realtime"
)

type viewID int

const (
	viewEpisodes viewID = iota
	viewPlayer
)

type feedResult struct {
	episodes []*models.Episode
	err      error
}

// App owns the terminal and runs the single event loop. Every state
// mutation - key presses, player ticks, relay envelopes - flows through the
// loop one at a time, so the engine never needs locking.
type App struct {
	cfg      *config.Config
	logger   *log.Logger
	clientID string

	screen  tcell.Screen
	player  *player.Player
	channel *realtime.Channel
	engine  *engine.Engine
	tracker *presence.Tracker

	search      *SearchState
	episodeList *EpisodeListView
	playerView  *PlayerView
	helpDialog  *HelpDialog

	activeView viewID
	searchMode bool
	quitting   bool

	warnings chan string
	feedCh   chan feedResult

	statusMessage string
	statusIsError bool
}

func NewApp(cfg *config.Config, logger *log.Logger) *App {
	search := NewSearchState()

	a := &App{
		cfg:         cfg,
		logger:      logger,
		clientID:    models.NewClientID(),
		player:      player.New(cfg.Player.Binary, logger),
		search:      search,
		episodeList: NewEpisodeListView(search),
		playerView:  NewPlayerView(),
		helpDialog:  NewHelpDialog(),
		warnings:    make(chan string, 8),
		feedCh:      make(chan feedResult, 1),
	}

	a.tracker = presence.NewTracker(func(connected bool) {
		if connected {
			logger.Info("listening partner connected")
		} else {
			logger.Info("listening partner disconnected")
		}
	})

	return a
}

// channelPublisher adapts the relay channel to the engine's publisher.
type channelPublisher struct {
	channel *realtime.Channel
}

func (p channelPublisher) Publish(state models.PlaybackState) error {
	return p.channel.Broadcast(realtime.EventPlaybackUpdate, state)
}

// Run starts the player, joins the relay room and drives the event loop
// until the user quits.
func (a *App) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	a.screen = screen
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg))

	if err := a.player.Start(); err != nil {
		return fmt.Errorf("failed to start audio player: %w", err)
	}
	defer a.player.Close()
	a.player.SetOnError(func(err error) {
		a.postWarning(err.Error())
	})

	channel, err := realtime.Dial(ctx, a.cfg.Relay.URL, a.cfg.Relay.Room, a.clientID, a.logger)
	if err != nil {
		return fmt.Errorf("failed to join relay room %q: %w", a.cfg.Relay.Room, err)
	}
	a.channel = channel
	defer channel.Close()

	if err := channel.Track(realtime.PresenceMeta{
		User:     a.clientID,
		OnlineAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		a.logger.Warn("failed to announce presence", "err", err)
	}

	a.engine = engine.New(a.clientID, a.player, channelPublisher{channel}, clock.New(), a.logger)
	a.engine.SetOnWarning(a.postWarning)

	a.refreshFeed(ctx)

	events := make(chan tcell.Event, 16)
	tcellQuit := make(chan struct{})
	defer close(tcellQuit)
	go screen.ChannelEvents(events, tcellQuit)

	a.draw()

	// inbound goes nil once the relay connection drops so the closed
	// channel stops winning the select
	inbound := channel.Events()

	for !a.quitting {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.handleTcellEvent(ev)

		case pos := <-a.player.Ticks():
			a.engine.Apply(engine.TickEvent{Seconds: pos})

		case env, ok := <-inbound:
			if !ok {
				a.postWarning("lost connection to the relay")
				a.tracker.Sync(nil)
				inbound = nil
				break
			}
			a.handleEnvelope(env)

		case msg := <-a.warnings:
			a.setStatus(msg, true)

		case result := <-a.feedCh:
			a.handleFeedResult(result)
		}

		a.draw()
	}

	return nil
}

func (a *App) handleTcellEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		a.handleKey(ev)
	}
}

func (a *App) handleKey(ev *tcell.EventKey) {
	if a.helpDialog.HandleKey(ev) {
		return
	}
	if a.searchMode {
		a.handleSearchKey(ev)
		return
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		if a.search.Active() {
			a.search.Clear()
			a.episodeList.ApplyFilter()
		}
		return
	case tcell.KeyTab:
		if a.activeView == viewEpisodes {
			a.activeView = viewPlayer
		} else {
			a.activeView = viewEpisodes
		}
		return
	case tcell.KeyEnter:
		a.handleEnter()
		return
	case tcell.KeyLeft:
		a.seekRelative(-10)
		return
	case tcell.KeyRight:
		a.seekRelative(10)
		return
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			a.quitting = true
			return
		case '?':
			a.helpDialog.Show()
			return
		case '/':
			a.activeView = viewEpisodes
			a.searchMode = true
			return
		case 'r':
			a.refreshFeed(context.Background())
			return
		case ' ':
			a.togglePlayback()
			return
		case 'f':
			a.seekRelative(30)
			return
		case 'b':
			a.seekRelative(-30)
			return
		}
	}

	switch a.activeView {
	case viewEpisodes:
		a.episodeList.HandleKey(ev)
	case viewPlayer:
		a.playerView.HandleKey(ev)
	}
}

func (a *App) handleSearchKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.search.Clear()
		a.searchMode = false
		a.episodeList.ApplyFilter()
	case tcell.KeyEnter:
		a.searchMode = false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.search.DeleteChar()
		a.episodeList.ApplyFilter()
	case tcell.KeyLeft:
		a.search.MoveCursorLeft()
	case tcell.KeyRight:
		a.search.MoveCursorRight()
	case tcell.KeyCtrlA:
		a.search.MoveCursorStart()
	case tcell.KeyCtrlE:
		a.search.MoveCursorEnd()
	case tcell.KeyCtrlW:
		a.search.DeleteWord()
		a.episodeList.ApplyFilter()
	case tcell.KeyRune:
		a.search.InsertChar(ev.Rune())
		a.episodeList.ApplyFilter()
	}
}

func (a *App) handleEnter() {
	switch a.activeView {
	case viewEpisodes:
		if episode := a.episodeList.GetSelected(); episode != nil {
			a.engine.Apply(engine.SelectEvent{EpisodeID: episode.ID})
			a.activeView = viewPlayer
		}
	case viewPlayer:
		if chapter := a.playerView.SelectedChapter(); chapter != nil {
			a.engine.Apply(engine.SeekEvent{Seconds: chapter.StartSeconds})
		}
	}
}

func (a *App) togglePlayback() {
	if a.engine.State().IsPlaying {
		a.engine.Apply(engine.PauseEvent{})
	} else {
		a.engine.Apply(engine.PlayEvent{})
	}
}

func (a *App) seekRelative(deltaSeconds float64) {
	state := a.engine.State()
	if state.EpisodeID == "" {
		return
	}
	a.engine.Apply(engine.SeekEvent{Seconds: state.PositionSeconds + deltaSeconds})
}

func (a *App) handleEnvelope(env realtime.Envelope) {
	switch env.Type {
	case realtime.TypePresence:
		members := make([]string, 0, len(env.Members))
		for id := range env.Members {
			members = append(members, id)
		}
		a.tracker.Sync(members)

	case realtime.TypeBroadcast:
		if env.Event != realtime.EventPlaybackUpdate {
			return
		}
		var state models.PlaybackState
		if err := json.Unmarshal(env.Payload, &state); err != nil {
			a.logger.Warn("dropping malformed playback update", "err", err)
			return
		}
		a.engine.Apply(engine.RemoteEvent{State: state})
	}
}

// refreshFeed fetches the feed off the event loop and posts the result back
// as an ordinary loop message.
func (a *App) refreshFeed(ctx context.Context) {
	a.setStatus("Refreshing feed...", false)
	url := a.cfg.Feed.URL
	go func() {
		episodes, err := feed.Fetch(ctx, url)
		select {
		case a.feedCh <- feedResult{episodes: episodes, err: err}:
		default:
		}
	}()
}

func (a *App) handleFeedResult(result feedResult) {
	if result.err != nil {
		a.logger.Error("feed refresh failed", "err", result.err)
		a.setStatus("Feed refresh failed: "+result.err.Error(), true)
		return
	}

	a.engine.SetEpisodes(result.episodes)
	a.episodeList.SetEpisodes(result.episodes)
	a.setStatus(fmt.Sprintf("Loaded %d episodes", len(result.episodes)), false)
}

func (a *App) postWarning(msg string) {
	select {
	case a.warnings <- msg:
	default:
	}
}

func (a *App) setStatus(msg string, isError bool) {
	a.statusMessage = msg
	a.statusIsError = isError
}

func (a *App) draw() {
	a.screen.Clear()

	state := a.engine.State()
	a.episodeList.SetCurrentID(state.EpisodeID)
	a.playerView.SetEpisode(a.engine.Episode())
	a.playerView.SetState(state, a.player.Duration())

	switch a.activeView {
	case viewEpisodes:
		a.episodeList.Draw(a.screen)
	case viewPlayer:
		a.playerView.Draw(a.screen)
	}

	a.drawPlaybackLine()
	a.drawStatusLine()
	a.helpDialog.Draw(a.screen)

	a.screen.Show()
}

func (a *App) drawPlaybackLine() {
	w, h := a.screen.Size()
	y := h - 2

	for x := 0; x < w; x++ {
		a.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(ColorBgHighlight))
	}

	state := a.engine.State()
	base := tcell.StyleDefault.Background(ColorBgHighlight)

	left := "  nothing loaded"
	leftStyle := base.Foreground(ColorDimmed)
	if episode := a.engine.Episode(); episode != nil {
		symbol := "⏸"
		leftStyle = base.Foreground(ColorPaused)
		if state.IsPlaying {
			symbol = "▶"
			leftStyle = base.Foreground(ColorPlaying)
		}

		position := models.FormatSeconds(state.PositionSeconds)
		total := episode.DurationDisplay
		if d := a.player.Duration(); d > 0 {
			total = models.FormatSeconds(d)
		}
		left = fmt.Sprintf(" %s %s  %s / %s", symbol, truncate(episode.Title, w-30), position, total)
	}
	drawText(a.screen, 0, y, leftStyle, left)

	// Sync indicator pinned to the right edge
	indicator := " ALONE "
	indicatorStyle := base.Foreground(ColorAlone).Bold(true)
	if a.tracker.PeerConnected() {
		indicator = " LINKED "
		indicatorStyle = base.Foreground(ColorLinked).Bold(true)
	}
	drawText(a.screen, w-len(indicator), y, indicatorStyle, indicator)
}

func (a *App) drawStatusLine() {
	w, h := a.screen.Size()
	y := h - 1

	if a.searchMode || a.search.Active() {
		prompt := "/" + a.search.Query()
		drawText(a.screen, 0, y, tcell.StyleDefault.Foreground(ColorHighlight), truncate(prompt, w))
		if a.searchMode {
			a.screen.ShowCursor(1+a.search.CursorPos(), y)
		} else {
			a.screen.HideCursor()
		}
		return
	}
	a.screen.HideCursor()

	style := tcell.StyleDefault.Foreground(ColorDimmed)
	if a.statusIsError {
		style = tcell.StyleDefault.Foreground(ColorError)
	}
	msg := a.statusMessage
	if msg == "" {
		msg = "Press ? for help"
	}
	drawText(a.screen, 0, y, style, truncate(msg, w))
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	pos := 0
	for _, r := range text {
		s.SetContent(x+pos, y, r, nil, style)
		pos++
	}
}

// drawTextWithHighlight draws text with the given rune positions emphasized,
// used for fuzzy match highlighting.
func drawTextWithHighlight(s tcell.Screen, x, y int, style tcell.Style, text string, positions []int) {
	highlightMap := make(map[int]bool, len(positions))
	for _, pos := range positions {
		highlightMap[pos] = true
	}

	highlightStyle := style.Foreground(ColorHighlight).Bold(true)

	pos := 0
	for runeIdx, r := range []rune(text) {
		charStyle := style
		if highlightMap[runeIdx] {
			charStyle = highlightStyle
		}
		s.SetContent(x+pos, y, r, nil, charStyle)
		pos++
	}
}

func truncate(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return string(runes[:maxWidth])
	}
	return string(runes[:maxWidth-3]) + "..."
}

// wrapText breaks text into lines no wider than width, preferring to break
// at spaces.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	for len(text) > width {
		breakPoint := width
		for i := width - 1; i >= 0; i-- {
			if text[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, text[:breakPoint])
		text = text[breakPoint:]
		if len(text) > 0 && text[0] == ' ' {
			text = text[1:]
		}
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
