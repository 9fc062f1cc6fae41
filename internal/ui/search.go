package ui

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// SearchState holds the state for fuzzy episode search
type SearchState struct {
	query         string
	cursorPos     int
	caseSensitive bool
	minScore      int
}

// ScoreThresholdNormal filters out marginal fzf matches
const ScoreThresholdNormal = 50

// NewSearchState creates a new search state
func NewSearchState() *SearchState {
	return &SearchState{
		caseSensitive: false,
		minScore:      ScoreThresholdNormal,
	}
}

// Query returns the current query text
func (s *SearchState) Query() string {
	return s.query
}

// CursorPos returns the cursor position within the query
func (s *SearchState) CursorPos() int {
	return s.cursorPos
}

// Active reports whether a query is present
func (s *SearchState) Active() bool {
	return s.query != ""
}

// Clear clears the search state
func (s *SearchState) Clear() {
	s.query = ""
	s.cursorPos = 0
}

// InsertChar inserts a character at the cursor position
func (s *SearchState) InsertChar(ch rune) {
	if s.cursorPos >= len(s.query) {
		s.query += string(ch)
	} else {
		s.query = s.query[:s.cursorPos] + string(ch) + s.query[s.cursorPos:]
	}
	s.cursorPos++
}

// DeleteChar deletes the character before the cursor (backspace)
func (s *SearchState) DeleteChar() {
	if s.cursorPos > 0 {
		s.query = s.query[:s.cursorPos-1] + s.query[s.cursorPos:]
		s.cursorPos--
	}
}

// MoveCursorLeft moves cursor left
func (s *SearchState) MoveCursorLeft() {
	if s.cursorPos > 0 {
		s.cursorPos--
	}
}

// MoveCursorRight moves cursor right
func (s *SearchState) MoveCursorRight() {
	if s.cursorPos < len(s.query) {
		s.cursorPos++
	}
}

// MoveCursorStart moves cursor to start (Ctrl+A)
func (s *SearchState) MoveCursorStart() {
	s.cursorPos = 0
}

// MoveCursorEnd moves cursor to end (Ctrl+E)
func (s *SearchState) MoveCursorEnd() {
	s.cursorPos = len(s.query)
}

// DeleteWord deletes the word before cursor (Ctrl+W)
func (s *SearchState) DeleteWord() {
	if s.cursorPos == 0 {
		return
	}

	start := s.cursorPos - 1
	for start > 0 && s.query[start] == ' ' {
		start--
	}
	for start > 0 && s.query[start-1] != ' ' {
		start--
	}

	s.query = s.query[:start] + s.query[s.cursorPos:]
	s.cursorPos = start
}

// MatchResult contains match score and positions
type MatchResult struct {
	Score     int
	Positions []int
}

// matchWithPositions calculates match score and positions for highlighting
func (s *SearchState) matchWithPositions(text string) MatchResult {
	if s.query == "" {
		return MatchResult{Score: 0, Positions: nil}
	}

	algo.Init("default")

	searchText := text
	pattern := s.query
	if !s.caseSensitive {
		searchText = strings.ToLower(text)
		pattern = strings.ToLower(s.query)
	}

	chars := util.ToChars([]byte(searchText))
	patternRunes := []rune(pattern)

	slab := util.MakeSlab(16384, 1024)
	result, positions := algo.FuzzyMatchV2(s.caseSensitive, false, true, &chars, patternRunes, true, slab)

	if result.Start < 0 {
		return MatchResult{Score: -1, Positions: nil}
	}

	var matchPositions []int
	if positions != nil {
		matchPositions = make([]int, len(*positions))
		copy(matchPositions, *positions)
	}

	return MatchResult{Score: result.Score, Positions: matchPositions}
}

// MatchEpisode checks if an episode matches the search query, trying the
// title first and the description second. Returns the positions to
// highlight when the title matched.
func (s *SearchState) MatchEpisode(title, description string) (bool, MatchResult) {
	if s.query == "" {
		return true, MatchResult{Score: 0, Positions: nil}
	}

	titleResult := s.matchWithPositions(title)
	if titleResult.Score >= s.minScore {
		return true, titleResult
	}

	descResult := s.matchWithPositions(description)
	if descResult.Score >= s.minScore {
		// Highlights apply to the title column only
		return true, MatchResult{Score: descResult.Score, Positions: nil}
	}

	return false, MatchResult{Score: -1, Positions: nil}
}
