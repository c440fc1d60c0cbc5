package room

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

type GamePhase string

const (
	GamePhaseLobby    GamePhase = "lobby"
	GamePhaseChoosing GamePhase = "choosing"
	GamePhaseDrawing  GamePhase = "drawing"
	GamePhaseTurnEnd  GamePhase = "turn_end"
	GamePhaseEnded    GamePhase = "ended"
)

const (
	DefaultMaxRounds   = 3
	DefaultTurnSeconds = 80
	ChoiceSeconds      = 15
	WordChoiceCount    = 3

	guesserBasePoints  = 100
	drawerPointsPerHit = 25
	maxCloseGuessDist  = 2
)

type GameState struct {
	Phase          GamePhase       `json:"phase"`
	Round          int             `json:"round"`
	MaxRounds      int             `json:"maxRounds"`
	TurnSeconds    int             `json:"turnSeconds"`
	DrawerID       string          `json:"drawerId"`
	WordMask       string          `json:"wordMask"`
	WordLen        string          `json:"wordLen"`
	StartedAtUnix  int64           `json:"startedAt"`
	EndsAtUnix     int64           `json:"endsAt"`
	GuessedPlayers map[string]bool `json:"guessedPlayers"`

	// The word lives only here and is never marshalled; clients other than
	// the drawer see the mask.
	word        string
	wordChoices []string
	turnOrder   []string
	turnIdx     int
	revealed    map[int]bool
}

func NewGameState(maxRounds, turnSeconds int, turnOrder []string) *GameState {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if turnSeconds <= 0 {
		turnSeconds = DefaultTurnSeconds
	}
	return &GameState{
		Phase:          GamePhaseLobby,
		Round:          1,
		MaxRounds:      maxRounds,
		TurnSeconds:    turnSeconds,
		GuessedPlayers: make(map[string]bool),
		turnOrder:      turnOrder,
	}
}

// Word returns the secret word. Only drawer-facing code paths may call this.
func (g *GameState) Word() string { return g.word }

func (g *GameState) WordChoices() []string { return g.wordChoices }

// CurrentDrawer returns the player whose turn it is to draw.
func (g *GameState) CurrentDrawer() string {
	if len(g.turnOrder) == 0 {
		return ""
	}
	return g.turnOrder[g.turnIdx%len(g.turnOrder)]
}

// BeginChoosing moves the game into the choosing phase for the current drawer.
func (g *GameState) BeginChoosing(choices []string) {
	g.Phase = GamePhaseChoosing
	g.DrawerID = g.CurrentDrawer()
	g.wordChoices = choices
	g.word = ""
	g.WordMask = ""
	g.WordLen = ""
	g.StartedAtUnix = 0
	g.EndsAtUnix = 0
	g.GuessedPlayers = make(map[string]bool)
	g.revealed = make(map[int]bool)
}

// ChooseWord locks in the drawer's word and starts the timed drawing phase.
// The word must be one of the offered choices.
func (g *GameState) ChooseWord(word string, now time.Time) bool {
	ok := false
	for _, c := range g.wordChoices {
		if c == word {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	g.word = word
	g.wordChoices = nil
	g.Phase = GamePhaseDrawing
	g.WordMask = maskWord(word, g.revealed)
	g.WordLen = wordLengths(word)
	g.StartedAtUnix = now.Unix()
	g.EndsAtUnix = now.Add(time.Duration(g.TurnSeconds) * time.Second).Unix()
	return true
}

// RevealHint uncovers one random hidden letter and returns the new mask.
// Always leaves at least one letter hidden.
func (g *GameState) RevealHint() string {
	hidden := make([]int, 0, len(g.word))
	for i, ch := range g.word {
		if ch == ' ' || g.revealed[i] {
			continue
		}
		hidden = append(hidden, i)
	}
	if len(hidden) <= 1 {
		return g.WordMask
	}
	g.revealed[hidden[rand.Intn(len(hidden))]] = true
	g.WordMask = maskWord(g.word, g.revealed)
	return g.WordMask
}

// AllGuessed reports whether every non-drawer in ids has found the word.
func (g *GameState) AllGuessed(ids []string) bool {
	n := 0
	for _, id := range ids {
		if id == g.DrawerID {
			continue
		}
		if !g.GuessedPlayers[id] {
			return false
		}
		n++
	}
	return n > 0
}

// AdvanceTurn rotates to the next drawer. It reports whether the rotation
// wrapped around, which ends the round.
func (g *GameState) AdvanceTurn() (wrapped bool) {
	g.turnIdx++
	if g.turnIdx >= len(g.turnOrder) {
		g.turnIdx = 0
		g.Round++
		return true
	}
	return false
}

// DropPlayer removes a departed player from the rotation. When the removed
// player held the current turn slot, the slot already points at their
// successor, so the caller must not advance the rotation again; wrapped
// reports that the successor is back at the front of the order, which is
// the caller's cue to advance the round.
func (g *GameState) DropPlayer(id string) (wasCurrent, wrapped bool) {
	for i, pid := range g.turnOrder {
		if pid != id {
			continue
		}
		g.turnOrder = append(g.turnOrder[:i], g.turnOrder[i+1:]...)
		switch {
		case i < g.turnIdx:
			g.turnIdx--
		case i == g.turnIdx:
			wasCurrent = true
			if g.turnIdx >= len(g.turnOrder) {
				g.turnIdx = 0
				wrapped = len(g.turnOrder) > 0
			}
		}
		if len(g.turnOrder) == 0 {
			g.turnIdx = 0
		}
		return wasCurrent, wrapped
	}
	return false, false
}

func maskWord(word string, revealed map[int]bool) string {
	var b strings.Builder
	for i, ch := range word {
		switch {
		case ch == ' ':
			b.WriteRune(' ')
		case revealed[i]:
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// wordLengths renders per-word letter counts, e.g. "fire truck" -> "4 5".
func wordLengths(word string) string {
	parts := strings.Split(word, " ")
	lens := make([]string, len(parts))
	for i, p := range parts {
		lens[i] = strconv.Itoa(len(p))
	}
	return strings.Join(lens, " ")
}
