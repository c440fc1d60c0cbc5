package room

import "encoding/json"

type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Message types sent by the server.
const (
	TypeGameState   = "game_state"
	TypeUserJoined  = "user_joined"
	TypeUserLeft    = "user_left"
	TypeTurnStart   = "turn_start"
	TypeWordChoices = "word_choices"
	TypeWordChosen  = "word_chosen"
	TypeCurrentWord = "current_word"
	TypeHint        = "hint"
	TypeTurnEnd     = "turn_end"
	TypeGameOver    = "game_over"
	TypeMessage     = "message"
	TypeStroke      = "stroke"
	TypeDrawPoint   = "draw_point"
	TypeUndo        = "undo"
	TypeClear       = "clear"
	TypeError       = "error"
)

// Message types received from clients.
const (
	TypeStartGame  = "start_game"
	TypeChooseWord = "choose_word"
	TypeGuess      = "guess"
)

type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type,omitempty"`
}

type Stroke struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth int8    `json:"strokeWidth"`
	Paths       []Point `json:"paths"`
}

type PlayerSummary struct {
	ID     string `json:"playerId"`
	Points int    `json:"points"`
	Name   string `json:"name"`
}

// RoomSnapshot is the full catch-up state sent to a player on register.
type RoomSnapshot struct {
	RoomID  string          `json:"roomId"`
	HostID  string          `json:"hostId"`
	Players []PlayerSummary `json:"players"`
	Strokes []Stroke        `json:"strokes"`
	Game    *GameState      `json:"game"`
}

// RoomSummary is what gets archived when a room that saw play is torn down.
type RoomSummary struct {
	RoomID       string          `json:"roomId"`
	HostID       string          `json:"hostId"`
	Players      []PlayerSummary `json:"players"`
	RoundsPlayed int             `json:"roundsPlayed"`
	Winner       string          `json:"winner,omitempty"`
	EndedAtUnix  int64           `json:"endedAt"`
}
