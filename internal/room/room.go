package room

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/Dima4663737373/linera-skribble/logger"
	"github.com/Dima4663737373/linera-skribble/pkg/utils"
)

// Hooks let the wiring layer react to room lifecycle events without the room
// package depending on storage or social code.
type Hooks struct {
	GameStart  func(roomID, hostID string)
	PlayerLeft func(playerID string)
	RoomClosed func(s RoomSummary)
}

type Room struct {
	ID         string
	Players    map[string]*Player
	HostID     string
	Register   chan *Player
	Unregister chan *Player
	Broadcast  chan []byte
	done       chan struct{}
	Mu         sync.RWMutex
	Game       *GameState
	Strokes    []Stroke

	hooks *Hooks

	// joinOrder fixes the drawer rotation; seen keeps everyone who ever
	// played so a summary can be archived after they disconnect.
	joinOrder    []string
	seen         map[string]*PlayerSummary
	roundsPlayed int

	// turnSeq invalidates stale timer callbacks across turn transitions.
	turnSeq int
	timers  []*time.Timer
}

func (r *Room) broadcast(msg []byte) {
	r.Broadcast <- msg
}

func marshalWS(t string, d any) ([]byte, bool) {
	data, err := json.Marshal(d)
	if err != nil {
		logger.Error("marshal %s payload: %v", t, err)
		return nil, false
	}
	payload, err := json.Marshal(WSMessage{Type: t, Data: data})
	if err != nil {
		logger.Error("marshal %s envelope: %v", t, err)
		return nil, false
	}
	return payload, true
}

func (r *Room) sendLocked(p *Player, t string, d any) {
	msg, ok := marshalWS(t, d)
	if !ok {
		return
	}
	select {
	case p.send <- msg:
	default:
		logger.Error("player %s send channel full, dropping %s", p.ID, t)
	}
}

func (r *Room) broadcastLocked(t string, d any) {
	msg, ok := marshalWS(t, d)
	if !ok {
		return
	}
	for _, pl := range r.Players {
		select {
		case pl.send <- msg:
		default:
		}
	}
}

func (r *Room) broadcastExceptLocked(sender *Player, t string, d any) {
	msg, ok := marshalWS(t, d)
	if !ok {
		return
	}
	for _, pl := range r.Players {
		if pl == sender {
			continue
		}
		select {
		case pl.send <- msg:
		default:
		}
	}
}

func (r *Room) BroadcastWS(t string, d any) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	r.broadcastLocked(t, d)
}

func (r *Room) BroadcastWSExcept(s *Player, t string, d any) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	r.broadcastExceptLocked(s, t, d)
}

func (r *Room) WsMsgTo(p *Player, t string, d any) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	r.sendLocked(p, t, d)
}

func (r *Room) isHost(p *Player) bool {
	return p != nil && p.ID == r.HostID
}

// --- game flow ---

type startGamePayload struct {
	Rounds      int `json:"rounds"`
	TurnSeconds int `json:"turnSeconds"`
}

// StartGame boots the turn loop. Host only, needs at least two players, and
// only from the lobby or after a finished game.
func (r *Room) StartGame(p *Player, raw json.RawMessage) {
	var payload startGamePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			logger.Info("start_game: player=%s invalid payload err=%v", p.ID, err)
		}
	}

	r.Mu.Lock()
	if !r.isHost(p) {
		r.sendLocked(p, TypeError, map[string]string{"error": "only the host can start the game"})
		r.Mu.Unlock()
		return
	}
	if len(r.Players) < 2 {
		r.sendLocked(p, TypeError, map[string]string{"error": "need at least 2 players"})
		r.Mu.Unlock()
		return
	}
	if r.Game != nil && r.Game.Phase != GamePhaseLobby && r.Game.Phase != GamePhaseEnded {
		r.sendLocked(p, TypeError, map[string]string{"error": "game already running"})
		r.Mu.Unlock()
		return
	}

	// joinOrder can hold duplicates when someone rejoined; each present
	// player draws once per round.
	order := make([]string, 0, len(r.Players))
	added := make(map[string]bool, len(r.Players))
	for _, id := range r.joinOrder {
		if _, here := r.Players[id]; here && !added[id] {
			order = append(order, id)
			added[id] = true
		}
	}
	r.Game = NewGameState(payload.Rounds, payload.TurnSeconds, order)
	r.roundsPlayed = 0
	for _, pl := range r.Players {
		pl.Points = 0
	}
	r.Strokes = nil
	r.beginTurnLocked()
	hooks := r.hooks
	hostID := r.HostID
	r.Mu.Unlock()

	if hooks != nil && hooks.GameStart != nil {
		hooks.GameStart(r.ID, hostID)
	}
}

// beginTurnLocked starts the choosing phase for the next drawer. Mu held.
func (r *Room) beginTurnLocked() {
	g := r.Game
	choices, err := utils.PickWordChoices(WordChoiceCount)
	if err != nil {
		logger.Error("room %s: word bank unavailable: %v", r.ID, err)
		r.broadcastLocked(TypeError, map[string]string{"error": "word bank unavailable"})
		return
	}
	g.BeginChoosing(choices)
	r.turnSeq++
	seq := r.turnSeq

	r.broadcastLocked(TypeTurnStart, map[string]any{
		"drawerId": g.DrawerID,
		"round":    g.Round,
	})
	if drawer, ok := r.Players[g.DrawerID]; ok {
		r.sendLocked(drawer, TypeWordChoices, map[string]any{
			"choices": choices,
			"seconds": ChoiceSeconds,
		})
	}

	r.scheduleLocked(ChoiceSeconds*time.Second, func() { r.autoChoose(seq) })
}

// autoChoose picks for a drawer who sat on the word choice too long.
func (r *Room) autoChoose(seq int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	g := r.Game
	if g == nil || seq != r.turnSeq || g.Phase != GamePhaseChoosing {
		return
	}
	choices := g.WordChoices()
	if len(choices) == 0 {
		return
	}
	if g.ChooseWord(choices[0], time.Now()) {
		r.startDrawingLocked(seq)
	}
}

// ChooseWord handles the drawer's pick.
func (r *Room) ChooseWord(p *Player, raw json.RawMessage) {
	var payload struct {
		Word string `json:"word"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Info("choose_word: player=%s invalid payload err=%v", p.ID, err)
		return
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	g := r.Game
	if g == nil || g.Phase != GamePhaseChoosing || p.ID != g.DrawerID {
		return
	}
	if !g.ChooseWord(payload.Word, time.Now()) {
		r.sendLocked(p, TypeError, map[string]string{"error": "word not among choices"})
		return
	}
	r.startDrawingLocked(r.turnSeq)
}

// startDrawingLocked announces the chosen word and arms the turn timers:
// two hint reveals and the deadline. Mu held.
func (r *Room) startDrawingLocked(seq int) {
	g := r.Game
	r.Strokes = nil
	r.broadcastLocked(TypeClear, map[string]any{})
	r.broadcastLocked(TypeWordChosen, map[string]any{
		"drawerId": g.DrawerID,
		"wordMask": g.WordMask,
		"wordLen":  g.WordLen,
		"endsAt":   g.EndsAtUnix,
	})
	if drawer, ok := r.Players[g.DrawerID]; ok {
		r.sendLocked(drawer, TypeCurrentWord, map[string]string{"word": g.Word()})
	}

	turn := time.Duration(g.TurnSeconds) * time.Second
	r.scheduleLocked(turn/2, func() { r.revealHint(seq) })
	r.scheduleLocked(turn*3/4, func() { r.revealHint(seq) })
	r.scheduleLocked(turn, func() { r.endTurn(seq, "time up") })
}

func (r *Room) revealHint(seq int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	g := r.Game
	if g == nil || seq != r.turnSeq || g.Phase != GamePhaseDrawing {
		return
	}
	mask := g.RevealHint()
	r.broadcastLocked(TypeHint, map[string]string{"wordMask": mask})
}

func (r *Room) endTurn(seq int, reason string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Game == nil || seq != r.turnSeq {
		return
	}
	r.endTurnLocked(reason)
}

// endTurnLocked reveals the word, pays the drawer and schedules the next
// turn or the end of the game. Mu held.
func (r *Room) endTurnLocked(reason string) {
	r.closeTurnLocked(reason, true, false)
}

// closeTurnLocked is the shared turn teardown. advance is false when
// DropPlayer already moved the rotation off a departed drawer; wrapped then
// carries DropPlayer's wrap result instead of AdvanceTurn's. Mu held.
func (r *Room) closeTurnLocked(reason string, advance, wrapped bool) {
	g := r.Game
	if g.Phase != GamePhaseDrawing && g.Phase != GamePhaseChoosing {
		return
	}
	g.Phase = GamePhaseTurnEnd

	if drawer, ok := r.Players[g.DrawerID]; ok {
		drawer.Points += drawerPointsPerHit * len(g.GuessedPlayers)
	}

	r.broadcastLocked(TypeTurnEnd, map[string]any{
		"word":   g.Word(),
		"reason": reason,
		"scores": r.playerSummariesLocked(),
	})

	r.turnSeq++
	seq := r.turnSeq

	if advance {
		wrapped = g.AdvanceTurn()
	} else if wrapped {
		g.Round++
	}
	if wrapped {
		r.roundsPlayed++
	}
	if wrapped && g.Round > g.MaxRounds {
		r.scheduleLocked(5*time.Second, func() { r.finishGame(seq) })
		return
	}
	r.scheduleLocked(5*time.Second, func() { r.nextTurn(seq) })
}

func (r *Room) nextTurn(seq int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	g := r.Game
	if g == nil || seq != r.turnSeq || g.Phase != GamePhaseTurnEnd {
		return
	}
	if len(r.Players) < 2 {
		r.endGameLocked()
		return
	}
	r.beginTurnLocked()
}

func (r *Room) finishGame(seq int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Game == nil || seq != r.turnSeq {
		return
	}
	r.endGameLocked()
}

// endGameLocked broadcasts final standings and returns the room to the
// lobby-like ended phase so the host can start a rematch. Mu held.
func (r *Room) endGameLocked() {
	g := r.Game
	g.Phase = GamePhaseEnded
	g.DrawerID = ""
	standings := r.playerSummariesLocked()
	r.broadcastLocked(TypeGameOver, map[string]any{
		"standings": standings,
		"winner":    winnerOf(standings),
	})
	r.snapshotSeenLocked()
}

func (r *Room) playerSummariesLocked() []PlayerSummary {
	out := make([]PlayerSummary, 0, len(r.Players))
	for _, pl := range r.Players {
		out = append(out, PlayerSummary{ID: pl.ID, Points: pl.Points, Name: pl.Name})
	}
	return out
}

func winnerOf(players []PlayerSummary) string {
	best := ""
	bestPoints := -1
	for _, p := range players {
		if p.Points > bestPoints {
			best, bestPoints = p.ID, p.Points
		}
	}
	return best
}

// --- guessing ---

type chatPayload struct {
	Sender  PlayerSummary `json:"sender"`
	Message string        `json:"message"`
}

type guessNotice struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	EditDistance int    `json:"editDistance,omitempty"`
	Message      string `json:"message"`
}

func (r *Room) handleGuess(p *Player, wsMsg WSMessage) {
	var payload struct {
		Guess   string `json:"guess"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(wsMsg.Data, &payload); err != nil {
		logger.Info("handleGuess: player=%s invalid payload err=%v", p.ID, err)
		return
	}

	raw := strings.TrimSpace(payload.Guess)
	if raw == "" {
		raw = strings.TrimSpace(payload.Message)
	}
	if raw == "" {
		return
	}
	guessLower := strings.ToLower(raw)

	// Decision flags collected under lock
	var (
		correct        bool
		closeDistance  int
		sendCloseHint  bool
		alreadyGuessed bool
		turnOver       bool
		seq            int
	)

	r.Mu.Lock()
	g := r.Game
	if g != nil && g.Phase == GamePhaseDrawing && g.Word() != "" && p.ID != g.DrawerID {
		if g.GuessedPlayers[p.ID] {
			alreadyGuessed = true
		} else {
			target := strings.ToLower(g.Word())
			dist := levenshtein.ComputeDistance(guessLower, target)
			if dist == 0 {
				g.GuessedPlayers[p.ID] = true
				timeLeft := g.EndsAtUnix - time.Now().Unix()
				if timeLeft < 0 {
					timeLeft = 0
				}
				p.Points += guesserBasePoints + int(timeLeft)
				correct = true
				turnOver = g.AllGuessed(r.playerIDsLocked())
				seq = r.turnSeq
			} else if dist <= maxCloseGuessDist {
				closeDistance = dist
				sendCloseHint = true
			}
		}
	}
	r.Mu.Unlock()

	switch {
	case alreadyGuessed:
		// Players who already found the word chat only to themselves so the
		// word cannot leak into the open chat.
		r.WsMsgTo(p, TypeMessage, WSMessage{Type: "chat_msg", Data: mustRaw(chatPayload{
			Sender:  PlayerSummary{ID: p.ID, Name: p.Name},
			Message: raw,
		})})

	case correct:
		r.BroadcastWS(TypeMessage, WSMessage{Type: "correct_guess", Data: mustRaw(guessNotice{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Message:    p.Name + " has guessed the word",
		})})
		if turnOver {
			r.endTurn(seq, "everyone guessed")
		}

	case sendCloseHint:
		// Full distance only to the guesser, masked for everyone else.
		r.WsMsgTo(p, TypeMessage, WSMessage{Type: "close_guess", Data: mustRaw(guessNotice{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			EditDistance: closeDistance,
			Message:      guessLower,
		})})
		r.BroadcastWSExcept(p, TypeMessage, WSMessage{Type: "close_guess", Data: mustRaw(guessNotice{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Message:    guessLower,
		})})

	default:
		r.BroadcastWS(TypeMessage, WSMessage{Type: "chat_msg", Data: mustRaw(chatPayload{
			Sender:  PlayerSummary{ID: p.ID, Name: p.Name},
			Message: raw,
		})})
	}
}

func mustRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}

func (r *Room) playerIDsLocked() []string {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	return ids
}

// --- drawing ---

// canDraw gates canvas mutations to the drawer while a turn runs. Outside a
// game anyone may doodle in the lobby.
func (r *Room) canDrawLocked(p *Player) bool {
	g := r.Game
	if g == nil || g.Phase == GamePhaseLobby || g.Phase == GamePhaseEnded {
		return true
	}
	return g.Phase == GamePhaseDrawing && p.ID == g.DrawerID
}

func (r *Room) handleStroke(p *Player, raw json.RawMessage) {
	var stroke Stroke
	if err := json.Unmarshal(raw, &stroke); err != nil {
		logger.Info("stroke: player=%s invalid data err=%v", p.ID, err)
		return
	}
	r.Mu.Lock()
	if !r.canDrawLocked(p) {
		r.Mu.Unlock()
		return
	}
	r.Strokes = append(r.Strokes, stroke)
	r.broadcastExceptLocked(p, TypeStroke, stroke)
	r.Mu.Unlock()
}

func (r *Room) handleDrawPoint(p *Player, raw json.RawMessage) {
	r.Mu.RLock()
	allowed := r.canDrawLocked(p)
	if allowed {
		r.broadcastExceptLocked(p, TypeDrawPoint, raw)
	}
	r.Mu.RUnlock()
}

func (r *Room) handleUndo(p *Player) {
	r.Mu.Lock()
	if !r.canDrawLocked(p) {
		r.Mu.Unlock()
		return
	}
	if len(r.Strokes) > 0 {
		r.Strokes = r.Strokes[:len(r.Strokes)-1]
	}
	r.broadcastLocked(TypeUndo, map[string]any{})
	r.Mu.Unlock()
}

func (r *Room) handleClear(p *Player) {
	r.Mu.Lock()
	if !r.canDrawLocked(p) {
		r.Mu.Unlock()
		return
	}
	r.Strokes = nil
	r.broadcastLocked(TypeClear, map[string]any{})
	r.Mu.Unlock()
}

// --- snapshots, timers, lifecycle ---

// SendGameState ships the full catch-up snapshot to a late joiner. The
// secret word only travels when the receiver is the drawer.
func (r *Room) SendGameState(p *Player) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()

	strokes := make([]Stroke, len(r.Strokes))
	copy(strokes, r.Strokes)

	var game *GameState
	if r.Game != nil {
		g := *r.Game
		game = &g
	} else {
		game = &GameState{
			Phase:          GamePhaseLobby,
			GuessedPlayers: make(map[string]bool),
		}
	}

	snapshot := RoomSnapshot{
		RoomID:  r.ID,
		HostID:  r.HostID,
		Players: r.playerSummariesLocked(),
		Strokes: strokes,
		Game:    game,
	}
	r.sendLocked(p, TypeGameState, snapshot)

	if r.Game != nil && p.ID == r.Game.DrawerID {
		switch r.Game.Phase {
		case GamePhaseChoosing:
			r.sendLocked(p, TypeWordChoices, map[string]any{
				"choices": r.Game.WordChoices(),
				"seconds": ChoiceSeconds,
			})
		case GamePhaseDrawing:
			r.sendLocked(p, TypeCurrentWord, map[string]string{"word": r.Game.Word()})
		}
	}
}

func (r *Room) scheduleLocked(d time.Duration, fn func()) {
	r.timers = append(r.timers, time.AfterFunc(d, fn))
}

func (r *Room) stopTimersLocked() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}

// snapshotSeenLocked refreshes the archive roster with current points.
func (r *Room) snapshotSeenLocked() {
	for _, pl := range r.Players {
		r.seen[pl.ID] = &PlayerSummary{ID: pl.ID, Points: pl.Points, Name: pl.Name}
	}
}

func (r *Room) summaryLocked() RoomSummary {
	players := make([]PlayerSummary, 0, len(r.seen))
	for _, s := range r.seen {
		players = append(players, *s)
	}
	return RoomSummary{
		RoomID:       r.ID,
		HostID:       r.HostID,
		Players:      players,
		RoundsPlayed: r.roundsPlayed,
		Winner:       winnerOf(players),
		EndedAtUnix:  time.Now().Unix(),
	}
}

func (r *Room) Run(rm *RoomManager) {
	defer close(r.done)

	for {
		select {

		case player := <-r.Register:
			r.Mu.Lock()
			r.Players[player.ID] = player
			r.joinOrder = append(r.joinOrder, player.ID)
			r.seen[player.ID] = &PlayerSummary{ID: player.ID, Points: player.Points, Name: player.Name}
			r.Mu.Unlock()

			r.SendGameState(player)
			r.BroadcastWS(TypeUserJoined, PlayerSummary{ID: player.ID, Name: player.Name})
			logger.Info("player %s joined room %s", player.ID, r.ID)

		case player := <-r.Unregister:
			r.Mu.Lock()
			// a reconnect replaces the map entry; a late unregister from the
			// old connection must not take down the live one
			if current, exists := r.Players[player.ID]; !exists || current != player {
				r.Mu.Unlock()
				continue
			}
			r.seen[player.ID] = &PlayerSummary{ID: player.ID, Points: player.Points, Name: player.Name}
			delete(r.Players, player.ID)
			logger.Info("player %s left room %s", player.ID, r.ID)

			if g := r.Game; g != nil {
				wasDrawer := g.DrawerID == player.ID &&
					(g.Phase == GamePhaseChoosing || g.Phase == GamePhaseDrawing)
				_, wrapped := g.DropPlayer(player.ID)
				delete(g.GuessedPlayers, player.ID)
				if wasDrawer {
					r.closeTurnLocked("drawer left", false, wrapped)
				} else if g.Phase == GamePhaseDrawing && g.AllGuessed(r.playerIDsLocked()) {
					r.endTurnLocked("everyone guessed")
				}
			}

			// clean up empty room
			if len(r.Players) == 0 {
				r.stopTimersLocked()
				summary := r.summaryLocked()
				played := r.roundsPlayed > 0 || r.Game != nil && r.Game.Phase != GamePhaseLobby
				r.Mu.Unlock()

				rm.Lock()
				delete(rm.Rooms, r.ID)
				rm.Unlock()

				if r.hooks != nil {
					if r.hooks.PlayerLeft != nil {
						r.hooks.PlayerLeft(player.ID)
					}
					if played && r.hooks.RoomClosed != nil {
						r.hooks.RoomClosed(summary)
					}
				}
				logger.Info("room %s deleted (empty)", r.ID)
				return
			}
			r.Mu.Unlock()

			if r.hooks != nil && r.hooks.PlayerLeft != nil {
				r.hooks.PlayerLeft(player.ID)
			}
			r.BroadcastWS(TypeUserLeft, PlayerSummary{ID: player.ID, Name: player.Name})

		case msg := <-r.Broadcast:
			r.Mu.RLock()
			for _, p := range r.Players {
				select {
				case p.send <- msg:
				case <-p.ctx.Done():
				}
			}
			r.Mu.RUnlock()
		}
	}
}
