package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(hostID string) *Room {
	return &Room{
		ID:         "testroom",
		Players:    make(map[string]*Player),
		HostID:     hostID,
		Register:   make(chan *Player, 10),
		Unregister: make(chan *Player, 10),
		Broadcast:  make(chan []byte, 100),
		done:       make(chan struct{}),
		seen:       make(map[string]*PlayerSummary),
	}
}

func newTestPlayer(id, name string) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		ID:     id,
		Name:   name,
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

func addPlayer(r *Room, p *Player) {
	r.Mu.Lock()
	r.Players[p.ID] = p
	r.joinOrder = append(r.joinOrder, p.ID)
	r.seen[p.ID] = &PlayerSummary{ID: p.ID, Name: p.Name}
	r.Mu.Unlock()
}

// drain empties the player's send channel and returns the decoded messages.
func drain(t *testing.T, p *Player) []WSMessage {
	t.Helper()
	var out []WSMessage
	for {
		select {
		case raw := <-p.send:
			var msg WSMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func hasType(msgs []WSMessage, t string) (WSMessage, bool) {
	for _, m := range msgs {
		if m.Type == t {
			return m, true
		}
	}
	return WSMessage{}, false
}

func stopTimers(r *Room) {
	r.Mu.Lock()
	r.stopTimersLocked()
	r.Mu.Unlock()
}

// startDrawingWithWord walks the room into the drawing phase with a known
// word, bypassing the random word bank.
func startDrawingWithWord(t *testing.T, r *Room, word string) {
	t.Helper()
	r.Mu.Lock()
	g := NewGameState(2, 60, append([]string(nil), r.joinOrder...))
	g.BeginChoosing([]string{word})
	require.True(t, g.ChooseWord(word, time.Now()))
	r.Game = g
	r.Mu.Unlock()
}

func TestStartGameRequiresHost(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	r.StartGame(guest, nil)
	defer stopTimers(r)

	assert.Nil(t, r.Game)
	msgs := drain(t, guest)
	_, ok := hasType(msgs, TypeError)
	assert.True(t, ok)
}

func TestStartGameNeedsTwoPlayers(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	addPlayer(r, host)

	r.StartGame(host, nil)

	assert.Nil(t, r.Game)
	msgs := drain(t, host)
	_, ok := hasType(msgs, TypeError)
	assert.True(t, ok)
}

func TestStartGameBeginsChoosing(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	r.StartGame(host, json.RawMessage(`{"rounds":2,"turnSeconds":30}`))
	defer stopTimers(r)

	require.NotNil(t, r.Game)
	assert.Equal(t, GamePhaseChoosing, r.Game.Phase)
	assert.Equal(t, "host", r.Game.DrawerID) // first joiner draws first
	assert.Equal(t, 2, r.Game.MaxRounds)
	assert.Equal(t, 30, r.Game.TurnSeconds)

	hostMsgs := drain(t, host)
	_, ok := hasType(hostMsgs, TypeWordChoices)
	assert.True(t, ok, "drawer should receive word choices")
	_, ok = hasType(hostMsgs, TypeTurnStart)
	assert.True(t, ok)

	guestMsgs := drain(t, guest)
	_, ok = hasType(guestMsgs, TypeWordChoices)
	assert.False(t, ok, "non-drawer must not see word choices")
	_, ok = hasType(guestMsgs, TypeTurnStart)
	assert.True(t, ok)
}

func TestChooseWordStartsDrawing(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	r.StartGame(host, nil)
	defer stopTimers(r)
	require.NotNil(t, r.Game)

	choices := r.Game.WordChoices()
	require.NotEmpty(t, choices)
	word := choices[0]

	drain(t, host)
	drain(t, guest)

	r.ChooseWord(host, json.RawMessage(`{"word":"`+word+`"}`))

	assert.Equal(t, GamePhaseDrawing, r.Game.Phase)
	assert.Equal(t, word, r.Game.Word())

	hostMsgs := drain(t, host)
	cur, ok := hasType(hostMsgs, TypeCurrentWord)
	require.True(t, ok, "drawer should receive the word")
	var payload struct {
		Word string `json:"word"`
	}
	require.NoError(t, json.Unmarshal(cur.Data, &payload))
	assert.Equal(t, word, payload.Word)

	guestMsgs := drain(t, guest)
	_, ok = hasType(guestMsgs, TypeCurrentWord)
	assert.False(t, ok, "guessers must not see the word")
	chosen, ok := hasType(guestMsgs, TypeWordChosen)
	require.True(t, ok)
	var mask struct {
		WordMask string `json:"wordMask"`
	}
	require.NoError(t, json.Unmarshal(chosen.Data, &mask))
	assert.NotContains(t, mask.WordMask, word[:1])
}

func TestChooseWordOnlyDrawer(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	r.StartGame(host, nil)
	defer stopTimers(r)
	require.NotNil(t, r.Game)
	choices := r.Game.WordChoices()

	r.ChooseWord(guest, json.RawMessage(`{"word":"`+choices[0]+`"}`))
	assert.Equal(t, GamePhaseChoosing, r.Game.Phase)
}

func TestHandleGuessCorrectScoresAndEndsTurn(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)

	r.handleGuess(guest, WSMessage{Type: TypeGuess, Data: json.RawMessage(`{"guess":"Zebra"}`)})

	assert.True(t, r.Game.GuessedPlayers["p1"])
	assert.GreaterOrEqual(t, guest.Points, guesserBasePoints)

	// Sole guesser found the word, so the turn ends and the drawer is paid.
	assert.Equal(t, GamePhaseTurnEnd, r.Game.Phase)
	assert.Equal(t, drawerPointsPerHit, host.Points)

	guestMsgs := drain(t, guest)
	_, ok := hasType(guestMsgs, TypeTurnEnd)
	assert.True(t, ok)
}

func TestHandleGuessCloseHint(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	other := newTestPlayer("p2", "Two")
	addPlayer(r, host)
	addPlayer(r, guest)
	addPlayer(r, other)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)

	r.handleGuess(guest, WSMessage{Type: TypeGuess, Data: json.RawMessage(`{"guess":"zebr"}`)})

	assert.False(t, r.Game.GuessedPlayers["p1"])
	assert.Zero(t, guest.Points)

	guestMsgs := drain(t, guest)
	msg, ok := hasType(guestMsgs, TypeMessage)
	require.True(t, ok)
	var inner WSMessage
	require.NoError(t, json.Unmarshal(msg.Data, &inner))
	assert.Equal(t, "close_guess", inner.Type)
	var notice guessNotice
	require.NoError(t, json.Unmarshal(inner.Data, &notice))
	assert.Equal(t, 1, notice.EditDistance)

	otherMsgs := drain(t, other)
	msg, ok = hasType(otherMsgs, TypeMessage)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(msg.Data, &inner))
	var otherNotice guessNotice
	require.NoError(t, json.Unmarshal(inner.Data, &otherNotice))
	assert.Zero(t, otherNotice.EditDistance, "distance is masked for everyone else")
}

func TestHandleGuessPlainChat(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)

	r.handleGuess(guest, WSMessage{Type: TypeMessage, Data: json.RawMessage(`{"message":"hello there"}`)})

	assert.False(t, r.Game.GuessedPlayers["p1"])
	hostMsgs := drain(t, host)
	msg, ok := hasType(hostMsgs, TypeMessage)
	require.True(t, ok)
	var inner WSMessage
	require.NoError(t, json.Unmarshal(msg.Data, &inner))
	assert.Equal(t, "chat_msg", inner.Type)
}

func TestGuessedPlayerChatsOnlyToSelf(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	other := newTestPlayer("p2", "Two")
	addPlayer(r, host)
	addPlayer(r, guest)
	addPlayer(r, other)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)
	r.Game.GuessedPlayers["p1"] = true

	r.handleGuess(guest, WSMessage{Type: TypeMessage, Data: json.RawMessage(`{"message":"it was zebra"}`)})

	assert.NotEmpty(t, drain(t, guest))
	assert.Empty(t, drain(t, other), "post-guess chat must not reach others")
}

func TestStrokeGatedToDrawer(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)

	stroke := json.RawMessage(`{"strokeColor":"#000","strokeWidth":2,"paths":[{"x":1,"y":2}]}`)

	r.handleStroke(guest, stroke)
	assert.Empty(t, r.Strokes, "non-drawer strokes are dropped during a turn")

	r.handleStroke(host, stroke)
	assert.Len(t, r.Strokes, 1)

	r.handleUndo(host)
	assert.Empty(t, r.Strokes)
}

func TestLobbyDoodlingAllowed(t *testing.T) {
	r := newTestRoom("host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, guest)

	r.handleStroke(guest, json.RawMessage(`{"strokeColor":"#000","strokeWidth":2,"paths":[]}`))
	assert.Len(t, r.Strokes, 1)
}

func TestSendGameStateSnapshot(t *testing.T) {
	r := newTestRoom("host")
	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	addPlayer(r, host)
	addPlayer(r, guest)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)

	late := newTestPlayer("p2", "Late")
	addPlayer(r, late)
	r.SendGameState(late)

	msgs := drain(t, late)
	state, ok := hasType(msgs, TypeGameState)
	require.True(t, ok)

	var snapshot RoomSnapshot
	require.NoError(t, json.Unmarshal(state.Data, &snapshot))
	assert.Equal(t, "testroom", snapshot.RoomID)
	assert.Len(t, snapshot.Players, 3)
	require.NotNil(t, snapshot.Game)
	assert.Equal(t, GamePhaseDrawing, snapshot.Game.Phase)
	assert.Equal(t, "_____", snapshot.Game.WordMask)

	_, ok = hasType(msgs, TypeCurrentWord)
	assert.False(t, ok, "snapshot must not leak the word to non-drawers")
}

func TestManagerDirectoryLookups(t *testing.T) {
	rm := NewRoomManager(Hooks{})
	r := rm.newRoom("host")
	rm.Lock()
	rm.Rooms[r.ID] = r
	rm.Unlock()

	p := newTestPlayer("p1", "One")
	addPlayer(r, p)

	assert.True(t, rm.RoomExists(r.ID))
	assert.False(t, rm.RoomExists("nope"))
	assert.True(t, rm.InRoom(r.ID, "p1"))
	assert.True(t, rm.InRoom(r.ID, "host"), "host counts before their socket is up")
	assert.False(t, rm.InRoom(r.ID, "stranger"))
	assert.True(t, rm.HasHost("host"))
	assert.False(t, rm.HasHost("p1"))
}

func TestRunArchivesPlayedRoomOnLastLeave(t *testing.T) {
	var mu sync.Mutex
	var closed []RoomSummary
	var left []string
	hooks := Hooks{
		PlayerLeft: func(id string) {
			mu.Lock()
			left = append(left, id)
			mu.Unlock()
		},
		RoomClosed: func(s RoomSummary) {
			mu.Lock()
			closed = append(closed, s)
			mu.Unlock()
		},
	}
	rm := NewRoomManager(hooks)
	r := rm.newRoom("host")
	rm.Lock()
	rm.Rooms[r.ID] = r
	rm.Unlock()
	go r.Run(rm)

	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	r.Register <- host
	r.Register <- guest

	// wait for registration
	require.Eventually(t, func() bool {
		r.Mu.RLock()
		defer r.Mu.RUnlock()
		return len(r.Players) == 2
	}, time.Second, 5*time.Millisecond)

	r.StartGame(host, nil)
	defer stopTimers(r)
	require.NotNil(t, r.Game)

	r.Unregister <- guest
	r.Unregister <- host

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(closed) == 1
	}, time.Second, 5*time.Millisecond)
	_, ok := rm.GetRoom(r.ID)
	require.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, closed, 1)
	assert.Equal(t, r.ID, closed[0].RoomID)
	assert.Len(t, closed[0].Players, 2)
	assert.ElementsMatch(t, []string{"p1", "host"}, left)
}

func TestRunDropsDrawerAndEndsTurn(t *testing.T) {
	rm := NewRoomManager(Hooks{})
	r := rm.newRoom("host")
	rm.Lock()
	rm.Rooms[r.ID] = r
	rm.Unlock()
	go r.Run(rm)

	host := newTestPlayer("host", "Host")
	guest := newTestPlayer("p1", "One")
	other := newTestPlayer("p2", "Two")
	r.Register <- host
	r.Register <- guest
	r.Register <- other

	require.Eventually(t, func() bool {
		r.Mu.RLock()
		defer r.Mu.RUnlock()
		return len(r.Players) == 3
	}, time.Second, 5*time.Millisecond)

	startDrawingWithWord(t, r, "zebra")
	defer stopTimers(r)

	r.Unregister <- host // the drawer leaves mid-turn

	require.Eventually(t, func() bool {
		r.Mu.RLock()
		defer r.Mu.RUnlock()
		return r.Game.Phase == GamePhaseTurnEnd
	}, time.Second, 5*time.Millisecond)

	// The turn passes to the player right after the departed drawer, and
	// the round counter is untouched.
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	assert.Equal(t, "p1", r.Game.CurrentDrawer())
	assert.Equal(t, 1, r.Game.Round)
}

func TestRunIgnoresStaleUnregisterAfterReconnect(t *testing.T) {
	rm := NewRoomManager(Hooks{})
	r := rm.newRoom("host")
	rm.Lock()
	rm.Rooms[r.ID] = r
	rm.Unlock()
	go r.Run(rm)

	first := newTestPlayer("p1", "One")
	r.Register <- first
	require.Eventually(t, func() bool {
		r.Mu.RLock()
		defer r.Mu.RUnlock()
		return len(r.Players) == 1
	}, time.Second, 5*time.Millisecond)

	// Same player reconnects before the old connection's unregister lands.
	second := newTestPlayer("p1", "One")
	r.Register <- second
	require.Eventually(t, func() bool {
		r.Mu.RLock()
		defer r.Mu.RUnlock()
		return r.Players["p1"] == second
	}, time.Second, 5*time.Millisecond)

	r.Unregister <- first

	// The stale unregister must not evict the live connection or tear the
	// room down.
	time.Sleep(50 * time.Millisecond)
	r.Mu.RLock()
	assert.Same(t, second, r.Players["p1"])
	r.Mu.RUnlock()
	_, ok := rm.GetRoom(r.ID)
	assert.True(t, ok)

	r.Unregister <- second
	require.Eventually(t, func() bool {
		_, ok := rm.GetRoom(r.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}
