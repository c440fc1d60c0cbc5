package room

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/Dima4663737373/linera-skribble/pkg/utils"
)

type RoomManager struct {
	Rooms map[string]*Room
	sync.RWMutex

	hooks Hooks
}

func NewRoomManager(hooks Hooks) *RoomManager {
	return &RoomManager{
		Rooms: make(map[string]*Room),
		hooks: hooks,
	}
}

func (rm *RoomManager) newRoom(hostID string) *Room {
	return &Room{
		ID:         utils.GenShortID(),
		Players:    make(map[string]*Player),
		HostID:     hostID,
		Register:   make(chan *Player, 10),
		Unregister: make(chan *Player, 10),
		Broadcast:  make(chan []byte, 100),
		done:       make(chan struct{}),
		seen:       make(map[string]*PlayerSummary),
		hooks:      &rm.hooks,
	}
}

func (rm *RoomManager) CreateRoomHandler(c *fiber.Ctx) error {
	var body struct {
		HostID string `json:"hostId"`
	}
	_ = json.Unmarshal(c.Body(), &body)

	room := rm.newRoom(body.HostID)

	rm.Lock()
	rm.Rooms[room.ID] = room
	rm.Unlock()

	go room.Run(rm)

	return c.JSON(fiber.Map{
		"roomId": room.ID,
	})
}

func (rm *RoomManager) GetRoom(id string) (*Room, bool) {
	rm.RLock()
	defer rm.RUnlock()
	r, ok := rm.Rooms[id]
	return r, ok
}

// RoomExists reports whether the room is still live.
func (rm *RoomManager) RoomExists(id string) bool {
	_, ok := rm.GetRoom(id)
	return ok
}

// InRoom reports whether the player is connected to the room or hosts it.
// The host counts as in the room before their socket is up, since rooms are
// created over HTTP ahead of the websocket join.
func (rm *RoomManager) InRoom(roomID, playerID string) bool {
	r, ok := rm.GetRoom(roomID)
	if !ok {
		return false
	}
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	if r.HostID == playerID {
		return true
	}
	_, in := r.Players[playerID]
	return in
}

// HasHost reports whether any live room is hosted by hostID.
func (rm *RoomManager) HasHost(hostID string) bool {
	rm.RLock()
	defer rm.RUnlock()
	for _, r := range rm.Rooms {
		if r.HostID == hostID {
			return true
		}
	}
	return false
}

func (rm *RoomManager) MarshalRooms() ([]byte, error) {
	rm.RLock()
	defer rm.RUnlock()

	out := make(map[string]any, len(rm.Rooms))
	for id, r := range rm.Rooms {
		r.Mu.RLock()
		entry := fiber.Map{
			"roomId":  r.ID,
			"hostId":  r.HostID,
			"players": len(r.Players),
		}
		if r.Game != nil {
			entry["phase"] = r.Game.Phase
		} else {
			entry["phase"] = GamePhaseLobby
		}
		r.Mu.RUnlock()
		out[id] = entry
	}
	return json.Marshal(out)
}
