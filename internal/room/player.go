package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/Dima4663737373/linera-skribble/logger"
)

type Player struct {
	ID     string             `json:"playerId"`
	Points int                `json:"points"`
	Name   string             `json:"name"`
	conn   *websocket.Conn    `json:"-"`
	send   chan []byte        `json:"-"`
	ctx    context.Context    `json:"-"`
	cancel context.CancelFunc `json:"-"`
	once   sync.Once          `json:"-"`
}

func NewPlayer(id, name string, c *websocket.Conn) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		ID:     id,
		Name:   name,
		conn:   c,
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (p *Player) cleanup() {
	p.once.Do(func() {
		p.cancel() // Cancel context first
		close(p.send)
		p.conn.Close()
	})
}

func (p *Player) ReadPump(r *Room) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("player %s readPump panic: %v", p.ID, rec)
		}
		p.cleanup()
		r.Unregister <- p
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
			_, msg, err := p.conn.ReadMessage()
			if err != nil {
				logger.Debug("ReadMessage error for player %s: %v", p.ID, err)
				return
			}

			var wsMsg WSMessage
			if err := json.Unmarshal(msg, &wsMsg); err != nil {
				logger.Info("invalid WS message from player %s: %v", p.ID, err)
				continue
			}

			switch wsMsg.Type {
			case TypeStartGame:
				r.StartGame(p, wsMsg.Data)

			case TypeChooseWord:
				r.ChooseWord(p, wsMsg.Data)

			case TypeGuess, TypeMessage:
				r.handleGuess(p, wsMsg)

			case TypeStroke:
				r.handleStroke(p, wsMsg.Data)

			case TypeDrawPoint:
				r.handleDrawPoint(p, wsMsg.Data)

			case TypeUndo:
				r.handleUndo(p)

			case TypeClear:
				r.handleClear(p)

			default:
				r.broadcast(msg)
			}
		}
	}
}

func (p *Player) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		p.cleanup()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return

		case msg, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("WriteMessage error for player %s: %v", p.ID, err)
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("ping error for player %s: %v", p.ID, err)
				return
			}
		}
	}
}
