// Package store persists the per-player state that outlives a live room:
// the archived-room history and the host-subscription registry.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/Dima4663737373/linera-skribble/logger"
)

// Keep the last N archived rooms per player.
const archiveLimit = 50

var ErrAlreadySubscribed = errors.New("already subscribed to another host")

type ArchivedPlayer struct {
	ID     string `json:"playerId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// ArchivedRoom is the historical record retained after a room's deletion.
type ArchivedRoom struct {
	RoomID         string           `json:"roomId"`
	HostID         string           `json:"hostId"`
	Players        []ArchivedPlayer `json:"players"`
	RoundsPlayed   int              `json:"roundsPlayed"`
	Winner         string           `json:"winner,omitempty"`
	ArchivedAtUnix int64            `json:"archivedAt"`
}

// connGetter is the slice of redis.Pool the store needs; tests substitute a
// fake connection.
type connGetter interface {
	Get() redis.Conn
}

type Store struct {
	pool      connGetter
	keyPrefix string
}

func New(pool connGetter, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = "sk:"
	}
	return &Store{pool: pool, keyPrefix: keyPrefix}
}

// NewPool dials Redis with sane pool limits.
func NewPool(addr, password string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     5,
		MaxActive:   20,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{}
			if password != "" {
				opts = append(opts, redis.DialPassword(password))
			}
			return redis.Dial("tcp", addr, opts...)
		},
	}
}

func (s *Store) subscriptionKey(playerID string) string {
	return fmt.Sprintf("%splayer:%s:subscribed_host", s.keyPrefix, playerID)
}

func (s *Store) archiveKey(playerID string) string {
	return fmt.Sprintf("%splayer:%s:archived_rooms", s.keyPrefix, playerID)
}

// Subscribe records that the player follows hostID's room. A player can
// follow at most one host; re-subscribing to the same host is a no-op.
func (s *Store) Subscribe(playerID, hostID string) error {
	conn := s.pool.Get()
	defer conn.Close()

	key := s.subscriptionKey(playerID)
	_, err := redis.String(conn.Do("SET", key, hostID, "NX"))
	if err == nil {
		return nil
	}
	if !errors.Is(err, redis.ErrNil) {
		return fmt.Errorf("store: subscribe %s: %w", playerID, err)
	}

	current, err := redis.String(conn.Do("GET", key))
	if err != nil {
		return fmt.Errorf("store: subscribe %s: read current: %w", playerID, err)
	}
	if current == hostID {
		return nil
	}
	return ErrAlreadySubscribed
}

// EnsureSubscribed subscribes the player to hostID, clearing a leftover
// registration first when its host no longer has a live room. hostLive
// reports whether a host is currently hosting; without the check a
// registration orphaned by a crash would lock the player out forever.
func (s *Store) EnsureSubscribed(playerID, hostID string, hostLive func(string) bool) error {
	err := s.Subscribe(playerID, hostID)
	if !errors.Is(err, ErrAlreadySubscribed) {
		return err
	}

	current, gerr := s.SubscribedHost(playerID)
	if gerr != nil {
		return gerr
	}
	if current != "" && hostLive != nil && hostLive(current) {
		return ErrAlreadySubscribed
	}
	if uerr := s.Unsubscribe(playerID); uerr != nil {
		return uerr
	}
	return s.Subscribe(playerID, hostID)
}

// SubscribedHost returns the host the player follows, or "" when none.
func (s *Store) SubscribedHost(playerID string) (string, error) {
	conn := s.pool.Get()
	defer conn.Close()

	host, err := redis.String(conn.Do("GET", s.subscriptionKey(playerID)))
	if errors.Is(err, redis.ErrNil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: subscribed host for %s: %w", playerID, err)
	}
	return host, nil
}

func (s *Store) Unsubscribe(playerID string) error {
	conn := s.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("DEL", s.subscriptionKey(playerID)); err != nil {
		return fmt.Errorf("store: unsubscribe %s: %w", playerID, err)
	}
	return nil
}

// ArchiveRoom pushes the record onto every participant's history, most
// recent first, trimmed to archiveLimit entries.
func (s *Store) ArchiveRoom(rec ArchivedRoom, participants []string) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal archived room %s: %w", rec.RoomID, err)
	}

	conn := s.pool.Get()
	defer conn.Close()

	for _, pid := range participants {
		key := s.archiveKey(pid)
		if err := conn.Send("LPUSH", key, payload); err != nil {
			return fmt.Errorf("store: queue archive for %s: %w", pid, err)
		}
		if err := conn.Send("LTRIM", key, 0, archiveLimit-1); err != nil {
			return fmt.Errorf("store: queue trim for %s: %w", pid, err)
		}
	}
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("store: flush archive of room %s: %w", rec.RoomID, err)
	}
	for range participants {
		if _, err := conn.Receive(); err != nil {
			return fmt.Errorf("store: archive room %s: %w", rec.RoomID, err)
		}
		if _, err := conn.Receive(); err != nil {
			return fmt.Errorf("store: archive room %s: %w", rec.RoomID, err)
		}
	}
	return nil
}

// ArchivedRooms returns the player's history, most recent first. Entries
// that fail to decode are skipped.
func (s *Store) ArchivedRooms(playerID string) ([]ArchivedRoom, error) {
	conn := s.pool.Get()
	defer conn.Close()

	raws, err := redis.ByteSlices(conn.Do("LRANGE", s.archiveKey(playerID), 0, -1))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: archived rooms for %s: %w", playerID, err)
	}

	out := make([]ArchivedRoom, 0, len(raws))
	for _, raw := range raws {
		var rec ArchivedRoom
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("store: skipping bad archive entry for %s: %v", playerID, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
