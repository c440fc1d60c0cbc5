package main

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Dima4663737373/linera-skribble/internal/auth"
	"github.com/Dima4663737373/linera-skribble/internal/config"
	"github.com/Dima4663737373/linera-skribble/internal/room"
	"github.com/Dima4663737373/linera-skribble/internal/social"
	"github.com/Dima4663737373/linera-skribble/internal/store"
	"github.com/Dima4663737373/linera-skribble/logger"
	"github.com/Dima4663737373/linera-skribble/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: %v", err)
	}
	logger.SetDebug(cfg.Debug)
	utils.LoadWordBank(cfg.WordBankPath)

	dsn, err := config.MySQLDSN()
	if err != nil {
		logger.Fatal("config: %v", err)
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("mysql: %v", err)
	}
	repo := social.NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Fatal("migrate: %v", err)
	}
	logger.Info("mysql connected")

	st := store.New(store.NewPool(cfg.RedisAddr, cfg.RedisPass), "sk:")

	var svc *social.Service

	rm := room.NewRoomManager(room.Hooks{
		GameStart: func(roomID, hostID string) {
			if err := svc.ClearSentInvitations(hostID); err != nil {
				logger.Error("clearing invitations of host %s: %v", hostID, err)
			}
		},
		PlayerLeft: func(playerID string) {
			if err := st.Unsubscribe(playerID); err != nil {
				logger.Error("unsubscribing %s: %v", playerID, err)
			}
		},
		RoomClosed: func(s room.RoomSummary) {
			rec, participants := toArchive(s)
			if err := st.ArchiveRoom(rec, participants); err != nil {
				logger.Error("archiving room %s: %v", s.RoomID, err)
			}
		},
	})
	svc = social.NewService(repo, rm)

	authMgr := auth.New(cfg.JWTSecret, cfg.TokenTTL)

	app := fiber.New()
	app.Use(cors.New())

	app.Post("/auth/guest", authMgr.GuestHandler)
	app.Post("/room/create", rm.CreateRoomHandler)

	app.Get("/room/:id", func(c *fiber.Ctx) error {
		r, ok := rm.GetRoom(c.Params("id"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "room not found"})
		}
		r.Mu.RLock()
		players := make([]room.PlayerSummary, 0, len(r.Players))
		for _, v := range r.Players {
			players = append(players, room.PlayerSummary{ID: v.ID, Points: v.Points, Name: v.Name})
		}
		r.Mu.RUnlock()
		return c.JSON(fiber.Map{
			"roomId":  r.ID,
			"hostId":  r.HostID,
			"players": players,
		})
	})

	api := app.Group("/api", authMgr.Middleware())

	api.Get("/rooms", func(c *fiber.Ctx) error {
		b, err := rm.MarshalRooms()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "marshal error"})
		}
		return c.JSON(json.RawMessage(b))
	})

	api.Get("/rooms/archived", func(c *fiber.Ctx) error {
		recs, err := st.ArchivedRooms(auth.PlayerID(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"archivedRooms": recs})
	})

	api.Get("/subscription", func(c *fiber.Ctx) error {
		host, err := st.SubscribedHost(auth.PlayerID(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"hostId": host})
	})

	social.NewHandler(svc).RegisterRoutes(api)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/:roomId/:playerId", websocket.New(func(c *websocket.Conn) {
		roomID := c.Params("roomId")
		playerID := c.Params("playerId")
		name := c.Query("name", playerID)

		r, ok := rm.GetRoom(roomID)
		if !ok {
			logger.Info("ws join: room not found: %s", roomID)
			c.Close()
			return
		}

		// One room at a time: a player still subscribed to another live
		// host cannot join here. Registrations whose host has no room
		// anymore (a crash, a restart) are replaced.
		if err := st.EnsureSubscribed(playerID, r.HostID, rm.HasHost); err != nil {
			if errors.Is(err, store.ErrAlreadySubscribed) {
				c.WriteJSON(fiber.Map{"type": room.TypeError, "data": fiber.Map{"error": "already in another room"}})
			} else {
				logger.Error("subscribe %s: %v", playerID, err)
			}
			c.Close()
			return
		}

		pl := room.NewPlayer(playerID, name, c)
		r.Register <- pl
		go pl.ReadPump(r)
		pl.WritePump()
	}))

	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	logger.Info("server starting on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("listen: %v", err)
	}
}

func toArchive(s room.RoomSummary) (store.ArchivedRoom, []string) {
	players := make([]store.ArchivedPlayer, 0, len(s.Players))
	participants := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, store.ArchivedPlayer{ID: p.ID, Name: p.Name, Points: p.Points})
		participants = append(participants, p.ID)
	}
	return store.ArchivedRoom{
		RoomID:         s.RoomID,
		HostID:         s.HostID,
		Players:        players,
		RoundsPlayed:   s.RoundsPlayed,
		Winner:         s.Winner,
		ArchivedAtUnix: s.EndedAtUnix,
	}, participants
}
