package social

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Dima4663737373/linera-skribble/internal/auth"
)

// Handler exposes the friend and invitation flows over the protected API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the social endpoints on an already-authenticated
// router group.
func (h *Handler) RegisterRoutes(api fiber.Router) {
	api.Get("/friends", h.listFriends)
	api.Delete("/friends/:friendId", h.removeFriend)
	api.Get("/friends/requests", h.listFriendRequests)
	api.Post("/friends/requests", h.sendFriendRequest)
	api.Post("/friends/requests/:id/accept", h.acceptFriendRequest)
	api.Post("/friends/requests/:id/decline", h.declineFriendRequest)

	api.Get("/invites", h.listInvitations)
	api.Get("/invites/sent", h.listSentInvitations)
	api.Post("/invites", h.sendInvitation)
	api.Post("/invites/:id/accept", h.acceptInvitation)
	api.Post("/invites/:id/decline", h.declineInvitation)
}

func (h *Handler) listFriends(c *fiber.Ctx) error {
	friends, err := h.svc.Friends(auth.PlayerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"friends": friends})
}

func (h *Handler) removeFriend(c *fiber.Ctx) error {
	if err := h.svc.RemoveFriend(auth.PlayerID(c), c.Params("friendId")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) listFriendRequests(c *fiber.Ctx) error {
	received, sent, err := h.svc.FriendRequests(auth.PlayerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"received": received, "sent": sent})
}

func (h *Handler) sendFriendRequest(c *fiber.Ctx) error {
	var body struct {
		To string `json:"to"`
	}
	if err := c.BodyParser(&body); err != nil || body.To == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing 'to'"})
	}
	req, err := h.svc.SendFriendRequest(auth.PlayerID(c), auth.PlayerName(c), body.To)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"request": req})
}

func (h *Handler) acceptFriendRequest(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad id"})
	}
	if err := h.svc.AcceptFriendRequest(auth.PlayerID(c), auth.PlayerName(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) declineFriendRequest(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad id"})
	}
	if err := h.svc.DeclineFriendRequest(auth.PlayerID(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) listInvitations(c *fiber.Ctx) error {
	invs, err := h.svc.Invitations(auth.PlayerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"invitations": invs})
}

func (h *Handler) listSentInvitations(c *fiber.Ctx) error {
	invs, err := h.svc.SentInvitations(auth.PlayerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"invitations": invs})
}

func (h *Handler) sendInvitation(c *fiber.Ctx) error {
	var body struct {
		To     string `json:"to"`
		RoomID string `json:"roomId"`
	}
	if err := c.BodyParser(&body); err != nil || body.To == "" || body.RoomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing 'to' or 'roomId'"})
	}
	inv, err := h.svc.SendInvitation(auth.PlayerID(c), auth.PlayerName(c), body.To, body.RoomID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"invitation": inv})
}

func (h *Handler) acceptInvitation(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad id"})
	}
	roomID, err := h.svc.AcceptInvitation(auth.PlayerID(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"roomId": roomID})
}

func (h *Handler) declineInvitation(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad id"})
	}
	if err := h.svc.DeclineInvitation(auth.PlayerID(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrRoomGone):
		status = fiber.StatusGone
	case errors.Is(err, ErrNotAddressee), errors.Is(err, ErrNotInRoom):
		status = fiber.StatusForbidden
	case errors.Is(err, ErrSelfRequest),
		errors.Is(err, ErrAlreadyFriends),
		errors.Is(err, ErrNotFriends):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
