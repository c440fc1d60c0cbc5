// Package auth issues guest JWTs and guards the social API.
package auth

import (
	"strings"
	"time"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const maxNameRunes = 32

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// GuestHandler mints an identity for a display name. No accounts: a player
// is their token.
func (m *Manager) GuestHandler(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}
	// truncate on rune boundaries so a multi-byte name stays valid UTF-8
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}

	playerID := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  playerID,
		"name": name,
		"exp":  time.Now().Add(m.ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token signing failed"})
	}

	return c.JSON(fiber.Map{
		"token":    signed,
		"playerId": playerID,
		"name":     name,
	})
}

// Middleware rejects requests without a valid bearer token.
func (m *Manager) Middleware() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: m.secret},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid token"})
		},
	})
}

func claimsOf(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// PlayerID reads the authenticated player id set by Middleware.
func PlayerID(c *fiber.Ctx) string {
	if claims := claimsOf(c); claims != nil {
		if sub, ok := claims["sub"].(string); ok {
			return sub
		}
	}
	return ""
}

// PlayerName reads the authenticated display name set by Middleware.
func PlayerName(c *fiber.Ctx) string {
	if claims := claimsOf(c); claims != nil {
		if name, ok := claims["name"].(string); ok {
			return name
		}
	}
	return ""
}
