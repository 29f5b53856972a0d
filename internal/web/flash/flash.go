// Package flash carries one-shot notices across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	cookieName = "docket_flash"
	lifetime   = 5 * time.Minute

	// LocalsKey is where Middleware puts the popped message for templates.
	LocalsKey = "Flash"
)

// Message is a flash notice. Error messages render as an alert.
type Message struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty reports whether the message carries nothing.
func (m Message) Empty() bool {
	return m.Success == "" && m.Error == ""
}

// Success sets a success notice.
func Success(c *fiber.Ctx, text string) {
	Set(c, Message{Success: text})
}

// Error sets an error notice.
func Error(c *fiber.Ctx, text string) {
	Set(c, Message{Error: text})
}

// Set stores m in the flash cookie. An empty message clears it.
func Set(c *fiber.Ctx, m Message) {
	m.Success = strings.TrimSpace(m.Success)
	m.Error = strings.TrimSpace(m.Error)

	if m.Empty() {
		clearCookie(c)
		return
	}

	serialized, err := json.Marshal(m)
	if err != nil {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(serialized),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(lifetime),
	})
}

// Pop returns the pending message and clears the cookie.
func Pop(c *fiber.Ctx) Message {
	raw := strings.TrimSpace(c.Cookies(cookieName))
	if raw == "" {
		return Message{}
	}
	clearCookie(c)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Message{}
	}

	var m Message
	if err := json.Unmarshal(decoded, &m); err != nil {
		return Message{}
	}

	return m
}

// Middleware pops the flash message of every request into fiber.Locals.
func Middleware(c *fiber.Ctx) error {
	if m := Pop(c); !m.Empty() {
		c.Locals(LocalsKey, m)
	}

	return c.Next()
}

func clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
