// Package session stores the server side session data behind the session cookie.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// ErrNoSession is returned when the request carries no session cookie.
var ErrNoSession = errors.New("no session")

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure.
type Data struct {
	UserID uint64
	// AfterLoginPath is the last protected location requested in this session.
	AfterLoginPath string
	// IDToken is kept for OIDC logout.
	IDToken string
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session with the given ID.
func Delete(sessionID string) error {
	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store. A nil storage keeps sessions in memory.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage:    storage,
		CookieName: CookieName,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// FromRequest reads the session referenced by the request cookie.
func FromRequest(c *fiber.Ctx) (string, *Data, error) {
	sessionID := c.Cookies(CookieName)
	if sessionID == "" {
		return "", nil, ErrNoSession
	}

	data := new(Data)
	if err := data.Read(sessionID); err != nil {
		return sessionID, nil, err
	}

	return sessionID, data, nil
}

// Start creates a new session for userID, writes it and sets the cookie.
// The after login path of the previous session, if any, is carried over.
func Start(c *fiber.Ctx, userID uint64, idToken string, exp time.Duration, secure bool) error {
	var afterLoginPath string

	if oldID, old, err := FromRequest(c); err == nil {
		afterLoginPath = old.AfterLoginPath
		_ = Delete(oldID)
	}

	sessionID, err := GenerateSessionID()
	if err != nil {
		return err
	}

	data := &Data{UserID: userID, AfterLoginPath: afterLoginPath, IDToken: idToken}
	if err = data.Write(sessionID, exp); err != nil {
		return err
	}

	SetCookie(c, sessionID, exp, secure)

	return nil
}

// SetCookie sets the session cookie.
func SetCookie(c *fiber.Ctx, sessionID string, exp time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		MaxAge:   int(exp.Seconds()),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
