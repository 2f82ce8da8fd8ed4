// Package sessions keeps the authenticated user and one-time flash messages
// in a server-side fiber session.
package sessions

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	CategorySuccess = "success"
	CategoryWarning = "warning"
	CategoryDanger  = "danger"
)

const (
	localsKey = "tasktracker.session"
	userKey   = "user_id"
	flashKey  = "_flashes"
)

// Flash is a message shown on the next rendered page and then discarded.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type Config struct {
	// Storage defaults to fiber's in-memory storage.
	Storage      fiber.Storage
	Expiration   time.Duration
	CookieSecure bool
}

// Manager loads at most one session per request and saves it after the
// handler chain when it changed.
type Manager struct {
	store *session.Store
}

func NewManager(cfg Config) *Manager {
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	return &Manager{store: session.New(session.Config{
		Storage:        cfg.Storage,
		Expiration:     cfg.Expiration,
		KeyLookup:      "cookie:session_id",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})}
}

// Middleware persists the request's session once the chain has run.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if s, ok := c.Locals(localsKey).(*Session); ok && s.dirty {
			if serr := s.raw.Save(); serr != nil && err == nil {
				err = serr
			}
		}
		return err
	}
}

// From returns the request's session, loading it on first use. fiber
// sessions must not be touched after Save, so every caller in a request
// shares this one instance.
func (m *Manager) From(c *fiber.Ctx) (*Session, error) {
	if s, ok := c.Locals(localsKey).(*Session); ok {
		return s, nil
	}
	raw, err := m.store.Get(c)
	if err != nil {
		return nil, err
	}
	s := &Session{raw: raw}
	c.Locals(localsKey, s)
	return s, nil
}

// Session wraps a fiber session and tracks whether it needs saving.
type Session struct {
	raw   *session.Session
	dirty bool
}

// UserID returns the authenticated user id, if any.
func (s *Session) UserID() (uint, bool) {
	id, ok := s.raw.Get(userKey).(uint)
	return id, ok && id != 0
}

// Login binds userID to a new session id so a pre-login id cannot be reused.
func (s *Session) Login(userID uint) error {
	if err := s.raw.Regenerate(); err != nil {
		return err
	}
	s.raw.Set(userKey, userID)
	s.dirty = true
	return nil
}

// Logout drops the identity and rotates the session id. Pending flashes
// survive so the logout message can be shown.
func (s *Session) Logout() error {
	s.raw.Delete(userKey)
	if err := s.raw.Regenerate(); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(category, message string) {
	flashes := append(s.peek(), Flash{Category: category, Message: message})
	b, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	s.raw.Set(flashKey, string(b))
	s.dirty = true
}

// Flashes returns and clears the queued messages.
func (s *Session) Flashes() []Flash {
	flashes := s.peek()
	if len(flashes) > 0 {
		s.raw.Delete(flashKey)
		s.dirty = true
	}
	return flashes
}

func (s *Session) peek() []Flash {
	raw, _ := s.raw.Get(flashKey).(string)
	if raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}
