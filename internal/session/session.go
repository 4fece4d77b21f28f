// Package session provides Valkey-backed sessions for the back office.
// Sessions are identified by a random cookie value and stored as JSON in
// Valkey with a sliding TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"schoolportal/internal/models"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "school_session"

	// DefaultTTL is how long an idle session lives in Valkey.
	DefaultTTL = 12 * time.Hour

	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrNoSession is returned by writes that need an existing session cookie.
var ErrNoSession = errors.New("no session cookie")

// Data is the session payload: who is signed in, whether the second factor
// has been passed, and a one-shot flash message for the next page.
type Data struct {
	UserID      uuid.UUID   `json:"user_id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	TwoFADone   bool        `json:"two_fa_done"`
	Flash       string      `json:"flash,omitempty"`
	FlashKind   string      `json:"flash_kind,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsAdmin reports whether the signed-in user may change the school
// configuration.
func (d *Data) IsAdmin() bool {
	return d != nil && d.Role.CanEditSettings()
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store. secure marks the cookie Secure and
// should be true whenever the site is served over TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

// Create stores a new session and sets its cookie. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()
	if err := s.save(ctx, id, data); err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return id, nil
}

// Get loads the session named by the request cookie. A missing cookie or
// an expired session returns (nil, nil).
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Update replaces the session payload and resets its TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return fmt.Errorf("session update: %w", ErrNoSession)
	}
	return s.save(ctx, cookie.Value, data)
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// SetFlash stores a message to show on the next page the user loads.
// kind is FlashSuccess or FlashError.
func (s *Store) SetFlash(ctx context.Context, r *http.Request, data *Data, kind, msg string) error {
	data.Flash = msg
	data.FlashKind = kind
	return s.Update(ctx, r, data)
}

// PopFlash returns the pending flash message and its kind, and clears it.
func (s *Store) PopFlash(ctx context.Context, r *http.Request, data *Data) (kind, msg string) {
	if data == nil || data.Flash == "" {
		return "", ""
	}
	kind, msg = data.FlashKind, data.Flash
	if kind == "" {
		kind = FlashSuccess
	}
	data.Flash, data.FlashKind = "", ""
	// A failed clear only means the message shows twice.
	_ = s.Update(ctx, r, data)
	return kind, msg
}

// Destroy removes the session from Valkey and expires the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	if err := s.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})
	return nil
}

func (s *Store) save(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
