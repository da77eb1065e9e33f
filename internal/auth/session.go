package auth

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/antonlindstrom/pgstore"
	"github.com/gorilla/sessions"
)

const (
	SessionName = "quizhub_oauth2"
	stateKey    = "state"
)

// SessionStore is a gorilla session store plus a function that stops any
// background work it started.
type SessionStore struct {
	sessions.Store
	stop func()
}

func (s *SessionStore) Close() {
	if s.stop != nil {
		s.stop()
	}
}

func cookieOptions(maxAge time.Duration) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieStore keeps the session in a signed cookie.
func NewCookieStore(maxAge time.Duration, keyPairs ...[]byte) *SessionStore {
	store := sessions.NewCookieStore(keyPairs...)
	store.Options = cookieOptions(maxAge)
	return &SessionStore{Store: store}
}

// NewPGStore keeps sessions in the application database and purges expired
// rows every cleanupInterval.
func NewPGStore(db *sql.DB, maxAge, cleanupInterval time.Duration, keyPairs ...[]byte) (*SessionStore, error) {
	store, err := pgstore.NewPGStoreFromPool(db, keyPairs...)
	if err != nil {
		return nil, fmt.Errorf("creating pg session store: %w", err)
	}

	store.Options = cookieOptions(maxAge)

	quit, done := store.Cleanup(cleanupInterval)

	return &SessionStore{
		Store: store,
		stop:  func() { store.StopCleanup(quit, done) },
	}, nil
}

func GetSession(store sessions.Store, r *http.Request) (*sessions.Session, error) {
	return store.Get(r, SessionName)
}
