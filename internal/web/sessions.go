package web

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/google/uuid"

	"github.com/mrlokans/bookfinder/internal/config"
)

const (
	SessionCookieName = "bookfinder_session"

	sessionKeySearchID = "search_session_id"
)

// SessionManager wraps scs.SessionManager with application-specific methods.
// Cookie sessions are kept in memory; a restart starts every browser afresh.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
func NewSessionManager(cfg config.Session) *SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()

	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// SearchSessionID returns the id of the search session bound to the browser
// session in ctx, assigning a fresh one on first use.
func (sm *SessionManager) SearchSessionID(ctx context.Context) string {
	if id := sm.GetString(ctx, sessionKeySearchID); id != "" {
		return id
	}
	id := uuid.NewString()
	sm.Put(ctx, sessionKeySearchID, id)
	return id
}

// ExistingSearchSessionID returns the bound search session id without
// assigning one.
func (sm *SessionManager) ExistingSearchSessionID(ctx context.Context) (string, bool) {
	id := sm.GetString(ctx, sessionKeySearchID)
	return id, id != ""
}
