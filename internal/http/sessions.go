package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/web"
)

// SessionHeader lets API clients without cookies name their search session.
const SessionHeader = "X-Session-ID"

// anonymousSessionID is shared by clients that send neither a cookie session
// nor a session header.
const anonymousSessionID = "anonymous"

// sessionResolver picks the search session id for a request.
type sessionResolver struct {
	cookies *web.SessionManager // nil when cookie sessions are off
}

// resolve returns the search session id for c. With create unset, a browser
// that has no search session yet reports false instead of being given one.
func (r sessionResolver) resolve(c *gin.Context, create bool) (string, bool) {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id, true
	}
	if r.cookies == nil {
		return anonymousSessionID, true
	}
	if create {
		return r.cookies.SearchSessionID(c.Request.Context()), true
	}
	return r.cookies.ExistingSearchSessionID(c.Request.Context())
}
