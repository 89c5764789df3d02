package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// Gateway headers carrying the authenticated Reddit identity
const (
	HeaderUserID       = "X-Reddit-User-Id"
	HeaderUsername     = "X-Reddit-Username"
	HeaderGatewayToken = "X-Gateway-Token"
)

// Session is the caller's identity for one request
type Session struct {
	ExternalID string
	Username   string
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the request's session, if any
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(Session)
	return session, ok
}

// requireSession rejects requests without gateway identity headers and stores
// the session in the request context
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		externalID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if externalID == "" {
			writeMessage(w, http.StatusUnauthorized, "not logged in")
			return
		}
		username := strings.TrimSpace(r.Header.Get(HeaderUsername))
		if username == "" {
			username = externalID
		}

		ctx := WithSession(r.Context(), Session{ExternalID: externalID, Username: username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireGatewayToken guards the internal endpoints. An empty configured
// token disables them.
func requireGatewayToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeMessage(w, http.StatusForbidden, "internal endpoints are disabled")
				return
			}
			given := r.Header.Get(HeaderGatewayToken)
			if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				writeMessage(w, http.StatusUnauthorized, "invalid gateway token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
