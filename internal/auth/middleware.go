package auth

import (
	"net/http"
)

// Authenticator checks admin credentials on protected routes. The key is
// configured either as plain text (compared in constant time) or as a
// bcrypt hash; when both are set the plain key wins.
type Authenticator struct {
	adminKey     string
	adminKeyHash string
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(adminKey, adminKeyHash string) *Authenticator {
	return &Authenticator{adminKey: adminKey, adminKeyHash: adminKeyHash}
}

// Enabled reports whether any admin credential is configured. With no
// credential, protected routes reject every request.
func (a *Authenticator) Enabled() bool {
	return a.adminKey != "" || a.adminKeyHash != ""
}

// Verify checks a bearer token from an Authorization header value.
// Returns an empty string on success or a client-safe failure reason.
func (a *Authenticator) Verify(authHeader string) string {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return "missing bearer token"
	}
	if !a.Enabled() {
		return "admin API is disabled"
	}
	if a.adminKey != "" {
		if VerifyAPIKeyConstantTime(token, a.adminKey) {
			return ""
		}
		return "invalid token"
	}
	if VerifyAPIKey(token, a.adminKeyHash) {
		return ""
	}
	return "invalid token"
}

// RequireAdmin wraps a handler so it only runs for authenticated requests.
// The onReject callback writes the error response in the server's format.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc, onReject func(w http.ResponseWriter, r *http.Request, reason string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reason := a.Verify(r.Header.Get("Authorization")); reason != "" {
			onReject(w, r, reason)
			return
		}
		next.ServeHTTP(w, r)
	}
}
