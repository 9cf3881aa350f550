package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/AaronLay10/DecisionSim/internal/config"
)

// Role is an authorization role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// Auth checks HTTP basic auth credentials. A nil or disabled Auth grants admin
// to every request.
type Auth struct {
	creds config.Credentials
}

func NewAuth(creds config.Credentials) *Auth {
	return &Auth{creds: creds}
}

// Enabled returns true if admin credentials are configured.
func (a *Auth) Enabled() bool {
	return a != nil && a.creds.Enabled()
}

// authenticate returns "" for invalid credentials.
func (a *Auth) authenticate(r *http.Request) Role {
	if !a.Enabled() {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	if secureCompare(user, a.creds.AdminUser) && secureCompare(pass, a.creds.AdminPass) {
		return RoleAdmin
	}
	if a.creds.PlayerUser != "" && a.creds.PlayerPass != "" &&
		secureCompare(user, a.creds.PlayerUser) && secureCompare(pass, a.creds.PlayerPass) {
		return RolePlayer
	}
	return ""
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="DecisionSim"`)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

// RequireRole wraps a handler and requires one of the given roles.
func (a *Auth) RequireRole(handler http.HandlerFunc, allowed ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := a.authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, ok := range allowed {
			if role == ok {
				handler(w, r)
				return
			}
		}
		writeError(w, http.StatusForbidden, "forbidden")
	}
}

// RequireAnyRole allows admins and players.
func (a *Auth) RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return a.RequireRole(handler, RoleAdmin, RolePlayer)
}

// RequireAdmin allows admins only.
func (a *Auth) RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return a.RequireRole(handler, RoleAdmin)
}
