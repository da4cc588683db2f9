package handlers

import (
	"github.com/gin-gonic/gin"

	"authbridge/middleware"
	"authbridge/ratelimit"
)

// Guard names the resolver a route requires.
type Guard int

const (
	GuardNone Guard = iota
	// GuardLegacy needs a valid legacy-format bearer token.
	GuardLegacy
	// GuardSession needs a new-format token with a live backing session.
	GuardSession
)

// Route is one row of the declarative route table: method, path, required
// roles, resolver guard, and whether the legacy-REST gate applies. A single
// register function consumes the table; no reflection, no annotations.
type Route struct {
	Method     string
	Path       string
	Guard      Guard
	Roles      []string
	LegacyREST bool
	Handler    gin.HandlerFunc
}

// Routes builds the full table for both backends.
func Routes(h *AuthHandler, ih *IdentityHandler) []Route {
	return []Route{
		{Method: "POST", Path: "/sign-up/email", LegacyREST: true, Handler: h.SignUp},
		{Method: "POST", Path: "/sign-in/email", LegacyREST: true, Handler: h.SignIn},
		{Method: "GET", Path: "/confirm", LegacyREST: true, Handler: h.ConfirmEmail},
		{Method: "POST", Path: "/refresh", LegacyREST: true, Handler: h.Refresh},
		{Method: "POST", Path: "/sign-out", Guard: GuardLegacy, LegacyREST: true, Handler: h.SignOut},
		{Method: "GET", Path: "/session", Handler: h.Session},

		{Method: "POST", Path: "/identity/sign-up", Handler: ih.SignUp},
		{Method: "POST", Path: "/identity/sign-in", Handler: ih.SignIn},
		{Method: "POST", Path: "/identity/sign-out", Handler: ih.SignOut},
		{Method: "GET", Path: "/identity/session", Handler: ih.Session},
		{Method: "GET", Path: "/identity/features", Handler: ih.Features},
		{Method: "GET", Path: "/identity/migration-status", Guard: GuardSession, Roles: []string{"admin"}, Handler: ih.MigrationStatus},
	}
}

// Register mounts the route table under basePath with the rate limiter in
// front of everything. capabilities maps a sub-path name (two-factor,
// passkey, ...) to its provider handler; every capability route sits
// behind the session guard because providers need a revocable session.
func Register(r gin.IRouter, basePath string, h *AuthHandler, ih *IdentityHandler, am *middleware.AuthMiddleware, limiter *ratelimit.Limiter, capabilities map[string]gin.HandlerFunc) {
	base := r.Group(basePath, middleware.RateLimit(limiter))

	for _, route := range Routes(h, ih) {
		chain := make([]gin.HandlerFunc, 0, 4)
		if route.LegacyREST {
			chain = append(chain, h.RequireLegacyEnabled())
		}
		switch route.Guard {
		case GuardLegacy:
			chain = append(chain, am.RequireLegacyAuth())
		case GuardSession:
			chain = append(chain, am.RequireSession())
		}
		if len(route.Roles) > 0 {
			chain = append(chain, middleware.RequireRoles(route.Roles...))
		}
		chain = append(chain, route.Handler)
		base.Handle(route.Method, route.Path, chain...)
	}

	for name, handler := range capabilities {
		base.Any("/"+name+"/*action", am.RequireSession(), handler)
	}
}
