package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"authbridge/apperr"
	"authbridge/model"
	"authbridge/repository"
	"authbridge/service"
	"authbridge/token"
)

// Cookie names used when no Authorization header is present. The header
// always wins over any cookie.
const (
	CookieAccessToken  = "auth_token"
	CookieRefreshToken = "refresh_token"
	CookieSessionToken = "session_token"
)

// Context keys populated by the resolvers.
const (
	CtxUserID   = "user_id"
	CtxUser     = "user"
	CtxRoles    = "roles"
	CtxClaims   = "claims"
	CtxSession  = "session"
	CtxResolved = "resolved_via"
)

type AuthMiddleware struct {
	tokens    *token.Manager
	tokenRepo repository.TokenRepository
	users     *repository.UserRepository
	identity  *service.IdentityService
}

func NewAuthMiddleware(tokens *token.Manager, tokenRepo repository.TokenRepository, users *repository.UserRepository, identity *service.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:    tokens,
		tokenRepo: tokenRepo,
		users:     users,
		identity:  identity,
	}
}

// ExtractToken pulls the credential from the request: Authorization bearer
// header first, then the named cookie.
func ExtractToken(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return tokenString
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func abortErr(c *gin.Context, err error) {
	e := apperr.From(err)
	c.AbortWithStatusJSON(e.Status, gin.H{"error": e.Message, "code": e.Code})
}

// RequireLegacyAuth gates a route on a valid legacy-format bearer token.
// New-format tokens are skipped by the parser, never cross-interpreted.
func (m *AuthMiddleware) RequireLegacyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c, CookieAccessToken)
		if tokenString == "" {
			abortErr(c, apperr.ErrUnauthorized)
			return
		}

		claims, err := m.tokens.ParseAccessToken(tokenString)
		if err != nil {
			abortErr(c, apperr.ErrUnauthorized)
			return
		}

		blacklisted, err := m.tokenRepo.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			abortErr(c, err)
			return
		}
		if blacklisted {
			abortErr(c, apperr.ErrUnauthorized)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRoles, model.RoleList(claims.Roles))
		c.Set(CtxClaims, claims)
		c.Set(CtxResolved, "legacy")
		c.Next()
	}
}

// RequireSession gates a route on a new-format token with a live backing
// session record. Signature validity alone is not enough here: capability
// endpoints need a revocable session object.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c, CookieSessionToken)
		if tokenString == "" {
			abortErr(c, apperr.ErrUnauthorized)
			return
		}

		result, err := m.identity.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			abortErr(c, err)
			return
		}
		if result == nil {
			abortErr(c, apperr.ErrUnauthorized)
			return
		}

		c.Set(CtxSession, result.Session)
		if result.User != nil {
			c.Set(CtxUserID, result.User.ID)
			c.Set(CtxUser, result.User)
			c.Set(CtxRoles, result.User.Roles)
		}
		c.Set(CtxResolved, "session")
		c.Next()
	}
}

// RequireRoles gates a route on the resolved identity carrying every
// listed role.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := c.Get(CtxRoles)
		if !ok {
			abortErr(c, apperr.ErrForbidden)
			return
		}
		have, _ := got.(model.RoleList)
		for _, role := range roles {
			if !have.Has(role) {
				abortErr(c, apperr.ErrForbidden)
				return
			}
		}
		c.Next()
	}
}
