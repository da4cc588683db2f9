package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authbridge/apperr"
	"authbridge/middleware"
	"authbridge/service"
)

// IdentityHandler exposes the newer backend's REST surface: account
// sign-in/sign-up, revocable sessions, capability flags, and the
// operator-facing migration report.
type IdentityHandler struct {
	identity *service.IdentityService
	linker   *service.LinkerService
}

func NewIdentityHandler(identity *service.IdentityService, linker *service.LinkerService) *IdentityHandler {
	return &IdentityHandler{identity: identity, linker: linker}
}

type IdentityCredentialsInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

func (h *IdentityHandler) SignUp(c *gin.Context) {
	var input IdentityCredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	session, tok, user, err := h.identity.SignUp(c.Request.Context(), input.Email, input.Password, input.Name, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondErr(c, err)
		return
	}

	c.SetCookie(middleware.CookieSessionToken, tok, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()), "/", "", false, true)
	c.JSON(http.StatusCreated, gin.H{"token": tok, "session": session, "user": user})
}

func (h *IdentityHandler) SignIn(c *gin.Context) {
	var input IdentityCredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	session, tok, user, err := h.identity.SignIn(c.Request.Context(), input.Email, input.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondErr(c, err)
		return
	}

	c.SetCookie(middleware.CookieSessionToken, tok, int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": tok, "session": session, "user": user})
}

func (h *IdentityHandler) SignOut(c *gin.Context) {
	tokenString := middleware.ExtractToken(c, middleware.CookieSessionToken)
	if tokenString == "" {
		respondErr(c, apperr.ErrUnauthorized)
		return
	}
	if err := h.identity.SignOut(c.Request.Context(), tokenString); err != nil {
		respondErr(c, err)
		return
	}
	c.SetCookie(middleware.CookieSessionToken, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *IdentityHandler) Session(c *gin.Context) {
	tokenString := middleware.ExtractToken(c, middleware.CookieSessionToken)
	if tokenString == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	result, err := h.identity.Resolve(c.Request.Context(), tokenString)
	if err != nil {
		respondErr(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "session": result.Session, "user": result.User})
}

func (h *IdentityHandler) Features(c *gin.Context) {
	c.JSON(http.StatusOK, h.identity.Features())
}

// MigrationStatus runs behind RequireSession + admin role.
func (h *IdentityHandler) MigrationStatus(c *gin.Context) {
	snapshot, err := h.linker.MigrationStatus(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
