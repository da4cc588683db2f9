package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"authbridge/apperr"
	"authbridge/middleware"
	"authbridge/repository"
	"authbridge/service"
	"authbridge/token"
)

// LegacyEndpointsConfig independently gates the legacy REST surface.
type LegacyEndpointsConfig struct {
	Enabled bool
	REST    bool
}

type AuthHandler struct {
	service   *service.AuthService
	identity  *service.IdentityService
	users     *repository.UserRepository
	tokens    *token.Manager
	tokenRepo repository.TokenRepository
	legacy    LegacyEndpointsConfig
}

func NewAuthHandler(svc *service.AuthService, identity *service.IdentityService, users *repository.UserRepository, tokens *token.Manager, tokenRepo repository.TokenRepository, legacy LegacyEndpointsConfig) *AuthHandler {
	return &AuthHandler{
		service:   svc,
		identity:  identity,
		users:     users,
		tokens:    tokens,
		tokenRepo: tokenRepo,
		legacy:    legacy,
	}
}

type SignUpInput struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	TermsAccepted bool   `json:"termsAccepted"`
	DeviceID      string `json:"deviceId"`
	DeviceInfo    string `json:"deviceInfo"`
}

type SignInInput struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceID   string `json:"deviceId"`
	DeviceInfo string `json:"deviceInfo"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutInput struct {
	RefreshToken string `json:"refresh_token"`
}

func respondErr(c *gin.Context, err error) {
	e := apperr.From(err)
	c.JSON(e.Status, gin.H{"error": e.Message, "code": e.Code})
}

func bindErr(c *gin.Context, err error) {
	e := apperr.ErrValidationFailed
	c.JSON(e.Status, gin.H{"error": err.Error(), "code": e.Code})
}

// RequireLegacyEnabled rejects legacy REST calls when the surface is
// administratively disabled; the GraphQL-facing service methods stay
// callable regardless.
func (h *AuthHandler) RequireLegacyEnabled() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.legacy.Enabled || !h.legacy.REST {
			e := apperr.ErrLegacyEndpointDisabled
			c.AbortWithStatusJSON(e.Status, gin.H{"error": e.Message, "code": e.Code})
			return
		}
		c.Next()
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var input SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	pair, user, err := h.service.SignUp(c.Request.Context(), service.SignUpInput{
		Email:         input.Email,
		Phone:         input.Phone,
		Password:      input.Password,
		Name:          input.Name,
		TermsAccepted: input.TermsAccepted,
		DeviceID:      input.DeviceID,
		DeviceInfo:    input.DeviceInfo,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var input SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	pair, user, err := h.service.SignIn(c.Request.Context(), input.Email, input.Password, input.DeviceID, input.DeviceInfo)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.SetCookie(middleware.CookieAccessToken, pair.AccessToken, int(pair.ExpiresIn), "/", "", false, true)
	c.SetCookie(middleware.CookieRefreshToken, pair.RefreshToken, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	})
}

func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	confirmToken := c.Query("token")
	if confirmToken == "" {
		respondErr(c, apperr.ErrValidationFailed.WithMessage("token is required"))
		return
	}
	if err := h.service.ConfirmEmail(c.Request.Context(), confirmToken); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email confirmed"})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input RefreshInput
	_ = c.ShouldBindJSON(&input)
	presented := input.RefreshToken
	if presented == "" {
		presented, _ = c.Cookie(middleware.CookieRefreshToken)
	}
	if presented == "" {
		respondErr(c, apperr.ErrValidationFailed.WithMessage("refresh_token required"))
		return
	}

	pair, err := h.service.RefreshTokens(c.Request.Context(), presented)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.SetCookie(middleware.CookieAccessToken, pair.AccessToken, int(pair.ExpiresIn), "/", "", false, true)
	c.SetCookie(middleware.CookieRefreshToken, pair.RefreshToken, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

// SignOut runs behind RequireLegacyAuth, so the claims are in context.
func (h *AuthHandler) SignOut(c *gin.Context) {
	var input SignOutInput
	_ = c.ShouldBindJSON(&input)
	refreshToken := input.RefreshToken
	if refreshToken == "" {
		refreshToken, _ = c.Cookie(middleware.CookieRefreshToken)
	}

	claims := c.MustGet(middleware.CtxClaims).(*token.AccessClaims)
	err := h.service.SignOut(c.Request.Context(), claims.UserID, claims.ID, claims.ExpiresAt.Time, refreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.SetCookie(middleware.CookieAccessToken, "", -1, "/", "", false, true)
	c.SetCookie(middleware.CookieRefreshToken, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// Session resolves the caller's identity from header or cookies without
// requiring one: anonymous callers get {authenticated:false}, never 401.
func (h *AuthHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()

	if tokenString := middleware.ExtractToken(c, ""); tokenString != "" {
		h.resolveToken(c, tokenString)
		return
	}
	if cookie, err := c.Cookie(middleware.CookieAccessToken); err == nil && cookie != "" {
		h.resolveToken(c, cookie)
		return
	}
	if cookie, err := c.Cookie(middleware.CookieSessionToken); err == nil && cookie != "" {
		result, err := h.identity.Resolve(ctx, cookie)
		if err != nil {
			respondErr(c, err)
			return
		}
		if result != nil {
			c.JSON(http.StatusOK, gin.H{"authenticated": true, "via": "session", "session": result.Session, "user": result.User})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// resolveToken classifies a credential: legacy-format first (the "id"
// claim), falling through to the session resolver on wrong format.
func (h *AuthHandler) resolveToken(c *gin.Context, tokenString string) {
	ctx := c.Request.Context()

	claims, err := h.tokens.ParseAccessToken(tokenString)
	if err == nil {
		blacklisted, berr := h.tokenRepo.IsBlacklisted(ctx, claims.ID)
		if berr != nil {
			respondErr(c, berr)
			return
		}
		if !blacklisted {
			user, uerr := h.users.GetByID(claims.UserID)
			if uerr != nil {
				respondErr(c, uerr)
				return
			}
			c.JSON(http.StatusOK, gin.H{"authenticated": true, "via": "legacy", "user": user})
			return
		}
	} else if errors.Is(err, token.ErrWrongFormat) {
		result, rerr := h.identity.Resolve(ctx, tokenString)
		if rerr != nil {
			respondErr(c, rerr)
			return
		}
		if result != nil {
			c.JSON(http.StatusOK, gin.H{"authenticated": true, "via": "session", "session": result.Session, "user": result.User})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}
