package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken means the token failed signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongFormat means the token is validly signed but belongs to the
	// other issuer format and must be skipped, not cross-interpreted.
	ErrWrongFormat = errors.New("wrong token format")
)

// AccessClaims is the legacy-format bearer token claim set. The "id" claim
// is what classifies a token as legacy-format. DeviceID is never set on
// access tokens; the parser uses its presence to reject refresh tokens,
// which also carry "id".
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   uint     `json:"id,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	DeviceID string   `json:"did,omitempty"`
}

// RefreshClaims carries the rotating token id (in RegisteredClaims.ID) and
// the device it was issued to.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"id,omitempty"`
	DeviceID string `json:"did,omitempty"`
}

// SessionClaims is the new-format token claim set: the subject is a
// revocable session id, not a user id.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}

// Manager signs and verifies the three token kinds with a shared HS256
// secret. Safe for concurrent use.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessionTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL, sessionTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		sessionTTL: sessionTTL,
	}
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) SessionTTL() time.Duration { return m.sessionTTL }

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return m.secret, nil
}

// GenerateAccessToken mints a short-lived legacy-format bearer token.
func (m *Manager) GenerateAccessToken(userID uint, email string, roles []string, jti string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
		Roles:  roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// GenerateRefreshToken mints a refresh token bound to a device; tokenID is
// the rotating identifier checked against the device token record.
func (m *Manager) GenerateRefreshToken(userID uint, tokenID, deviceID string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   userID,
		DeviceID: deviceID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// GenerateSessionToken mints a new-format token referencing a backing
// session record.
func (m *Manager) GenerateSessionToken(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		SessionID: sessionID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseAccessToken validates a legacy-format bearer token. A validly
// signed token without the "id" claim, or carrying a "did" claim (a
// refresh token), is ErrWrongFormat so the caller never accepts the other
// kinds as bearer credentials.
func (m *Manager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.DeviceID != "" {
		return nil, ErrWrongFormat
	}
	return claims, nil
}

// ParseRefreshToken validates a refresh token and its device binding.
func (m *Manager) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.ID == "" || claims.DeviceID == "" {
		return nil, ErrWrongFormat
	}
	return claims, nil
}

// ParseSessionToken validates a new-format token. Legacy-format tokens
// (no session id) are ErrWrongFormat, never resolved against the session
// store.
func (m *Manager) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" {
		return nil, ErrWrongFormat
	}
	return claims, nil
}
