package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"authbridge/apperr"
	"authbridge/model"
	"authbridge/repository"
	"authbridge/token"
)

// TokenPair is the bearer + refresh pair handed to clients.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService mints and rotates per-device tokens. Rotation is race-safe:
// the device record swap is a single conditional update, and the superseded
// token id survives in a grace window so a concurrent refresh from another
// tab does not get locked out.
type TokenService struct {
	tokens  *token.Manager
	users   *repository.UserRepository
	devices *repository.DeviceTokenRepository
	store   repository.TokenRepository
	grace   time.Duration
	log     *logrus.Logger
}

func NewTokenService(tokens *token.Manager, users *repository.UserRepository, devices *repository.DeviceTokenRepository, store repository.TokenRepository, grace time.Duration, log *logrus.Logger) *TokenService {
	return &TokenService{
		tokens:  tokens,
		users:   users,
		devices: devices,
		store:   store,
		grace:   grace,
		log:     log,
	}
}

func (s *TokenService) mintPair(user *model.User, tokenID, deviceID string) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Roles, uuid.New().String())
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, tokenID, deviceID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Issue creates a fresh token pair for a device, replacing any prior
// device token record. An empty deviceID gets a generated one, so every
// pair is always device-bound.
func (s *TokenService) Issue(ctx context.Context, user *model.User, deviceID, description string) (*TokenPair, error) {
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	tokenID := uuid.New().String()
	if err := s.devices.Upsert(user.ID, deviceID, tokenID, description); err != nil {
		return nil, err
	}
	return s.mintPair(user, tokenID, deviceID)
}

// Refresh validates a presented refresh token and rotates the device's
// token id. The presented id must match either the current device record
// or an unexpired grace window; anything else is Unauthorized.
func (s *TokenService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefreshToken(presented)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUnauthorized
	}

	rec, err := s.devices.Get(user.ID, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrUnauthorized
	}

	newID := uuid.New().String()

	if rec.TokenID == claims.ID {
		rotated, err := s.devices.Rotate(user.ID, claims.DeviceID, claims.ID, newID)
		if err != nil {
			return nil, err
		}
		if rotated {
			s.openGraceWindow(ctx, user.ID, claims.DeviceID, claims.ID)
			return s.mintPair(user, newID, claims.DeviceID)
		}
		// Lost the rotation race between Get and Rotate; the winner has
		// opened a grace window for the id we hold. Fall through.
	}

	inGrace, err := s.store.InGraceWindow(ctx, user.ID, claims.DeviceID, claims.ID)
	if err != nil {
		return nil, err
	}
	if !inGrace {
		return nil, apperr.ErrUnauthorized
	}

	// Grace path: rotate whatever is current now. If yet another refresh
	// rotates first, answer with the live id instead of erroring; both
	// callers end up holding valid refresh tokens for the same record.
	cur, err := s.devices.Get(user.ID, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, apperr.ErrUnauthorized
	}
	rotated, err := s.devices.Rotate(user.ID, claims.DeviceID, cur.TokenID, newID)
	if err != nil {
		return nil, err
	}
	if rotated {
		s.openGraceWindow(ctx, user.ID, claims.DeviceID, cur.TokenID)
		return s.mintPair(user, newID, claims.DeviceID)
	}
	live, err := s.devices.Get(user.ID, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, apperr.ErrUnauthorized
	}
	return s.mintPair(user, live.TokenID, claims.DeviceID)
}

func (s *TokenService) openGraceWindow(ctx context.Context, userID uint, deviceID, oldTokenID string) {
	win := model.GraceWindow{
		TokenID:   oldTokenID,
		DeviceID:  deviceID,
		CreatedAt: time.Now(),
	}
	if err := s.store.PutGraceWindow(ctx, userID, deviceID, win, s.grace); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"device_id": deviceID,
		}).Warn("failed to open token grace window")
	}
}

// Revoke invalidates a device's refresh token and blacklists the current
// access token until it would have expired.
func (s *TokenService) Revoke(ctx context.Context, userID uint, deviceID, jti string, accessExpiry time.Time) error {
	if jti != "" {
		if err := s.store.BlacklistAccessToken(ctx, jti, time.Until(accessExpiry)); err != nil {
			return err
		}
	}
	if deviceID != "" {
		if err := s.devices.Delete(userID, deviceID); err != nil {
			return err
		}
		if err := s.store.DeleteGraceWindow(ctx, userID, deviceID); err != nil {
			s.log.WithError(err).Warn("failed to delete grace window on revoke")
		}
	}
	return nil
}

// DeviceIDFromRefresh extracts the device binding from a refresh token so
// sign-out can target the right record.
func (s *TokenService) DeviceIDFromRefresh(presented string) (string, error) {
	claims, err := s.tokens.ParseRefreshToken(presented)
	if err != nil {
		return "", apperr.ErrUnauthorized
	}
	return claims.DeviceID, nil
}
