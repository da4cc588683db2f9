package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"authbridge/apperr"
	"authbridge/model"
	"authbridge/repository"
	"authbridge/token"
	"authbridge/utils"
)

// IdentityConfig is the newer backend's typed configuration.
type IdentityConfig struct {
	// Enabled is the master switch; when off every operation fails fast.
	Enabled    bool
	SessionTTL time.Duration
	// LoudSyncFailures surfaces best-effort sync failures at warn level.
	LoudSyncFailures bool
	// Capability flags reported by Features. Providers themselves are
	// external collaborators; this service only routes to them.
	TwoFactor   bool
	Passkey     bool
	SocialLogin bool
}

// Features is the capability flag set exposed to clients.
type Features struct {
	TwoFactor   bool `json:"two_factor"`
	Passkey     bool `json:"passkey"`
	SocialLogin bool `json:"social_login"`
}

// SessionResult is a resolved identity: the backing session plus the
// linked legacy user.
type SessionResult struct {
	Session *model.Session `json:"session"`
	User    *model.User    `json:"user"`
}

// IdentityService is the newer session/account backend. Its tokens are
// new-format: possession of a validly signed token is not enough, a
// backing session record must still exist in the store.
type IdentityService struct {
	accounts *repository.AccountRepository
	users    *repository.UserRepository
	sessions repository.SessionRepository
	linker   *LinkerService
	tokens   *token.Manager
	cfg      IdentityConfig
	log      *logrus.Logger
}

func NewIdentityService(accounts *repository.AccountRepository, users *repository.UserRepository, sessions repository.SessionRepository, linker *LinkerService, tokens *token.Manager, cfg IdentityConfig, log *logrus.Logger) *IdentityService {
	return &IdentityService{
		accounts: accounts,
		users:    users,
		sessions: sessions,
		linker:   linker,
		tokens:   tokens,
		cfg:      cfg,
		log:      log,
	}
}

func (s *IdentityService) Enabled() bool {
	return s.cfg.Enabled
}

func (s *IdentityService) Features() Features {
	return Features{
		TwoFactor:   s.cfg.TwoFactor,
		Passkey:     s.cfg.Passkey,
		SocialLogin: s.cfg.SocialLogin,
	}
}

func (s *IdentityService) createSession(ctx context.Context, account *model.Account, user *model.User, ip, userAgent string) (*model.Session, string, error) {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		UserID:    user.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Store(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, "", err
	}
	tok, err := s.tokens.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, "", err
	}
	return session, tok, nil
}

func (s *IdentityService) SignUp(ctx context.Context, email, password, name, ip, userAgent string) (*model.Session, string, *model.User, error) {
	if !s.cfg.Enabled {
		return nil, "", nil, apperr.ErrIdentityDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", nil, apperr.ErrValidationFailed
	}
	existing, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, "", nil, err
	}
	if existing != nil {
		return nil, "", nil, apperr.ErrUserExists
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", nil, err
	}
	account := &model.Account{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		PassHash: hashed,
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, "", nil, err
	}

	user, err := s.linker.LinkOrCreate(ctx, account)
	if err != nil {
		return nil, "", nil, err
	}

	session, tok, err := s.createSession(ctx, account, user, ip, userAgent)
	if err != nil {
		return nil, "", nil, err
	}
	return session, tok, user, nil
}

// SignIn authenticates against the account store. A legacy user whose
// account record was never synced is migrated lazily: the same credential
// check runs against the legacy hash and, on success, an account record is
// created on the spot.
func (s *IdentityService) SignIn(ctx context.Context, email, password, ip, userAgent string) (*model.Session, string, *model.User, error) {
	if !s.cfg.Enabled {
		return nil, "", nil, apperr.ErrIdentityDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return nil, "", nil, err
	}

	if account == nil {
		legacy, err := s.users.GetByEmail(email)
		if err != nil {
			return nil, "", nil, err
		}
		if legacy == nil || !utils.VerifyPassword(password, legacy.PassHash) {
			return nil, "", nil, apperr.ErrInvalidCredentials
		}
		account = &model.Account{
			ID:            uuid.New().String(),
			Email:         legacy.Email,
			Name:          legacy.Name,
			PassHash:      legacy.PassHash,
			EmailVerified: legacy.EmailVerified,
		}
		if err := s.accounts.Create(account); err != nil {
			return nil, "", nil, err
		}
	} else if !utils.VerifyPassword(password, account.PassHash) {
		return nil, "", nil, apperr.ErrInvalidCredentials
	}

	user, err := s.linker.LinkOrCreate(ctx, account)
	if err != nil {
		return nil, "", nil, err
	}

	session, tok, err := s.createSession(ctx, account, user, ip, userAgent)
	if err != nil {
		return nil, "", nil, err
	}
	return session, tok, user, nil
}

// Resolve maps a new-format token to its backing session. Legacy-format
// tokens are skipped (nil result), and a validly signed token whose
// session record is gone resolves to unauthenticated, not an error.
func (s *IdentityService) Resolve(ctx context.Context, tokenString string) (*SessionResult, error) {
	claims, err := s.tokens.ParseSessionToken(tokenString)
	if err != nil {
		return nil, nil
	}
	session, err := s.sessions.Fetch(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	user, err := s.users.GetByID(session.UserID)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Session: session, User: user}, nil
}

// SignOut revokes the backing session; the token is dead immediately.
func (s *IdentityService) SignOut(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ParseSessionToken(tokenString)
	if err != nil {
		return apperr.ErrUnauthorized
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}
