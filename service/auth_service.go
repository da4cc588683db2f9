package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/sirupsen/logrus"

	"authbridge/apperr"
	"authbridge/model"
	"authbridge/repository"
	"authbridge/utils"
)

// Mailer delivers confirmation links. Email transport is a collaborator;
// a nil Mailer disables delivery without touching the sign-up flow.
type Mailer interface {
	SendConfirmation(toEmail, confirmToken string) error
}

// AuthConfig is the legacy email/password backend's typed configuration.
type AuthConfig struct {
	DisableSignUp            bool
	RequireTerms             bool
	RequireEmailVerification bool
	// DefaultPhoneRegion is the region phone identifiers are parsed
	// against when they carry no country prefix.
	DefaultPhoneRegion string
}

type SignUpInput struct {
	Email         string
	Phone         string
	Password      string
	Name          string
	TermsAccepted bool
	DeviceID      string
	DeviceInfo    string
}

// AuthService is the legacy password backend: sign-up, sign-in, email
// confirmation. Every successful primary operation triggers a best-effort
// sync into the newer backend via the linker.
type AuthService struct {
	users  *repository.UserRepository
	tokens *TokenService
	linker *LinkerService
	mailer Mailer
	cfg    AuthConfig
	log    *logrus.Logger
}

func NewAuthService(users *repository.UserRepository, tokens *TokenService, linker *LinkerService, mailer Mailer, cfg AuthConfig, log *logrus.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		linker: linker,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
	}
}

// NormalizePhone parses an identifier as an E.164 mobile number against
// the configured default region. Returns "" when it is not a usable phone.
func (s *AuthService) NormalizePhone(identifier string) string {
	parsed, err := phonenumbers.Parse(identifier, s.cfg.DefaultPhoneRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*TokenPair, *model.User, error) {
	if s.cfg.DisableSignUp {
		return nil, nil, apperr.ErrSignUpDisabled
	}
	if s.cfg.RequireTerms && !input.TermsAccepted {
		return nil, nil, apperr.ErrTermsNotAccepted
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, nil, apperr.ErrValidationFailed
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperr.ErrUserExists
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		Name:         input.Name,
		PassHash:     hashed,
		Roles:        model.RoleList{},
		ConfirmToken: uuid.New().String(),
	}
	if input.Phone != "" {
		formatted := s.NormalizePhone(input.Phone)
		if formatted == "" {
			return nil, nil, apperr.ErrValidationFailed.WithMessage("invalid phone number")
		}
		taken, err := s.users.GetByIdentifier(formatted)
		if err != nil {
			return nil, nil, err
		}
		if taken != nil {
			return nil, nil, apperr.ErrUserExists
		}
		user.Phone = formatted
	}

	if err := s.users.Create(user); err != nil {
		return nil, nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendConfirmation(user.Email, user.ConfirmToken); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).
				Warn("failed to send confirmation email")
		}
	}

	s.linker.SyncFromUser(ctx, user)

	pair, err := s.tokens.Issue(ctx, user, input.DeviceID, input.DeviceInfo)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// SignIn authenticates by email or phone identifier. Unknown user and
// wrong password produce the same error; callers never learn which.
func (s *AuthService) SignIn(ctx context.Context, identifier, password, deviceID, deviceInfo string) (*TokenPair, *model.User, error) {
	user, err := s.users.GetByIdentifier(strings.ToLower(strings.TrimSpace(identifier)))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !utils.VerifyPassword(password, user.PassHash) {
		return nil, nil, apperr.ErrInvalidCredentials
	}
	if s.cfg.RequireEmailVerification && !user.EmailVerified {
		return nil, nil, apperr.ErrEmailVerificationRequired
	}

	s.linker.SyncFromUser(ctx, user)

	pair, err := s.tokens.Issue(ctx, user, deviceID, deviceInfo)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *AuthService) ConfirmEmail(ctx context.Context, confirmToken string) error {
	user, err := s.users.FindByConfirmToken(confirmToken)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.ErrUnauthorized.WithMessage("invalid or expired confirmation token")
	}
	if err := s.users.SetEmailConfirmed(user.ID); err != nil {
		return err
	}
	user.EmailVerified = true
	user.ConfirmToken = ""
	s.linker.SyncFromUser(ctx, user)
	return nil
}

// RefreshTokens rotates the presented refresh token into a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, presented string) (*TokenPair, error) {
	return s.tokens.Refresh(ctx, presented)
}

// SignOut invalidates the current access token and the device's refresh
// token.
func (s *AuthService) SignOut(ctx context.Context, userID uint, jti string, accessExpiry time.Time, refreshToken string) error {
	deviceID := ""
	if refreshToken != "" {
		if did, err := s.tokens.DeviceIDFromRefresh(refreshToken); err == nil {
			deviceID = did
		}
	}
	return s.tokens.Revoke(ctx, userID, deviceID, jti, accessExpiry)
}
