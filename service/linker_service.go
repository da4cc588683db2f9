package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"authbridge/model"
	"authbridge/repository"
)

// LinkerService reconciles user records across the two identity backends.
// It is the only component allowed to touch linkage state, and it always
// does so with idempotent upserts.
type LinkerService struct {
	users    *repository.UserRepository
	accounts *repository.AccountRepository
	log      *logrus.Logger
	// loudSyncFailures decides whether best-effort sync failures land at
	// warn level (visible to operators) or stay at debug.
	loudSyncFailures bool
}

func NewLinkerService(users *repository.UserRepository, accounts *repository.AccountRepository, log *logrus.Logger, loudSyncFailures bool) *LinkerService {
	return &LinkerService{
		users:            users,
		accounts:         accounts,
		log:              log,
		loudSyncFailures: loudSyncFailures,
	}
}

// LinkOrCreate reconciles an identity-service account with the legacy user
// table. An existing user (matched by email first, then by linkage id)
// only gets its linkage id refreshed; roles are explicitly preserved.
// A new user starts with an empty role set; elevation is never implied by
// linking.
func (s *LinkerService) LinkOrCreate(ctx context.Context, account *model.Account) (*model.User, error) {
	user, err := s.users.GetByEmailOrAccountID(account.Email, account.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.AccountID != account.ID {
			if err := s.users.UpdateAccountID(user.ID, account.ID); err != nil {
				return nil, err
			}
			user.AccountID = account.ID
		}
		return user, nil
	}

	user = &model.User{
		Email:         account.Email,
		Name:          account.Name,
		PassHash:      account.PassHash,
		Roles:         model.RoleList{},
		AccountID:     account.ID,
		EmailVerified: account.EmailVerified,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SyncFromUser mirrors a legacy user into the account store and links back.
// Best-effort: a failure is logged and swallowed so the primary sign-in or
// sign-up outcome is never affected by it.
func (s *LinkerService) SyncFromUser(ctx context.Context, user *model.User) {
	if user.Email == "" {
		return
	}
	account, err := s.accounts.GetByEmail(user.Email)
	if err != nil {
		s.logSyncFailure(err, user.ID)
		return
	}
	if account == nil {
		account = &model.Account{
			ID:            uuid.New().String(),
			Email:         user.Email,
			Name:          user.Name,
			PassHash:      user.PassHash,
			EmailVerified: user.EmailVerified,
		}
	} else {
		account.PassHash = user.PassHash
		account.EmailVerified = user.EmailVerified
	}
	if err := s.accounts.Upsert(account); err != nil {
		s.logSyncFailure(err, user.ID)
		return
	}
	if user.AccountID != account.ID {
		if err := s.users.UpdateAccountID(user.ID, account.ID); err != nil {
			s.logSyncFailure(err, user.ID)
		}
	}
}

func (s *LinkerService) logSyncFailure(err error, userID uint) {
	entry := s.log.WithError(err).WithField("user_id", userID)
	if s.loudSyncFailures {
		entry.Warn("identity sync failed")
	} else {
		entry.Debug("identity sync failed")
	}
}

// MigrationStatus computes the linkage report live against both backends.
// Never cached: operators must see the current state exactly.
func (s *LinkerService) MigrationStatus(ctx context.Context) (*model.MigrationSnapshot, error) {
	total, err := s.users.CountAll()
	if err != nil {
		return nil, err
	}
	withLinkage, err := s.users.CountWithLinkage()
	if err != nil {
		return nil, err
	}
	withAccount, err := s.users.CountWithAccount()
	if err != nil {
		return nil, err
	}
	fullyMigrated, err := s.users.CountFullyMigrated()
	if err != nil {
		return nil, err
	}

	pending := total - fullyMigrated
	var percentage float64
	if total > 0 {
		percentage = math.Round(float64(fullyMigrated)/float64(total)*100*100) / 100
	}

	return &model.MigrationSnapshot{
		Total:                total,
		WithLinkageID:        withLinkage,
		WithAccount:          withAccount,
		FullyMigrated:        fullyMigrated,
		Pending:              pending,
		Percentage:           percentage,
		CanDisableLegacyAuth: pending == 0,
	}, nil
}
