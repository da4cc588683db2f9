package service

import (
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"authbridge/model"
	"authbridge/repository"
	"authbridge/token"
	"authbridge/utils"
)

// testDeps wires every repository against an in-memory sqlite database and
// a miniredis instance, mirroring the production wiring in cmd/server.
type testDeps struct {
	db       *gorm.DB
	redis    *miniredis.Miniredis
	users    *repository.UserRepository
	devices  *repository.DeviceTokenRepository
	accounts *repository.AccountRepository
	tokens   *repository.RedisTokenRepository
	sessions *repository.RedisSessionRepository
	manager  *token.Manager
	log      *logrus.Logger
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.DeviceToken{}, &model.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logrus.New()
	log.SetOutput(io.Discard)

	return &testDeps{
		db:       db,
		redis:    mr,
		users:    repository.NewUserRepository(db),
		devices:  repository.NewDeviceTokenRepository(db),
		accounts: repository.NewAccountRepository(db),
		tokens:   repository.NewRedisTokenRepository(client),
		sessions: repository.NewRedisSessionRepository(client),
		manager:  token.NewManager("test-secret", 15*time.Minute, time.Hour, time.Hour),
		log:      log,
	}
}

func (d *testDeps) newTokenService(grace time.Duration) *TokenService {
	return NewTokenService(d.manager, d.users, d.devices, d.tokens, grace, d.log)
}

func (d *testDeps) newLinker(loud bool) *LinkerService {
	return NewLinkerService(d.users, d.accounts, d.log, loud)
}

func (d *testDeps) newAuthService(cfg AuthConfig) *AuthService {
	return NewAuthService(d.users, d.newTokenService(5*time.Second), d.newLinker(false), nil, cfg, d.log)
}

func (d *testDeps) newIdentityService(cfg IdentityConfig) *IdentityService {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	return NewIdentityService(d.accounts, d.users, d.sessions, d.newLinker(false), d.manager, cfg, d.log)
}

func (d *testDeps) createUser(t *testing.T, email, password string, roles ...string) *model.User {
	t.Helper()
	hash, err := hashForTest(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &model.User{
		Email:    email,
		PassHash: hash,
		Roles:    model.RoleList(roles),
	}
	if err := d.users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func hashForTest(password string) (string, error) {
	return utils.HashPassword(password)
}
