package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"authbridge/model"
)

func TestLinkOrCreate_PreservesRoles(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	user := d.createUser(t, "admin@x.com", "pw", "admin", "editor")

	account := &model.Account{ID: uuid.New().String(), Email: "admin@x.com"}
	require.NoError(t, d.accounts.Create(account))

	linked, err := linker.LinkOrCreate(ctx, account)
	require.NoError(t, err)
	require.Equal(t, user.ID, linked.ID)
	require.Equal(t, account.ID, linked.AccountID)

	// Roles must survive linking untouched.
	reloaded, err := d.users.GetByID(user.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"admin", "editor"}, []string(reloaded.Roles))
	require.Equal(t, account.ID, reloaded.AccountID)
}

func TestLinkOrCreate_CreatesWithEmptyRoles(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	account := &model.Account{ID: uuid.New().String(), Email: "new@x.com", Name: "New"}
	require.NoError(t, d.accounts.Create(account))

	user, err := linker.LinkOrCreate(ctx, account)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Empty(t, []string(user.Roles), "role elevation is never implied by linking")
	require.Equal(t, account.ID, user.AccountID)
}

func TestLinkOrCreate_EmailTakesPriorityOverLinkageID(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	// One user carries the stale linkage id, another owns the email.
	stale := d.createUser(t, "stale@x.com", "pw")
	require.NoError(t, d.users.UpdateAccountID(stale.ID, "acct-1"))
	byEmail := d.createUser(t, "target@x.com", "pw")

	account := &model.Account{ID: "acct-1", Email: "target@x.com"}
	require.NoError(t, d.accounts.Create(account))

	linked, err := linker.LinkOrCreate(ctx, account)
	require.NoError(t, err)
	require.Equal(t, byEmail.ID, linked.ID, "email match must win over linkage id match")
}

func TestMigrationStatus_Math(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	// 10 users; 3 fully migrated (linkage id + backing account record);
	// 1 with only a linkage id; 1 with only an account record.
	for i := 0; i < 10; i++ {
		d.createUser(t, string(rune('a'+i))+"@x.com", "pw")
	}
	users := make([]model.User, 0, 10)
	require.NoError(t, d.db.Order("id").Find(&users).Error)

	for i := 0; i < 3; i++ {
		account := &model.Account{ID: uuid.New().String(), Email: users[i].Email}
		require.NoError(t, d.accounts.Create(account))
		require.NoError(t, d.users.UpdateAccountID(users[i].ID, account.ID))
	}
	require.NoError(t, d.users.UpdateAccountID(users[3].ID, "dangling-linkage"))
	require.NoError(t, d.accounts.Create(&model.Account{ID: uuid.New().String(), Email: users[4].Email}))

	snap, err := linker.MigrationStatus(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 10, snap.Total)
	require.EqualValues(t, 4, snap.WithLinkageID)
	require.EqualValues(t, 4, snap.WithAccount)
	require.EqualValues(t, 3, snap.FullyMigrated)
	require.EqualValues(t, 7, snap.Pending)
	require.InDelta(t, 30.00, snap.Percentage, 0.0001)
	require.False(t, snap.CanDisableLegacyAuth)
}

func TestMigrationStatus_RoundsTwoDecimals(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	// 1 of 3 migrated: 33.333... rounds to 33.33.
	for i := 0; i < 3; i++ {
		d.createUser(t, string(rune('a'+i))+"@r.com", "pw")
	}
	var first model.User
	require.NoError(t, d.db.Order("id").First(&first).Error)
	account := &model.Account{ID: uuid.New().String(), Email: first.Email}
	require.NoError(t, d.accounts.Create(account))
	require.NoError(t, d.users.UpdateAccountID(first.ID, account.ID))

	snap, err := linker.MigrationStatus(ctx)
	require.NoError(t, err)
	require.InDelta(t, 33.33, snap.Percentage, 0.0001)
}

func TestMigrationStatus_EmptyAndComplete(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	snap, err := linker.MigrationStatus(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, snap.Total)
	require.EqualValues(t, 0, snap.Percentage)
	require.True(t, snap.CanDisableLegacyAuth, "no pending users means legacy auth can go")

	user := d.createUser(t, "only@x.com", "pw")
	account := &model.Account{ID: uuid.New().String(), Email: user.Email}
	require.NoError(t, d.accounts.Create(account))
	require.NoError(t, d.users.UpdateAccountID(user.ID, account.ID))

	snap, err = linker.MigrationStatus(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, snap.FullyMigrated)
	require.EqualValues(t, 0, snap.Pending)
	require.InDelta(t, 100.0, snap.Percentage, 0.0001)
	require.True(t, snap.CanDisableLegacyAuth)
}

func TestSyncFromUser_IsIdempotent(t *testing.T) {
	d := newTestDeps(t)
	linker := d.newLinker(false)
	ctx := context.Background()

	user := d.createUser(t, "sync@x.com", "pw")

	linker.SyncFromUser(ctx, user)
	linker.SyncFromUser(ctx, user)

	n, err := d.accounts.CountAll()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	reloaded, err := d.users.GetByEmail("sync@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, reloaded.AccountID, "sync should link back")
}
