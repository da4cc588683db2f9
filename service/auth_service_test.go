package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"authbridge/apperr"
	"authbridge/model"
	"authbridge/utils"
)

func TestSignUpThenSignIn_BothForms(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{})
	ctx := context.Background()

	pair, user, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "P1!"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Equal(t, "a@x.com", user.Email)

	_, _, err = svc.SignIn(ctx, "a@x.com", "P1!", "", "")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "a@x.com", utils.DeterministicHash("P1!"), "", "")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "a@x.com", "wrong", "", "")
	require.Equal(t, apperr.ErrInvalidCredentials, apperr.From(err))
}

func TestSignIn_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{})
	ctx := context.Background()

	_, _, unknownErr := svc.SignIn(ctx, "ghost@x.com", "whatever", "", "")

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "real@x.com", Password: "Right1!"})
	require.NoError(t, err)
	_, _, wrongErr := svc.SignIn(ctx, "real@x.com", "Wrong1!", "", "")

	require.Equal(t, apperr.From(wrongErr), apperr.From(unknownErr))
}

func TestSignUp_Disabled(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{DisableSignUp: true})
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "P1!"})
	require.Equal(t, apperr.ErrSignUpDisabled, apperr.From(err))

	// The sign-in path is unaffected by the sign-up gate.
	_, _, err = svc.SignIn(ctx, "a@x.com", "P1!", "", "")
	require.Equal(t, apperr.ErrInvalidCredentials, apperr.From(err))
}

func TestSignUp_TermsRequired(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{RequireTerms: true})
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "P1!"})
	require.Equal(t, apperr.ErrTermsNotAccepted, apperr.From(err))

	_, _, err = svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "P1!", TermsAccepted: true})
	require.NoError(t, err)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{})
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "dup@x.com", Password: "P1!"})
	require.NoError(t, err)
	_, _, err = svc.SignUp(ctx, SignUpInput{Email: "dup@x.com", Password: "Other1!"})
	require.Equal(t, apperr.ErrUserExists, apperr.From(err))
}

func TestSignUp_DuplicatePhone(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{DefaultPhoneRegion: "US"})
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "p1@x.com", Password: "P1!", Phone: "202-555-0144"})
	require.NoError(t, err)

	// Same number in a different notation normalizes to the same E.164
	// value and must surface the stable code, not an internal error.
	_, _, err = svc.SignUp(ctx, SignUpInput{Email: "p2@x.com", Password: "P2!", Phone: "+1 202 555 0144"})
	require.Equal(t, apperr.ErrUserExists, apperr.From(err))
}

func TestSignIn_EmailVerificationGate(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{RequireEmailVerification: true})
	ctx := context.Background()

	_, user, err := svc.SignUp(ctx, SignUpInput{Email: "v@x.com", Password: "P1!"})
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "v@x.com", "P1!", "", "")
	require.Equal(t, apperr.ErrEmailVerificationRequired, apperr.From(err))

	require.NoError(t, svc.ConfirmEmail(ctx, user.ConfirmToken))

	_, _, err = svc.SignIn(ctx, "v@x.com", "P1!", "", "")
	require.NoError(t, err)
}

func TestConfirmEmail_MultiplePhonelessUsers(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{})
	ctx := context.Background()

	// Confirmation must only touch the verification columns: a full-row
	// write would store phone='' for both users and trip the unique index
	// on the second confirmation.
	_, first, err := svc.SignUp(ctx, SignUpInput{Email: "one@x.com", Password: "P1!"})
	require.NoError(t, err)
	_, second, err := svc.SignUp(ctx, SignUpInput{Email: "two@x.com", Password: "P2!"})
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmEmail(ctx, first.ConfirmToken))
	require.NoError(t, svc.ConfirmEmail(ctx, second.ConfirmToken))

	for _, id := range []uint{first.ID, second.ID} {
		user, err := d.users.GetByID(id)
		require.NoError(t, err)
		require.True(t, user.EmailVerified)
		require.Empty(t, user.ConfirmToken)
	}
}

func TestConfirmEmail_PreservesRoles(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{})
	ctx := context.Background()

	_, user, err := svc.SignUp(ctx, SignUpInput{Email: "keep@x.com", Password: "P1!"})
	require.NoError(t, err)

	// A role grant landing after sign-up must survive confirmation.
	require.NoError(t, d.db.Model(user).Update("roles", model.RoleList{"admin"}).Error)

	require.NoError(t, svc.ConfirmEmail(ctx, user.ConfirmToken))

	reloaded, err := d.users.GetByID(user.ID)
	require.NoError(t, err)
	require.True(t, reloaded.EmailVerified)
	require.True(t, reloaded.Roles.Has("admin"))
}

func TestSignUp_SyncsAccountBestEffort(t *testing.T) {
	d := newTestDeps(t)
	svc := d.newAuthService(AuthConfig{})
	ctx := context.Background()

	_, user, err := svc.SignUp(ctx, SignUpInput{Email: "sync@x.com", Password: "P1!"})
	require.NoError(t, err)

	account, err := d.accounts.GetByEmail("sync@x.com")
	require.NoError(t, err)
	require.NotNil(t, account)

	reloaded, err := d.users.GetByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, account.ID, reloaded.AccountID)
}
