package auth_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"barstock-backend/internal/apperror"
	"barstock-backend/internal/auth"
	"barstock-backend/internal/auth/authtest"
	"barstock-backend/internal/cache"
	"barstock-backend/internal/logger"
	"barstock-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	svc         *auth.Service
	profiles    *authtest.Profiles
	issuer      *auth.TokenIssuer
	revocations *auth.Revocations
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	profiles := authtest.NewProfiles()
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	revocations := auth.NewRevocations(cache.NewMemoryStore())
	return fixture{
		svc:         auth.NewService(profiles, issuer, revocations, logger.Nop()),
		profiles:    profiles,
		issuer:      issuer,
		revocations: revocations,
	}
}

func signUp(email string, role models.UserRole) auth.SignUpInput {
	return auth.SignUpInput{FirstName: "Sam", LastName: "Dube", Email: email, Password: "secret1", Role: role}
}

func TestSignUp_FirstProfileIsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.SignUp(ctx, signUp("Owner@Bar.co ", ""))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)
	assert.Equal(t, "owner@bar.co", first.Email)
	assert.NotEqual(t, "secret1", first.PasswordHash)

	second, err := f.svc.SignUp(ctx, signUp("staff@bar.co", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, second.Role, "requested role is ignored")
}

func TestSignUp_ConcurrentFirstSignUpsElectOneAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	roles := make(chan models.UserRole, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.svc.SignUp(ctx, signUp(fmt.Sprintf("staff%d@bar.co", i), ""))
			if assert.NoError(t, err) {
				roles <- p.Role
			}
		}(i)
	}
	wg.Wait()
	close(roles)

	admins := 0
	for r := range roles {
		if r == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, signUp("a@bar.co", ""))
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, signUp("A@bar.co", ""))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestSignUp_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.profiles.Fail = apperror.NewStoreFailure("load profile", errors.New("down"))

	_, err := f.svc.SignUp(context.Background(), signUp("a@bar.co", ""))
	assert.True(t, apperror.HasCode(err, apperror.CodeStoreFailure))
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.SignUp(ctx, signUp("a@bar.co", ""))
	require.NoError(t, err)

	session, err := f.svc.SignIn(ctx, "  A@BAR.CO", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, session.User.ID)

	claims, err := f.issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "Sam Dube", claims.Name)

	_, wrongPass := f.svc.SignIn(ctx, "a@bar.co", "nope")
	_, unknown := f.svc.SignIn(ctx, "b@bar.co", "secret1")
	for _, err := range []error{wrongPass, unknown} {
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
		assert.Equal(t, "Invalid email or password", appErr.Message)
	}
}

func TestSignOut_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, signUp("a@bar.co", ""))
	require.NoError(t, err)
	session, err := f.svc.SignIn(ctx, "a@bar.co", "secret1")
	require.NoError(t, err)

	claims, err := f.issuer.Parse(session.Token)
	require.NoError(t, err)
	p := auth.Principal{UserID: claims.Subject, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}

	require.NoError(t, f.svc.SignOut(ctx, p))

	revoked, err := f.revocations.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMe_DeletedProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Me(context.Background(), authtest.Principal(models.RoleEmployee))
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestTokenIssuer_RejectsForeignSecretAndExpiry(t *testing.T) {
	p := &models.Profile{ID: "u1", Email: "a@bar.co", Role: models.RoleManager}

	token, _, err := auth.NewTokenIssuer(testSecret, time.Hour).Issue(p)
	require.NoError(t, err)

	_, err = auth.NewTokenIssuer("another-secret-another-secret-xx", time.Hour).Parse(token)
	assert.Error(t, err)

	expired, _, err := auth.NewTokenIssuer(testSecret, -time.Minute).Issue(p)
	require.NoError(t, err)
	_, err = auth.NewTokenIssuer(testSecret, time.Hour).Parse(expired)
	assert.Error(t, err)
}
