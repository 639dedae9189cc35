package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("test-jwt-secret", "test-refresh-secret", 5*time.Minute, 24*time.Hour)
}

func TestService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	pair, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	id, err := svc.VerifyAccess(pair.Access)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestService_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	pair, err := svc.Issue(7)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Refresh_MintsAccess(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	pair, err := svc.Issue(7)
	require.NoError(t, err)

	access, userID, err := svc.Refresh(pair.Refresh)
	require.NoError(t, err)
	assert.EqualValues(t, 7, userID)

	id, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
}

func TestService_ExpiredTokens(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-48 * time.Hour)
	svc := newTestService()
	svc.Now = func() time.Time { return issuedAt }
	pair, err := svc.Issue(1)
	require.NoError(t, err)

	svc.Now = time.Now
	_, err = svc.VerifyAccess(pair.Access)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, _, err = svc.Refresh(pair.Refresh)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestService_RejectsForeignSignatures(t *testing.T) {
	t.Parallel()

	other := NewService("other", "other-refresh", time.Minute, time.Hour)
	pair, err := other.Issue(1)
	require.NoError(t, err)

	svc := newTestService()
	_, err = svc.VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyAccess("not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RejectsNonNumericSubject(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	claims := Claims{
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.AccessSecret)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
