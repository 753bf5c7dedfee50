package token

import (
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/models"
)

func newService(t *testing.T) *TokenService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))
	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("jwt-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func newContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest("POST", "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestIssuePairSetsCookiesAndClaims(t *testing.T) {
	svc := newService(t)
	c := newContext()

	access, refresh, err := svc.IssuePair(c, 7, RoleStaff)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := svc.ParseAccess(access)
	require.NoError(t, err)
	require.Equal(t, float64(7), claims["sub"])
	require.Equal(t, RoleStaff, claims["role"])

	var row models.RefreshToken
	require.NoError(t, svc.DB.Where("token = ?", refresh).First(&row).Error)
	require.Equal(t, uint(7), row.UserID)
	require.False(t, row.Revoked)
}

func TestRefreshIsNotAnAccessToken(t *testing.T) {
	svc := newService(t)
	c := newContext()

	access, refresh, err := svc.IssuePair(c, 7, RoleUser)
	require.NoError(t, err)

	_, err = svc.ParseAccess(refresh)
	require.Error(t, err)

	_, err = svc.ValidateRefresh(access)
	require.Error(t, err)
}

func TestRevokedRefreshIsRejected(t *testing.T) {
	svc := newService(t)
	c := newContext()

	_, refresh, err := svc.IssuePair(c, 7, RoleUser)
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(refresh)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(refresh))

	_, err = svc.ValidateRefresh(refresh)
	require.Error(t, err)
}

func TestRotateIssuesFreshPair(t *testing.T) {
	svc := newService(t)
	c := newContext()

	_, refresh, err := svc.IssuePair(c, 7, RoleAdmin)
	require.NoError(t, err)

	access2, refresh2, claims, err := svc.Rotate(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access2)
	require.NotEqual(t, refresh, refresh2)
	require.Equal(t, RoleAdmin, claims["role"])

	parsed, err := svc.ParseAccess(access2)
	require.NoError(t, err)
	require.Equal(t, float64(7), parsed["sub"])
}

func TestRotateRevokesConsumedToken(t *testing.T) {
	svc := newService(t)
	c := newContext()

	_, refresh, err := svc.IssuePair(c, 7, RoleUser)
	require.NoError(t, err)

	_, refresh2, _, err := svc.Rotate(refresh)
	require.NoError(t, err)

	// The superseded token no longer validates or rotates.
	_, err = svc.ValidateRefresh(refresh)
	require.Error(t, err)
	_, _, _, err = svc.Rotate(refresh)
	require.Error(t, err)

	// The replacement still works.
	_, err = svc.ValidateRefresh(refresh2)
	require.NoError(t, err)
}
