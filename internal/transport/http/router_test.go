package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/handlers"
	"github.com/avrusin/storefront/internal/middleware/auth"
	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/cart"
	"github.com/avrusin/storefront/internal/service/order"
	"github.com/avrusin/storefront/internal/service/token"
)

func newRouter(t *testing.T) (*echo.Echo, *token.TokenService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Staff{}, &models.Admin{},
		&models.Product{}, &models.Workspace{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.RefreshToken{},
	))

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	prod := &mykafka.Producer{}
	orderSvc := &order.Service{DB: db}

	e := echo.New()
	Register(e, &Deps{
		DB:               db,
		Auth:             &auth.Middleware{Tokens: tokens},
		AuthHandler:      &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		StaffHandler:     &handlers.StaffHandler{DB: db, Tokens: tokens, Producer: prod},
		AdminHandler:     &handlers.AdminHandler{DB: db, Tokens: tokens, Producer: prod, Orders: orderSvc, AdminCode: "letmein"},
		ProductHandler:   &handlers.ProductHandler{DB: db, Producer: prod},
		WorkspaceHandler: &handlers.WorkspaceHandler{DB: db, Producer: prod},
		CartHandler:      &handlers.CartHandler{Cart: &cart.Service{DB: db}, Producer: prod},
		OrderHandler:     &handlers.OrderHandler{Orders: orderSvc, Producer: prod},
		SearchHandler:    &handlers.SearchHandler{Index: "products"},
	})
	return e, tokens
}

func get(t *testing.T, e *echo.Echo, path, role string, tokens *token.TokenService) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		access, err := token.SignAccessToken(1, role, tokens.JWTSecret)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestStaffModerationRoutes(t *testing.T) {
	e, tokens := newRouter(t)

	// Approved staff moderate users, orders and workspaces alongside
	// admins.
	for _, path := range []string{
		"/api/v1/staff/users",
		"/api/v1/staff/orders",
		"/api/v1/staff/workspaces",
	} {
		require.Equal(t, http.StatusOK, get(t, e, path, token.RoleStaff, tokens), path)
		require.Equal(t, http.StatusOK, get(t, e, path, token.RoleAdmin, tokens), path)
		require.Equal(t, http.StatusForbidden, get(t, e, path, token.RoleUser, tokens), path)
		require.Equal(t, http.StatusUnauthorized, get(t, e, path, "", tokens), path)
	}
}

func TestAdminOnlyRoutesStayClosed(t *testing.T) {
	e, tokens := newRouter(t)

	require.Equal(t, http.StatusForbidden, get(t, e, "/api/v1/admin/staff", token.RoleStaff, tokens))
	require.Equal(t, http.StatusOK, get(t, e, "/api/v1/admin/staff", token.RoleAdmin, tokens))
}

func TestPublicRoutes(t *testing.T) {
	e, tokens := newRouter(t)

	require.Equal(t, http.StatusOK, get(t, e, "/health/live", "", tokens))
	require.Equal(t, http.StatusOK, get(t, e, "/api/v1/products", "", tokens))

	// Search without a backing cluster reports unavailable, not a crash.
	require.Equal(t, http.StatusServiceUnavailable, get(t, e, "/api/v1/search?q=mug", "", tokens))
}
