package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/cart"
	"github.com/avrusin/storefront/internal/service/order"
	"github.com/avrusin/storefront/internal/service/token"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.TokenService

	Auth   *AuthHandler
	Staff  *StaffHandler
	Admin  *AdminHandler
	Cart   *CartHandler
	Orders *OrderHandler
}

func newTestEnv(t *testing.T) *testEnv {
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

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: tokens,
		Auth:   &AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		Staff:  &StaffHandler{DB: db, Tokens: tokens, Producer: prod},
		Admin:  &AdminHandler{DB: db, Tokens: tokens, Producer: prod, Orders: orderSvc, AdminCode: "letmein"},
		Cart:   &CartHandler{Cart: &cart.Service{DB: db}, Producer: prod},
		Orders: &OrderHandler{Orders: orderSvc, Producer: prod},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asSubject fakes the context values the auth middleware sets.
func asSubject(c echo.Context, id uint, role string) {
	c.Set("subjectID", id)
	c.Set("role", role)
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

func signupPayload(email, phone string) map[string]string {
	return map[string]string{
		"name":     "Test User",
		"email":    email,
		"phone":    phone,
		"address":  "12 Test Lane",
		"district": "Central",
		"state":    "TS",
		"pincode":  "600001",
		"password": "password123",
	}
}
