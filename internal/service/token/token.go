package token

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/models"
)

const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"

	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func CreateCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func SignAccessToken(subjectID uint, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subjectID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// SignRefreshToken carries a jti so two tokens minted for the same
// subject in the same second never collide on the unique token column.
func SignRefreshToken(subjectID uint, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subjectID,
		"role": role,
		"exp":  time.Now().Add(RefreshTTL).Unix(),
		"typ":  "refresh",
		"jti":  uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (t *TokenService) SaveRefreshToken(raw string, subjectID uint, role string) error {
	row := models.RefreshToken{
		Token:     raw,
		UserID:    subjectID,
		Role:      role,
		ExpiresAt: time.Now().Add(RefreshTTL).Unix(),
	}
	if err := t.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("token: save refresh: %w", err)
	}
	return nil
}

// IssuePair signs an access/refresh pair, persists the refresh token and
// sets both cookies on the response.
func (t *TokenService) IssuePair(c echo.Context, subjectID uint, role string) (string, string, error) {
	access, err := SignAccessToken(subjectID, role, t.JWTSecret)
	if err != nil {
		return "", "", fmt.Errorf("token: sign access: %w", err)
	}
	refresh, err := SignRefreshToken(subjectID, role, t.RefreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("token: sign refresh: %w", err)
	}
	if err := t.SaveRefreshToken(refresh, subjectID, role); err != nil {
		return "", "", err
	}

	c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(RefreshTTL)))
	return access, refresh, nil
}

func (t *TokenService) Revoke(rawRefresh string) error {
	res := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawRefresh).
		Update("revoked", true)
	if res.Error != nil {
		return fmt.Errorf("token: revoke: %w", res.Error)
	}
	return nil
}

func (t *TokenService) ValidateRefresh(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.RefreshSecret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("refresh token not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, errors.New("refresh token expired")
	}

	return claims, nil
}

// Rotate exchanges a valid refresh token for a fresh access/refresh
// pair. The consumed token is revoked so a stolen copy cannot be
// replayed after the legitimate client has moved on.
func (t *TokenService) Rotate(rawRefresh string) (string, string, jwt.MapClaims, error) {
	claims, err := t.ValidateRefresh(rawRefresh)
	if err != nil {
		return "", "", nil, err
	}
	if err := t.Revoke(rawRefresh); err != nil {
		return "", "", nil, err
	}

	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return "", "", nil, errors.New("invalid subject claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", nil, errors.New("invalid role claim")
	}
	subjectID := uint(subRaw)

	newAccess, err := SignAccessToken(subjectID, role, t.JWTSecret)
	if err != nil {
		return "", "", nil, err
	}
	newRefresh, err := SignRefreshToken(subjectID, role, t.RefreshSecret)
	if err != nil {
		return "", "", nil, err
	}
	if err := t.SaveRefreshToken(newRefresh, subjectID, role); err != nil {
		return "", "", nil, err
	}

	return newAccess, newRefresh, claims, nil
}

// ParseAccess validates an access token string against the JWT secret.
func (t *TokenService) ParseAccess(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
