package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/hash"
	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/token"
)

type StaffHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

// Signup creates a pending staff account. No tokens are issued here:
// sign-in stays gated until an administrator approves the account.
func (h *StaffHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	errs := req.validate()

	var existing models.Staff
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		errs["email"] = "this email is already registered"
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
		errs["phone"] = "this phone number is already registered"
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	staff := models.Staff{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		District:     req.District,
		State:        req.State,
		Pincode:      req.Pincode,
		PasswordHash: pwHash,
	}
	if err := h.DB.Create(&staff).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publishEvent(c, h.Producer, "user_events", fmt.Sprint(staff.ID), map[string]any{
		"type":    "staff_registered",
		"staffID": staff.ID,
		"email":   staff.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": "pending", "staff": staff})
}

// Signin is the approval gate: pending and rejected accounts get a
// distinct status instead of tokens.
func (h *StaffHandler) Signin(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var staff models.Staff
	if err := h.DB.Where("email = ?", req.Email).First(&staff).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email/password")
	}
	if !hash.CheckPassword(staff.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email/password")
	}

	if staff.Rejected {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "rejected"})
	}
	if !staff.Approved {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "pending"})
	}

	access, refresh, err := h.Tokens.IssuePair(c, staff.ID, token.RoleStaff)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publishEvent(c, h.Producer, "user_events", fmt.Sprint(staff.ID), map[string]any{
		"type":    "staff_signed_in",
		"staffID": staff.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status":        true,
		"access_token":  access,
		"refresh_token": refresh,
		"staff":         staff,
	})
}

func (h *StaffHandler) Profile(c echo.Context) error {
	staffID, err := subjectID(c)
	if err != nil {
		return err
	}

	var staff models.Staff
	if err := h.DB.First(&staff, staffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "staff not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) ChangePassword(c echo.Context) error {
	staffID, err := subjectID(c)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var staff models.Staff
	if err := h.DB.First(&staff, staffID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "staff not found")
	}

	if !hash.CheckPassword(staff.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "new password must be at least 8 characters long")
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Model(&staff).Update("password_hash", pwHash).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
