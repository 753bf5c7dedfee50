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
	"github.com/avrusin/storefront/internal/service/order"
	"github.com/avrusin/storefront/internal/service/token"
)

type AdminHandler struct {
	DB        *gorm.DB
	Tokens    *token.TokenService
	Producer  *mykafka.Producer
	Orders    *order.Service
	AdminCode string
}

// Signup is gated by a shared admin code so the endpoint can stay
// routable without letting anyone mint an administrator.
func (h *AdminHandler) Signup(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	if h.AdminCode == "" || req.Code != h.AdminCode {
		return echo.NewHTTPError(http.StatusForbidden, "invalid admin code")
	}
	if req.Name == "" || !emailRe.MatchString(req.Email) || len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "name, valid email and a password of 8+ characters are required")
	}

	var existing models.Admin
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "this email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	admin := models.Admin{Name: req.Name, Email: req.Email, PasswordHash: pwHash}
	if err := h.DB.Create(&admin).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, _, err := h.Tokens.IssuePair(c, admin.ID, token.RoleAdmin); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, admin)
}

func (h *AdminHandler) Signin(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var admin models.Admin
	if err := h.DB.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email/password")
	}
	if !hash.CheckPassword(admin.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email/password")
	}

	access, refresh, err := h.Tokens.IssuePair(c, admin.ID, token.RoleAdmin)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":        true,
		"access_token":  access,
		"refresh_token": refresh,
		"admin":         admin,
	})
}

func (h *AdminHandler) ChangePassword(c echo.Context) error {
	adminID, err := subjectID(c)
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

	var admin models.Admin
	if err := h.DB.First(&admin, adminID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "admin not found")
	}
	if !hash.CheckPassword(admin.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "new password must be at least 8 characters long")
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.DB.Model(&admin).Update("password_hash", pwHash).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *AdminHandler) ListStaff(c echo.Context) error {
	var staff []models.Staff
	if err := h.DB.Order("id ASC").Find(&staff).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, staff)
}

func (h *AdminHandler) ApproveStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.Model(&models.Staff{}).
		Where("id = ?", id).
		Updates(map[string]any{"approved": true, "rejected": false})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "staff not found")
	}

	publishEvent(c, h.Producer, "user_events", fmt.Sprint(id), map[string]any{
		"type":    "staff_approved",
		"staffID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"approved": true})
}

func (h *AdminHandler) RejectStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	res := h.DB.Model(&models.Staff{}).
		Where("id = ?", id).
		Updates(map[string]any{"approved": false, "rejected": true})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "staff not found")
	}

	publishEvent(c, h.Producer, "user_events", fmt.Sprint(id), map[string]any{
		"type":    "staff_rejected",
		"staffID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"rejected": true})
}

func (h *AdminHandler) DeleteStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.Staff{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) RemoveUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.DB.Delete(&models.User{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveAllUsers is the bulk retention wipe the storefront always had.
func (h *AdminHandler) RemoveAllUsers(c echo.Context) error {
	if err := h.DB.Where("1 = 1").Delete(&models.User{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.Orders.ListAll(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) OrderItems(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.Orders.Items(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHandler) ChangeOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	ord, err := h.Orders.ChangeStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "order_events", fmt.Sprint(ord.UserID), map[string]any{
		"type":    "order_status_changed",
		"orderID": ord.ID,
		"status":  ord.Status,
	})

	return c.JSON(http.StatusOK, ord)
}

func (h *AdminHandler) CancelOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ord, err := h.Orders.Cancel(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "order_events", fmt.Sprint(ord.UserID), map[string]any{
		"type":    "order_cancelled",
		"orderID": ord.ID,
	})

	return c.JSON(http.StatusOK, ord)
}

func (h *AdminHandler) PurgeCancelledOrders(c echo.Context) error {
	purged, err := h.Orders.PurgeCancelled(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purged": purged})
}
