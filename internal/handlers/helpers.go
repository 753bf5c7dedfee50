package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avrusin/storefront/internal/middleware/auth"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/cart"
	"github.com/avrusin/storefront/internal/service/order"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func subjectID(c echo.Context) (uint, error) {
	return auth.SubjectID(c)
}

// roleKey keys events by the acting principal when one is signed in.
func roleKey(c echo.Context) string {
	if id, err := auth.SubjectID(c); err == nil {
		return fmt.Sprint(id)
	}
	return "system"
}

// publishEvent is fire-and-forget: event delivery never fails a request.
func publishEvent(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// serviceError maps service-layer sentinels onto HTTP status codes.
func serviceError(err error) error {
	switch {
	case errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidPaymentMethod):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrPaymentVerificationFailed):
		return echo.NewHTTPError(http.StatusBadRequest, "payment failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
