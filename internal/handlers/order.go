package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/order"
)

type OrderHandler struct {
	Orders   *order.Service
	Producer *mykafka.Producer
}

// PlaceOrder freezes the cart into an order. COD orders come back
// confirmed; online orders come back with a gateway session for the
// client to complete.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var details order.Details
	if err := c.Bind(&details); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	ctx := c.Request().Context()
	ord, items, err := h.Orders.Place(ctx, userID, details)
	if err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "order_events", fmt.Sprint(userID), map[string]any{
		"type":    "order_placed",
		"orderID": ord.ID,
		"userID":  userID,
		"total":   ord.Total,
		"method":  ord.PaymentMethod,
	})

	if ord.PaymentMethod == order.MethodCOD {
		return c.JSON(http.StatusOK, echo.Map{
			"cod_success": true,
			"order":       ord,
			"items":       items,
		})
	}

	intent, err := h.Orders.PaymentIntent(ctx, ord.ID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order":   ord,
		"items":   items,
		"payment": intent,
	})
}

// VerifyPayment accepts the gateway confirmation. A bad signature never
// reaches the order record.
func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var conf order.Confirmation
	if err := c.Bind(&conf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	ord, err := h.Orders.VerifyPayment(c.Request().Context(), userID, conf)
	if err != nil {
		if err == order.ErrPaymentVerificationFailed {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": false, "message": "payment failed"})
		}
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "order_events", fmt.Sprint(userID), map[string]any{
		"type":    "payment_confirmed",
		"orderID": ord.ID,
		"userID":  userID,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": true, "order": ord})
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	orders, err := h.Orders.ListUser(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) OrderItems(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ord, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		return serviceError(err)
	}
	if ord.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	}

	items, err := h.Orders.Items(ctx, orderID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ord, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		return serviceError(err)
	}
	if ord.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not your order")
	}

	ord, err = h.Orders.Cancel(ctx, orderID)
	if err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "order_events", fmt.Sprint(userID), map[string]any{
		"type":    "order_cancelled",
		"orderID": ord.ID,
		"userID":  userID,
	})

	return c.JSON(http.StatusOK, ord)
}
