package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/cart"
)

type CartHandler struct {
	Cart     *cart.Service
	Producer *mykafka.Producer
}

// GetCart returns the joined cart together with the badge count and the
// live total, all recomputed from current product prices.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	products, err := h.Cart.Products(ctx, userID)
	if err != nil {
		return serviceError(err)
	}
	count, err := h.Cart.Count(ctx, userID)
	if err != nil {
		return serviceError(err)
	}
	total, err := h.Cart.Total(ctx, userID)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": products,
		"count": count,
		"total": total,
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	item, err := h.Cart.Add(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) ChangeQuantity(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	itemID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	item, err := h.Cart.ChangeQuantity(c.Request().Context(), userID, itemID, req.Quantity)
	if err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":     "cart_quantity_changed",
		"userID":   userID,
		"itemID":   item.ID,
		"quantity": item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	itemID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Cart.Remove(c.Request().Context(), userID, itemID); err != nil {
		return serviceError(err)
	}

	publishEvent(c, h.Producer, "cart_events", fmt.Sprint(userID), map[string]any{
		"type":   "cart_item_removed",
		"userID": userID,
		"itemID": itemID,
	})

	return c.JSON(http.StatusOK, echo.Map{"removed": itemID})
}
