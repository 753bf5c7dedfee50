package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type Service struct {
	DB *gorm.DB
}

// CartProduct joins a cart row with the live product record. LineTotal
// is computed from the current price, so it moves with price edits
// until checkout freezes it into an order.
type CartProduct struct {
	Item      models.CartItem `json:"item"`
	Product   models.Product  `json:"product"`
	LineTotal int64           `json:"line_total"`
}

// Add puts qty units of the product into the user's cart. An existing
// row is bumped with an atomic in-database increment rather than a
// read-modify-write, so two concurrent adds can't lose an update.
func (s *Service) Add(ctx context.Context, userID, productID uint, qty uint) (*models.CartItem, error) {
	if qty < 1 {
		qty = 1
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("cart: load product: %w", err)
	}

	res := s.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return nil, fmt.Errorf("cart: increment: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		item := models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
		if err := s.DB.WithContext(ctx).Create(&item).Error; err != nil {
			// Lost the insert race against a concurrent add; fall back
			// to the increment path.
			res := s.DB.WithContext(ctx).Model(&models.CartItem{}).
				Where("user_id = ? AND product_id = ?", userID, productID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
			if res.Error != nil || res.RowsAffected == 0 {
				return nil, fmt.Errorf("cart: add item: %w", err)
			}
		}
	}

	var item models.CartItem
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, fmt.Errorf("cart: reload item: %w", err)
	}
	return &item, nil
}

// ChangeQuantity sets the absolute quantity of one cart row. Values
// below 1 are rejected; removal is an explicit, separate operation.
func (s *Service) ChangeQuantity(ctx context.Context, userID, itemID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var item models.CartItem
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("cart: load item: %w", err)
	}

	item.Quantity = uint(qty)
	if err := s.DB.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("cart: save item: %w", err)
	}
	return &item, nil
}

// Remove deletes one cart row. Removing a row that is already gone is
// a no-op success.
func (s *Service) Remove(ctx context.Context, userID, itemID uint) error {
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("cart: remove item: %w", err)
	}
	return nil
}

// Count returns the summed quantity across the cart, the number shown
// on the cart badge. Empty carts count as zero.
func (s *Service) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("cart: count: %w", err)
	}
	return count, nil
}

// Products lists the cart joined with live product rows. Rows whose
// product has since been deleted are pruned instead of surfacing a
// dangling reference.
func (s *Service) Products(ctx context.Context, userID uint) ([]CartProduct, error) {
	var items []models.CartItem
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cart: list items: %w", err)
	}

	out := make([]CartProduct, 0, len(items))
	for _, it := range items {
		var p models.Product
		if err := s.DB.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := s.DB.WithContext(ctx).Delete(&models.CartItem{}, it.ID).Error; err != nil {
					return nil, fmt.Errorf("cart: prune orphan: %w", err)
				}
				continue
			}
			return nil, fmt.Errorf("cart: load product: %w", err)
		}
		out = append(out, CartProduct{
			Item:      it,
			Product:   p,
			LineTotal: p.Price * int64(it.Quantity),
		})
	}
	return out, nil
}

// Total recomputes the cart total from current product prices on every
// call. Nothing here is cached: a price edit changes the total until an
// order snapshot freezes it.
func (s *Service) Total(ctx context.Context, userID uint) (int64, error) {
	products, err := s.Products(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, cp := range products {
		total += cp.LineTotal
	}
	return total, nil
}

func (s *Service) Clear(ctx context.Context, userID uint) error {
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	return nil
}
