package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/payment"
)

const (
	StatusPlaced         = "placed"
	StatusShipped        = "shipped"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

const (
	MethodCOD    = "COD"
	MethodOnline = "ONLINE"
)

var (
	ErrNotFound                  = errors.New("order not found")
	ErrEmptyCart                 = errors.New("no items in cart")
	ErrInvalidTransition         = errors.New("illegal status transition")
	ErrInvalidPaymentMethod      = errors.New("unknown payment method")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)

// transitions is the closed set of legal fulfillment moves. Cancellation
// is only reachable before the order ships; delivered and cancelled are
// terminal.
var transitions = map[string][]string{
	StatusPlaced:         {StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled},
	StatusShipped:        {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Gateway is the slice of the payment provider the order flow consumes.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (*payment.Order, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

type Service struct {
	DB      *gorm.DB
	Gateway Gateway
}

// Details is the delivery and payment information submitted at checkout.
type Details struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	District      string `json:"district"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	PaymentMethod string `json:"payment_method"`
}

// Confirmation is the signed payload the gateway posts back after the
// client-side payment completes.
type Confirmation struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	Receipt        string `json:"receipt"`
}

// Place snapshots the current cart into an order inside one
// transaction: quantities and unit prices are read, frozen into order
// items, and the total is summed from those frozen prices. Once the
// transaction commits the snapshot never changes. COD orders clear the
// cart in the same transaction; online orders keep it until the payment
// confirmation verifies.
func (s *Service) Place(ctx context.Context, userID uint, details Details) (*models.Order, []models.OrderItem, error) {
	if details.PaymentMethod != MethodCOD && details.PaymentMethod != MethodOnline {
		return nil, nil, ErrInvalidPaymentMethod
	}

	var (
		ord   models.Order
		items []models.OrderItem
	)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartItems []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&cartItems).Error; err != nil {
			return fmt.Errorf("order: read cart: %w", err)
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		var total int64
		items = make([]models.OrderItem, 0, len(cartItems))
		for _, it := range cartItems {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("order: product %d: %w", it.ProductID, gorm.ErrRecordNotFound)
				}
				return fmt.Errorf("order: load product: %w", err)
			}
			lineTotal := p.Price * int64(it.Quantity)
			total += lineTotal
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
				LineTotal: lineTotal,
			})
		}

		ord = models.Order{
			UserID:        userID,
			Name:          details.Name,
			Phone:         details.Phone,
			Address:       details.Address,
			District:      details.District,
			State:         details.State,
			Pincode:       details.Pincode,
			PaymentMethod: details.PaymentMethod,
			PaymentStatus: PaymentPending,
			Status:        StatusPlaced,
			Total:         total,
		}
		if err := tx.Create(&ord).Error; err != nil {
			return fmt.Errorf("order: create: %w", err)
		}

		for i := range items {
			items[i].OrderID = ord.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return fmt.Errorf("order: create item: %w", err)
			}
		}

		if details.PaymentMethod == MethodCOD {
			if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
				return fmt.Errorf("order: clear cart: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	return &ord, items, nil
}

// PaymentIntent opens a gateway session for the order, keyed by the
// order id as receipt so the confirmation can find its way back. The
// session id is pinned on the order row; verification later requires
// the confirmation to name that exact session.
func (s *Service) PaymentIntent(ctx context.Context, orderID uint) (*payment.Order, error) {
	ord, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	session, err := s.Gateway.CreateOrder(ctx, ord.Total, strconv.FormatUint(uint64(ord.ID), 10))
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(ord).
		UpdateColumn("gateway_order_id", session.ID).Error; err != nil {
		return nil, fmt.Errorf("order: save gateway session: %w", err)
	}
	ord.GatewayOrderID = session.ID
	return session, nil
}

// VerifyPayment validates the gateway signature and that the signed
// session is the one opened for the receipt's order, owned by userID.
// Any mismatch changes nothing: the order keeps its pending payment
// status and the cart survives. On success the order is marked paid and
// the cart clears.
func (s *Service) VerifyPayment(ctx context.Context, userID uint, conf Confirmation) (*models.Order, error) {
	id, err := strconv.ParseUint(conf.Receipt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("order: bad receipt %q: %w", conf.Receipt, err)
	}

	ord, err := s.Get(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	if ord.UserID != userID {
		return nil, ErrNotFound
	}

	// The HMAC only covers the gateway order id and payment id, so the
	// receipt has to be tied back to the session it actually opened.
	if ord.GatewayOrderID == "" || ord.GatewayOrderID != conf.GatewayOrderID {
		return nil, ErrPaymentVerificationFailed
	}
	if !s.Gateway.VerifySignature(conf.GatewayOrderID, conf.PaymentID, conf.Signature) {
		return nil, ErrPaymentVerificationFailed
	}

	ord, err = s.MarkPaymentStatus(ctx, conf.Receipt, PaymentPaid)
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", ord.UserID).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, fmt.Errorf("order: clear cart: %w", err)
	}
	return ord, nil
}

func (s *Service) MarkPaymentStatus(ctx context.Context, receipt, status string) (*models.Order, error) {
	id, err := strconv.ParseUint(receipt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("order: bad receipt %q: %w", receipt, err)
	}

	ord, err := s.Get(ctx, uint(id))
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(ord).
		UpdateColumn("payment_status", status).Error; err != nil {
		return nil, fmt.Errorf("order: update payment status: %w", err)
	}
	ord.PaymentStatus = status
	return ord, nil
}

// ChangeStatus moves the order through the fulfillment table. Anything
// outside the table, delivered back to placed included, fails with
// ErrInvalidTransition.
func (s *Service) ChangeStatus(ctx context.Context, orderID uint, next string) (*models.Order, error) {
	if !ValidStatus(next) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	ord, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canTransition(ord.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.Status, next)
	}

	if err := s.DB.WithContext(ctx).Model(ord).
		UpdateColumn("status", next).Error; err != nil {
		return nil, fmt.Errorf("order: update status: %w", err)
	}
	ord.Status = next
	return ord, nil
}

// Cancel is a soft cancellation: the order flips to cancelled and stays
// on record. Orders that have started shipping can no longer be
// cancelled, per the transition table.
func (s *Service) Cancel(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.ChangeStatus(ctx, orderID, StatusCancelled)
}

func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var ord models.Order
	if err := s.DB.WithContext(ctx).First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("order: load: %w", err)
	}
	return &ord, nil
}

func (s *Service) ListUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("order: list user: %w", err)
	}
	return orders, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("order: list all: %w", err)
	}
	return orders, nil
}

func (s *Service) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}

	var items []models.OrderItem
	if err := s.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("order: list items: %w", err)
	}
	return items, nil
}

// PurgeCancelled is the retention sweep and the only place order rows
// are hard-deleted. Everything not cancelled stays untouched.
func (s *Service) PurgeCancelled(ctx context.Context) (int64, error) {
	var purged int64
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Order{}).
			Where("status = ?", StatusCancelled).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("order: collect cancelled: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("order_id IN ?", ids).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("order: purge items: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Order{})
		if res.Error != nil {
			return fmt.Errorf("order: purge: %w", res.Error)
		}
		purged = res.RowsAffected
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return purged, nil
}
