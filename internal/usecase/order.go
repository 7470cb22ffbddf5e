package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/AlenaMolokova/bazario/internal/metrics"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/validation"
	"github.com/sirupsen/logrus"
)

// allowedTransitions lists the statuses reachable from each order status.
// Rejected and finished are terminal.
var allowedTransitions = map[string][]string{
	constants.OrderStatusPending:  {constants.OrderStatusApproved, constants.OrderStatusRejected},
	constants.OrderStatusApproved: {constants.OrderStatusFinished},
}

func canTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderUseCase struct {
	ledger     models.LedgerStorage
	orders     models.OrderStorage
	validator  validation.OrderValidator
	notify     *Dispatcher
	operatorID int64
}

// NewOrderUseCase wires order workflows. operatorID is the account credited
// when an order is finished.
func NewOrderUseCase(ledger models.LedgerStorage, orders models.OrderStorage, validator validation.OrderValidator, notify *Dispatcher, operatorID int64) *OrderUseCase {
	return &OrderUseCase{
		ledger:     ledger,
		orders:     orders,
		validator:  validator,
		notify:     notify,
		operatorID: operatorID,
	}
}

// Create places a pending order. Unit prices and the total come from the
// catalog at this moment; any client-sent price is ignored.
func (uc *OrderUseCase) Create(ctx context.Context, p models.Principal, items []models.LineItem, contact models.Contact) (models.Order, error) {
	items, err := uc.validator.ValidateLineItems(items)
	if err != nil {
		return models.Order{}, err
	}
	if err := uc.validator.ValidateContact(contact); err != nil {
		return models.Order{}, err
	}

	var created models.Order
	err = uc.ledger.InTx(ctx, func(ctx context.Context, tx models.LedgerTx) error {
		created, err = placeOrder(ctx, tx, p.UserID, items, contact)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	uc.orderPlaced(ctx, p, created)
	return created, nil
}

// Checkout turns the caller's cart into a pending order and empties the cart
// in the same transaction.
func (uc *OrderUseCase) Checkout(ctx context.Context, p models.Principal, contact models.Contact) (models.Order, error) {
	if err := uc.validator.ValidateContact(contact); err != nil {
		return models.Order{}, err
	}

	var created models.Order
	err := uc.ledger.InTx(ctx, func(ctx context.Context, tx models.LedgerTx) error {
		cart, err := tx.GetCartItems(ctx, p.UserID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return apperrors.Validation("cart is empty")
		}

		items := make([]models.LineItem, 0, len(cart))
		for _, c := range cart {
			items = append(items, models.LineItem{ProductID: c.ProductID, Quantity: c.Quantity})
		}
		if items, err = uc.validator.ValidateLineItems(items); err != nil {
			return err
		}

		if created, err = placeOrder(ctx, tx, p.UserID, items, contact); err != nil {
			return err
		}
		return tx.ClearCart(ctx, p.UserID)
	})
	if err != nil {
		return models.Order{}, err
	}

	uc.orderPlaced(ctx, p, created)
	return created, nil
}

func placeOrder(ctx context.Context, tx models.LedgerTx, userID int64, items []models.LineItem, contact models.Contact) (models.Order, error) {
	priced, total, err := priceLineItems(ctx, tx, items)
	if err != nil {
		return models.Order{}, err
	}
	order, err := tx.CreateOrder(ctx, models.Order{
		UserID:     userID,
		LineItems:  priced,
		TotalPrice: total,
		Status:     constants.OrderStatusPending,
		Contact:    contact,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func priceLineItems(ctx context.Context, tx models.LedgerTx, items []models.LineItem) ([]models.LineItem, int64, error) {
	priced := make([]models.LineItem, 0, len(items))
	var total int64
	for _, item := range items {
		product, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, 0, fmt.Errorf("product %d: %w", item.ProductID, apperrors.ErrProductNotFound)
			}
			return nil, 0, err
		}
		if product.Price > 0 && item.Quantity > (math.MaxInt64-total)/product.Price {
			return nil, 0, apperrors.Validation("order total is too large")
		}
		total += product.Price * item.Quantity
		priced = append(priced, models.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}
	return priced, total, nil
}

func (uc *OrderUseCase) orderPlaced(ctx context.Context, p models.Principal, order models.Order) {
	metrics.RecordOrderTransition(constants.OrderStatusPending)
	logrus.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"user_id":     p.UserID,
		"total_price": order.TotalPrice,
	}).Info("Order placed")

	uc.notify.ToAdmins(ctx, constants.TitleNewOrder,
		fmt.Sprintf("User %s placed an order #%d for %d coins.", p.Username, order.ID, order.TotalPrice))
}

func (uc *OrderUseCase) Approve(ctx context.Context, p models.Principal, id int64, deliveryTime time.Time) (models.Order, error) {
	if err := requireAdmin(p, "approving orders"); err != nil {
		return models.Order{}, err
	}
	if deliveryTime.IsZero() {
		return models.Order{}, apperrors.Validation("delivery_time is required")
	}

	order, err := uc.transition(ctx, id, constants.OrderStatusApproved, &deliveryTime)
	if err != nil {
		return models.Order{}, err
	}
	uc.notify.ToUser(ctx, order.UserID, constants.TitleOrderApproved,
		fmt.Sprintf("Your order #%d has been approved. Delivery time: %s", order.ID, deliveryTime.Format(time.RFC3339)))
	return order, nil
}

func (uc *OrderUseCase) Reject(ctx context.Context, p models.Principal, id int64) (models.Order, error) {
	if err := requireAdmin(p, "rejecting orders"); err != nil {
		return models.Order{}, err
	}

	order, err := uc.transition(ctx, id, constants.OrderStatusRejected, nil)
	if err != nil {
		return models.Order{}, err
	}
	uc.notify.ToUser(ctx, order.UserID, constants.TitleOrderRejected,
		fmt.Sprintf("Your order #%d has been rejected.", order.ID))
	return order, nil
}

func (uc *OrderUseCase) transition(ctx context.Context, id int64, to string, deliveryTime *time.Time) (models.Order, error) {
	var updated models.Order
	err := uc.ledger.InTx(ctx, func(ctx context.Context, tx models.LedgerTx) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(order.Status, to) {
			return fmt.Errorf("order %d is %s, cannot become %s: %w", id, order.Status, to, apperrors.ErrInvalidTransition)
		}
		if err := tx.UpdateOrderStatus(ctx, id, to, deliveryTime); err != nil {
			return err
		}
		order.Status = to
		if deliveryTime != nil {
			order.DeliveryTime = deliveryTime
		}
		updated = order
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.RecordOrderTransition(to)
	logrus.WithFields(logrus.Fields{
		"order_id": id,
		"status":   to,
	}).Info("Order status changed")
	return updated, nil
}

// Finish confirms delivery of an approved order. The owner pays total_price
// to the operator account and the status becomes finished, all in one
// transaction.
func (uc *OrderUseCase) Finish(ctx context.Context, p models.Principal, id int64) (models.Order, error) {
	var (
		finished models.Order
		balance  int64
	)
	err := uc.ledger.InTx(ctx, func(ctx context.Context, tx models.LedgerTx) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		if order.UserID != p.UserID {
			return fmt.Errorf("order %d belongs to another user: %w", id, apperrors.ErrForbidden)
		}
		if !canTransition(order.Status, constants.OrderStatusFinished) {
			return fmt.Errorf("order %d is %s, cannot be finished: %w", id, order.Status, apperrors.ErrInvalidTransition)
		}

		if balance, err = transfer(ctx, tx, order.UserID, uc.operatorID, order.TotalPrice); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, id, constants.OrderStatusFinished, nil); err != nil {
			return err
		}
		order.Status = constants.OrderStatusFinished
		finished = order
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.RecordOrderTransition(constants.OrderStatusFinished)
	logrus.WithFields(logrus.Fields{
		"order_id":    id,
		"user_id":     p.UserID,
		"operator_id": uc.operatorID,
		"total_price": finished.TotalPrice,
	}).Info("Order finished")

	uc.notify.ToUser(ctx, finished.UserID, constants.TitleOrderFinished,
		fmt.Sprintf("Your order #%d is complete. %d coins were charged. New balance: %d", finished.ID, finished.TotalPrice, balance))
	return finished, nil
}

// Delete removes an order record. It never touches balances.
func (uc *OrderUseCase) Delete(ctx context.Context, p models.Principal, id int64) error {
	if err := requireAdmin(p, "deleting orders"); err != nil {
		return err
	}
	if err := uc.orders.DeleteOrder(ctx, id); err != nil {
		return err
	}
	logrus.WithField("order_id", id).Info("Order deleted")
	return nil
}

func (uc *OrderUseCase) List(ctx context.Context, p models.Principal) ([]models.Order, error) {
	if p.IsAdmin {
		return uc.orders.ListOrders(ctx)
	}
	return uc.orders.ListOrdersByUser(ctx, p.UserID)
}

func (uc *OrderUseCase) Get(ctx context.Context, p models.Principal, id int64) (models.Order, error) {
	order, err := uc.orders.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !p.IsAdmin && order.UserID != p.UserID {
		return models.Order{}, fmt.Errorf("order %d belongs to another user: %w", id, apperrors.ErrForbidden)
	}
	return order, nil
}
