package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
)

type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (models.Product, error)
}

type CartUseCase struct {
	cart     models.CartStorage
	products ProductReader
}

func NewCartUseCase(cart models.CartStorage, products ProductReader) *CartUseCase {
	return &CartUseCase{cart: cart, products: products}
}

// Get prices the cart at current catalog prices. Cart prices are advisory;
// checkout prices again.
func (uc *CartUseCase) Get(ctx context.Context, p models.Principal) (models.CartView, error) {
	items, err := uc.cart.GetCartItems(ctx, p.UserID)
	if err != nil {
		return models.CartView{}, fmt.Errorf("failed to get cart: %w", err)
	}

	view := models.CartView{Items: make([]models.CartLine, 0, len(items))}
	for _, item := range items {
		product, err := uc.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return models.CartView{}, err
		}
		subtotal := product.Price * item.Quantity
		view.Items = append(view.Items, models.CartLine{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		view.TotalPrice += subtotal
	}
	return view, nil
}

// Add puts quantity units of a product in the cart, on top of any already there.
func (uc *CartUseCase) Add(ctx context.Context, p models.Principal, productID, quantity int64) (models.CartView, error) {
	if quantity < 1 {
		return models.CartView{}, apperrors.Validation("quantity must be at least 1")
	}
	if _, err := uc.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.CartView{}, fmt.Errorf("product %d: %w", productID, apperrors.ErrProductNotFound)
		}
		return models.CartView{}, err
	}
	if err := uc.cart.AddCartItem(ctx, p.UserID, productID, quantity); err != nil {
		return models.CartView{}, err
	}
	return uc.Get(ctx, p)
}

func (uc *CartUseCase) SetQuantity(ctx context.Context, p models.Principal, productID, quantity int64) (models.CartView, error) {
	if quantity < 1 {
		return models.CartView{}, apperrors.Validation("quantity must be at least 1")
	}
	if err := uc.cart.SetCartItemQuantity(ctx, p.UserID, productID, quantity); err != nil {
		return models.CartView{}, err
	}
	return uc.Get(ctx, p)
}

func (uc *CartUseCase) Remove(ctx context.Context, p models.Principal, productID int64) (models.CartView, error) {
	if err := uc.cart.RemoveCartItem(ctx, p.UserID, productID); err != nil {
		return models.CartView{}, err
	}
	return uc.Get(ctx, p)
}

func (uc *CartUseCase) Clear(ctx context.Context, p models.Principal) error {
	return uc.cart.ClearCart(ctx, p.UserID)
}
