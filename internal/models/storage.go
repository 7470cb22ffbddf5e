package models

import (
	"context"
	"time"
)

// LedgerTx is the unit of work every balance-affecting workflow runs in.
// All reads and writes made through one LedgerTx commit or roll back together.
// Lock* methods hold the row until the transaction ends.
type LedgerTx interface {
	GetUser(ctx context.Context, id int64) (User, error)
	// AddCoins applies delta to the balance in one statement and returns the new
	// balance. It fails with ErrInsufficientBalance instead of going below zero.
	AddCoins(ctx context.Context, userID, delta int64) (int64, error)

	CreateCoinRequest(ctx context.Context, req CoinRequest) (CoinRequest, error)
	LockCoinRequest(ctx context.Context, id int64) (CoinRequest, error)
	SaveCoinRequestReview(ctx context.Context, req CoinRequest) error

	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateOrder(ctx context.Context, order Order) (Order, error)
	LockOrder(ctx context.Context, id int64) (Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string, deliveryTime *time.Time) error

	GetCartItems(ctx context.Context, userID int64) ([]CartItem, error)
	ClearCart(ctx context.Context, userID int64) error
}

type LedgerStorage interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

type UserStorage interface {
	CreateUser(ctx context.Context, user User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListAdminIDs(ctx context.Context) ([]int64, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
}

type CoinRequestStorage interface {
	GetCoinRequest(ctx context.Context, id int64) (CoinRequest, error)
	ListCoinRequests(ctx context.Context) ([]CoinRequest, error)
	ListCoinRequestsByUser(ctx context.Context, userID int64) ([]CoinRequest, error)
}

type OrderStorage interface {
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type CatalogStorage interface {
	CreateStore(ctx context.Context, store Store) (Store, error)
	GetStore(ctx context.Context, id int64) (Store, error)
	ListStores(ctx context.Context) ([]Store, error)
	DeleteStore(ctx context.Context, id int64) error
	CreateProduct(ctx context.Context, product Product) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, storeID *int64) ([]Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type CartStorage interface {
	GetCartItems(ctx context.Context, userID int64) ([]CartItem, error)
	AddCartItem(ctx context.Context, userID, productID, quantity int64) error
	SetCartItemQuantity(ctx context.Context, userID, productID, quantity int64) error
	RemoveCartItem(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type NotificationStorage interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	GetNotification(ctx context.Context, id int64) (Notification, error)
	ListNotificationsByUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// FileReferenceStorage reports every upload reference still held by a row.
type FileReferenceStorage interface {
	ListFileReferences(ctx context.Context) ([]string, error)
}
