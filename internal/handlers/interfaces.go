package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/usecase"
)

type UserService interface {
	Register(ctx context.Context, in usecase.RegisterInput) (models.User, string, error)
	Authenticate(ctx context.Context, username, password string) (models.User, string, error)
	Me(ctx context.Context, p models.Principal) (models.User, error)
	List(ctx context.Context, p models.Principal) ([]models.User, error)
}

type BalanceService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

type CoinRequestService interface {
	Submit(ctx context.Context, p models.Principal, amount int64, proofRef string) (models.CoinRequest, error)
	Approve(ctx context.Context, p models.Principal, id int64) (models.CoinRequest, error)
	Reject(ctx context.Context, p models.Principal, id int64) (models.CoinRequest, error)
	List(ctx context.Context, p models.Principal) ([]models.CoinRequest, error)
	Get(ctx context.Context, p models.Principal, id int64) (models.CoinRequest, error)
	ProofReference(ctx context.Context, p models.Principal, id int64) (string, error)
}

type OrderService interface {
	Create(ctx context.Context, p models.Principal, items []models.LineItem, contact models.Contact) (models.Order, error)
	Checkout(ctx context.Context, p models.Principal, contact models.Contact) (models.Order, error)
	Approve(ctx context.Context, p models.Principal, id int64, deliveryTime time.Time) (models.Order, error)
	Reject(ctx context.Context, p models.Principal, id int64) (models.Order, error)
	Finish(ctx context.Context, p models.Principal, id int64) (models.Order, error)
	Delete(ctx context.Context, p models.Principal, id int64) error
	List(ctx context.Context, p models.Principal) ([]models.Order, error)
	Get(ctx context.Context, p models.Principal, id int64) (models.Order, error)
}

type CatalogService interface {
	CreateStore(ctx context.Context, p models.Principal, store models.Store) (models.Store, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	DeleteStore(ctx context.Context, p models.Principal, id int64) error
	CreateProduct(ctx context.Context, p models.Principal, product models.Product) (models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	ListProducts(ctx context.Context, storeID *int64) ([]models.Product, error)
	DeleteProduct(ctx context.Context, p models.Principal, id int64) error
}

type CartService interface {
	Get(ctx context.Context, p models.Principal) (models.CartView, error)
	Add(ctx context.Context, p models.Principal, productID, quantity int64) (models.CartView, error)
	SetQuantity(ctx context.Context, p models.Principal, productID, quantity int64) (models.CartView, error)
	Remove(ctx context.Context, p models.Principal, productID int64) (models.CartView, error)
	Clear(ctx context.Context, p models.Principal) error
}

type NotificationService interface {
	List(ctx context.Context, p models.Principal) ([]models.Notification, error)
	MarkRead(ctx context.Context, p models.Principal, id int64) (models.Notification, error)
}

// FileStore keeps uploaded files and hands back their references.
type FileStore interface {
	Save(prefix, filename string, r io.Reader) (string, error)
	Delete(ref string) error
}

type WebsocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID int64) error
}
