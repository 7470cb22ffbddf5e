package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/AlenaMolokova/bazario/internal/handlers"
	"github.com/AlenaMolokova/bazario/internal/metrics"
	"github.com/AlenaMolokova/bazario/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	AuthPrefix        = "/auth"
	RegisterPath      = "/register"
	TokenPath         = "/token"
	MePath            = "/me"
	UsersPath         = "/users"
	BalancePath       = "/balance"
	StoresPath        = "/stores"
	ProductsPath      = "/products"
	CoinRequestPath   = "/coins/request"
	CoinRequestsPath  = "/coins/requests"
	OrdersPath        = "/orders"
	CartPath          = "/cart"
	NotificationsPath = "/notifications"
	WebsocketPath     = "/ws"
	UploadsPath       = "/uploads"
	MetricsPath       = "/metrics"
)

// Deps is everything SetupRoutes mounts.
type Deps struct {
	Auth          *handlers.AuthHandler
	Balance       *handlers.BalanceHandler
	Coins         *handlers.CoinHandler
	Catalog       *handlers.CatalogHandler
	Orders        *handlers.OrderHandler
	Cart          *handlers.CartHandler
	Notifications *handlers.NotificationHandler

	Tokens      middleware.TokenParser
	Principals  middleware.PrincipalResolver
	AuthLimiter *middleware.RateLimiter
	UploadDir   string
}

func SetupRoutes(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Handle(MetricsPath, metrics.Handler())
	r.Handle(UploadsPath+"/*", http.StripPrefix(UploadsPath+"/", http.FileServer(uploadsFS{http.Dir(d.UploadDir)})))

	r.Route(AuthPrefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Handler)
			}
			r.Post(RegisterPath, d.Auth.Register)
			r.Post(TokenPath, d.Auth.Token)
		})
		r.With(middleware.AuthMiddleware(d.Tokens, d.Principals)).Get(MePath, d.Auth.Me)
	})

	r.Get(StoresPath, d.Catalog.ListStores)
	r.Get(ProductsPath, d.Catalog.ListProducts)
	r.Get(ProductsPath+"/{id}", d.Catalog.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(d.Tokens, d.Principals))

		r.Get(BalancePath, d.Balance.ServeHTTP)

		r.Post(CoinRequestPath, d.Coins.Submit)
		r.Get(CoinRequestsPath, d.Coins.List)
		r.Get(CoinRequestsPath+"/{id}", d.Coins.Get)
		r.Get(CoinRequestsPath+"/{id}/proof", d.Coins.Proof)

		r.Post(OrdersPath, d.Orders.Create)
		r.Get(OrdersPath, d.Orders.List)
		r.Get(OrdersPath+"/{id}", d.Orders.Get)
		r.Post(OrdersPath+"/{id}/finish", d.Orders.Finish)

		r.Get(CartPath, d.Cart.Get)
		r.Delete(CartPath, d.Cart.Clear)
		r.Post(CartPath+"/items", d.Cart.Add)
		r.Put(CartPath+"/items/{productID}", d.Cart.SetQuantity)
		r.Delete(CartPath+"/items/{productID}", d.Cart.Remove)
		r.Post(CartPath+"/checkout", d.Cart.Checkout)

		r.Get(NotificationsPath, d.Notifications.List)
		r.Post(NotificationsPath+"/{id}/read", d.Notifications.MarkRead)
		r.Get(WebsocketPath, d.Notifications.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get(UsersPath, d.Auth.ListUsers)

			r.Post(StoresPath, d.Catalog.CreateStore)
			r.Delete(StoresPath+"/{id}", d.Catalog.DeleteStore)
			r.Post(ProductsPath, d.Catalog.CreateProduct)
			r.Delete(ProductsPath+"/{id}", d.Catalog.DeleteProduct)

			r.Post(CoinRequestsPath+"/{id}/approve", d.Coins.Approve)
			r.Post(CoinRequestsPath+"/{id}/reject", d.Coins.Reject)

			r.Post(OrdersPath+"/{id}/approve", d.Orders.Approve)
			r.Post(OrdersPath+"/{id}/reject", d.Orders.Reject)
			r.Delete(OrdersPath+"/{id}", d.Orders.Delete)
		})
	})

	return r
}

// uploadsFS serves plain files only; directories are reported missing so the
// file server never renders a listing.
type uploadsFS struct {
	fs http.FileSystem
}

func (u uploadsFS) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/") {
		return nil, os.ErrNotExist
	}
	f, err := u.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
