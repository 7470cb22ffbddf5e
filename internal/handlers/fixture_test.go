package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/AlenaMolokova/bazario/internal/files"
	"github.com/AlenaMolokova/bazario/internal/handlers"
	"github.com/AlenaMolokova/bazario/internal/middleware"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/testutils"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/AlenaMolokova/bazario/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const maxUpload = 1 << 10

func init() {
	logrus.SetLevel(logrus.ErrorLevel)
}

func withPrincipal(r *http.Request, p models.Principal) *http.Request {
	return r.WithContext(middleware.WithPrincipal(r.Context(), p))
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func as(u models.User) models.Principal {
	return models.Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func decodeBody(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v))
}

// workflow wires real usecases over an in-memory store and a temporary
// upload directory.
type workflow struct {
	store *testutils.MemoryStore
	files *files.DiskStore

	admin  models.User
	alice  models.User
	tea    models.Product
	cookie models.Product

	coins         *handlers.CoinHandler
	orders        *handlers.OrderHandler
	cart          *handlers.CartHandler
	catalog       *handlers.CatalogHandler
	balance       *handlers.BalanceHandler
	notifications *handlers.NotificationHandler
}

func newWorkflow(t *testing.T) *workflow {
	t.Helper()

	store := testutils.NewMemoryStore()
	disk, err := files.NewDiskStore(t.TempDir(), maxUpload)
	require.NoError(t, err)

	shop := store.SeedStore("Corner shop")
	wf := &workflow{
		store:  store,
		files:  disk,
		admin:  store.SeedUser(models.User{Username: "admin", IsAdmin: true}),
		alice:  store.SeedUser(models.User{Username: "alice"}),
		tea:    store.SeedProduct(shop.ID, "Tea", 120),
		cookie: store.SeedProduct(shop.ID, "Cookie", 15),
	}

	notifier := new(testutils.MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	dispatcher := usecase.NewDispatcher(store, notifier)

	coinUC := usecase.NewCoinRequestUseCase(store, store, disk, dispatcher)
	orderUC := usecase.NewOrderUseCase(store, store, validation.NewLineItemValidator(), dispatcher, wf.admin.ID)

	wf.coins = handlers.NewCoinHandler(coinUC, disk, maxUpload)
	wf.orders = handlers.NewOrderHandler(orderUC)
	wf.cart = handlers.NewCartHandler(usecase.NewCartUseCase(store, store), orderUC)
	wf.catalog = handlers.NewCatalogHandler(usecase.NewCatalogUseCase(store, disk), disk, maxUpload)
	wf.balance = handlers.NewBalanceHandler(usecase.NewLedgerUseCase(store))
	wf.notifications = handlers.NewNotificationHandler(usecase.NewNotificationUseCase(store), nil)
	return wf
}
