package usecase_test

import (
	"context"
	"testing"

	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/AlenaMolokova/bazario/internal/testutils"
	"github.com/AlenaMolokova/bazario/internal/usecase"
	"github.com/AlenaMolokova/bazario/internal/validation"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

var ctx = context.Background()

func init() {
	logrus.SetLevel(logrus.ErrorLevel)
}

type notice struct {
	userID  int64
	title   string
	message string
}

type fixture struct {
	store    *testutils.MemoryStore
	notifier *testutils.MockNotifier
	files    *testutils.MockFileStore

	admin models.User
	alice models.User
	bob   models.User

	coins  *usecase.CoinRequestUseCase
	orders *usecase.OrderUseCase
	carts  *usecase.CartUseCase
}

// newFixture seeds an admin, who is also the operator account, and two
// regular users. Every notification is accepted and answered with notifyErr.
func newFixture(t *testing.T, notifyErr error) *fixture {
	t.Helper()

	store := testutils.NewMemoryStore()
	f := &fixture{
		store:    store,
		notifier: new(testutils.MockNotifier),
		files:    new(testutils.MockFileStore),
		admin:    store.SeedUser(models.User{Username: "admin", IsAdmin: true}),
		alice:    store.SeedUser(models.User{Username: "alice"}),
		bob:      store.SeedUser(models.User{Username: "bob"}),
	}
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(notifyErr).Maybe()
	f.files.On("Exists", mock.Anything).Return(true).Maybe()

	dispatcher := usecase.NewDispatcher(store, f.notifier)
	f.coins = usecase.NewCoinRequestUseCase(store, store, f.files, dispatcher)
	f.orders = usecase.NewOrderUseCase(store, store, validation.NewLineItemValidator(), dispatcher, f.admin.ID)
	f.carts = usecase.NewCartUseCase(store, store)
	return f
}

func as(u models.User) models.Principal {
	return models.Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func (f *fixture) notices(userID int64, title string) []notice {
	var out []notice
	for _, c := range f.notifier.Calls {
		if c.Method != "Notify" {
			continue
		}
		n := notice{
			userID:  c.Arguments.Get(1).(int64),
			title:   c.Arguments.String(2),
			message: c.Arguments.String(3),
		}
		if n.userID == userID && n.title == title {
			out = append(out, n)
		}
	}
	return out
}

// fund credits u through an approved coin request.
func (f *fixture) fund(t *testing.T, u models.User, amount int64) {
	t.Helper()
	req, err := f.coins.Submit(ctx, as(u), amount, "proof_fund.png")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.coins.Approve(ctx, as(f.admin), req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func modelsUser(username string, isAdmin bool) models.User {
	return models.User{Username: username, IsAdmin: isAdmin}
}
