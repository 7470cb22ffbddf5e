package testutils

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID int64, title, message string) error {
	args := m.Called(ctx, userID, title, message)
	return args.Error(0)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Exists(ref string) bool {
	args := m.Called(ref)
	return args.Bool(0)
}

func (m *MockFileStore) Delete(ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}

type memState struct {
	nextID        int64
	users         map[int64]models.User
	stores        map[int64]models.Store
	products      map[int64]models.Product
	coinRequests  map[int64]models.CoinRequest
	orders        map[int64]models.Order
	notifications map[int64]models.Notification
	carts         map[int64][]models.CartItem
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:        s.nextID,
		users:         make(map[int64]models.User, len(s.users)),
		stores:        make(map[int64]models.Store, len(s.stores)),
		products:      make(map[int64]models.Product, len(s.products)),
		coinRequests:  make(map[int64]models.CoinRequest, len(s.coinRequests)),
		orders:        make(map[int64]models.Order, len(s.orders)),
		notifications: make(map[int64]models.Notification, len(s.notifications)),
		carts:         make(map[int64][]models.CartItem, len(s.carts)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.stores {
		c.stores[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.coinRequests {
		c.coinRequests[k] = v
	}
	for k, v := range s.orders {
		v.LineItems = append([]models.LineItem(nil), v.LineItems...)
		c.orders[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]models.CartItem(nil), v...)
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// MemoryStore is an in-memory stand-in for the PostgreSQL storage. InTx runs
// transactions one at a time and restores a snapshot when fn fails, so it
// honours the same all-or-nothing contract. Because of that serialization the
// store cannot show a lost update; instead a transaction that writes a coin
// request review or an order status without first locking that row fails
// with ErrRowNotLocked.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState

	// BeforeCommit, when set, runs after fn succeeds. A non-nil error rolls
	// the transaction back.
	BeforeCommit func() error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: (&memState{}).clone()}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx models.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	err := fn(ctx, newMemTx(m.state))
	if err == nil && m.BeforeCommit != nil {
		err = m.BeforeCommit()
	}
	if err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *MemoryStore) read(fn func(s *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *MemoryStore) write(fn func(s *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(m.state); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// SeedUser stores u with a fresh id and returns it.
func (m *MemoryStore) SeedUser(u models.User) models.User {
	_ = m.write(func(s *memState) error {
		u.ID = s.id()
		u.CreatedAt = time.Now()
		s.users[u.ID] = u
		return nil
	})
	return u
}

func (m *MemoryStore) SeedStore(name string) models.Store {
	var store models.Store
	_ = m.write(func(s *memState) error {
		store = models.Store{ID: s.id(), Name: name, CreatedAt: time.Now()}
		s.stores[store.ID] = store
		return nil
	})
	return store
}

func (m *MemoryStore) SeedProduct(storeID int64, title string, price int64) models.Product {
	var product models.Product
	_ = m.write(func(s *memState) error {
		product = models.Product{ID: s.id(), StoreID: storeID, Title: title, Price: price, CreatedAt: time.Now()}
		s.products[product.ID] = product
		return nil
	})
	return product
}

// SeedOrder stores an order as-is, status included.
func (m *MemoryStore) SeedOrder(o models.Order) models.Order {
	_ = m.write(func(s *memState) error {
		o.ID = s.id()
		o.CreatedAt = time.Now()
		s.orders[o.ID] = o
		return nil
	})
	return o
}

func (m *MemoryStore) SetProductPrice(id, price int64) {
	_ = m.write(func(s *memState) error {
		p := s.products[id]
		p.Price = price
		s.products[id] = p
		return nil
	})
}

func (m *MemoryStore) Balance(userID int64) int64 {
	var coins int64
	_ = m.read(func(s *memState) error {
		coins = s.users[userID].Coins
		return nil
	})
	return coins
}

// TotalCoins sums every balance.
func (m *MemoryStore) TotalCoins() int64 {
	var total int64
	_ = m.read(func(s *memState) error {
		for _, u := range s.users {
			total += u.Coins
		}
		return nil
	})
	return total
}

// UserStorage

func (m *MemoryStore) CreateUser(ctx context.Context, user models.User) (int64, error) {
	var id int64
	err := m.write(func(s *memState) error {
		for _, u := range s.users {
			if u.Username == user.Username {
				return fmt.Errorf("username %q: %w", user.Username, apperrors.ErrAlreadyExists)
			}
		}
		user.ID = s.id()
		user.Coins = 0
		user.CreatedAt = time.Now()
		s.users[user.ID] = user
		id = user.ID
		return nil
	})
	return id, err
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := m.read(func(s *memState) error {
		var err error
		user, err = newMemTx(s).GetUser(ctx, id)
		return err
	})
	return user, err
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := m.read(func(s *memState) error {
		for _, u := range s.users {
			if u.Username == username {
				user = u
				return nil
			}
		}
		return fmt.Errorf("user %q: %w", username, apperrors.ErrNotFound)
	})
	return user, err
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	_ = m.read(func(s *memState) error {
		for _, u := range s.users {
			users = append(users, u)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryStore) ListAdminIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	_ = m.read(func(s *memState) error {
		for _, u := range s.users {
			if u.IsAdmin {
				ids = append(ids, u.ID)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemoryStore) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return m.write(func(s *memState) error {
		u, ok := s.users[id]
		if !ok {
			return fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
		}
		u.IsAdmin = isAdmin
		s.users[id] = u
		return nil
	})
}

// CoinRequestStorage

func (m *MemoryStore) GetCoinRequest(ctx context.Context, id int64) (models.CoinRequest, error) {
	var req models.CoinRequest
	err := m.read(func(s *memState) error {
		var err error
		req, err = newMemTx(s).LockCoinRequest(ctx, id)
		return err
	})
	return req, err
}

func (m *MemoryStore) ListCoinRequests(ctx context.Context) ([]models.CoinRequest, error) {
	return m.listCoinRequests(func(models.CoinRequest) bool { return true })
}

func (m *MemoryStore) ListCoinRequestsByUser(ctx context.Context, userID int64) ([]models.CoinRequest, error) {
	return m.listCoinRequests(func(r models.CoinRequest) bool { return r.UserID == userID })
}

func (m *MemoryStore) listCoinRequests(keep func(models.CoinRequest) bool) ([]models.CoinRequest, error) {
	reqs := []models.CoinRequest{}
	_ = m.read(func(s *memState) error {
		for _, r := range s.coinRequests {
			if keep(r) {
				reqs = append(reqs, r)
			}
		}
		return nil
	})
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID > reqs[j].ID })
	return reqs, nil
}

// OrderStorage

func (m *MemoryStore) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	var order models.Order
	err := m.read(func(s *memState) error {
		var err error
		order, err = newMemTx(s).LockOrder(ctx, id)
		return err
	})
	return order, err
}

func (m *MemoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	return m.listOrders(func(models.Order) bool { return true })
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return m.listOrders(func(o models.Order) bool { return o.UserID == userID })
}

func (m *MemoryStore) listOrders(keep func(models.Order) bool) ([]models.Order, error) {
	orders := []models.Order{}
	_ = m.read(func(s *memState) error {
		for _, o := range s.orders {
			if keep(o) {
				orders = append(orders, o)
			}
		}
		return nil
	})
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (m *MemoryStore) DeleteOrder(ctx context.Context, id int64) error {
	return m.write(func(s *memState) error {
		if _, ok := s.orders[id]; !ok {
			return fmt.Errorf("order %d: %w", id, apperrors.ErrNotFound)
		}
		delete(s.orders, id)
		return nil
	})
}

// CatalogStorage

func (m *MemoryStore) CreateStore(ctx context.Context, store models.Store) (models.Store, error) {
	_ = m.write(func(s *memState) error {
		store.ID = s.id()
		store.CreatedAt = time.Now()
		s.stores[store.ID] = store
		return nil
	})
	return store, nil
}

func (m *MemoryStore) GetStore(ctx context.Context, id int64) (models.Store, error) {
	var store models.Store
	err := m.read(func(s *memState) error {
		var ok bool
		if store, ok = s.stores[id]; !ok {
			return fmt.Errorf("store %d: %w", id, apperrors.ErrNotFound)
		}
		return nil
	})
	return store, err
}

func (m *MemoryStore) ListStores(ctx context.Context) ([]models.Store, error) {
	stores := []models.Store{}
	_ = m.read(func(s *memState) error {
		for _, st := range s.stores {
			stores = append(stores, st)
		}
		return nil
	})
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (m *MemoryStore) DeleteStore(ctx context.Context, id int64) error {
	return m.write(func(s *memState) error {
		if _, ok := s.stores[id]; !ok {
			return fmt.Errorf("store %d: %w", id, apperrors.ErrNotFound)
		}
		for _, p := range s.products {
			if p.StoreID == id {
				return fmt.Errorf("store %d still has products: %w", id, apperrors.ErrInvalidTransition)
			}
		}
		delete(s.stores, id)
		return nil
	})
}

func (m *MemoryStore) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	err := m.write(func(s *memState) error {
		if _, ok := s.stores[product.StoreID]; !ok {
			return fmt.Errorf("store %d: %w", product.StoreID, apperrors.ErrNotFound)
		}
		product.ID = s.id()
		product.CreatedAt = time.Now()
		s.products[product.ID] = product
		return nil
	})
	return product, err
}

func (m *MemoryStore) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var product models.Product
	err := m.read(func(s *memState) error {
		var err error
		product, err = newMemTx(s).GetProduct(ctx, id)
		return err
	})
	return product, err
}

func (m *MemoryStore) ListProducts(ctx context.Context, storeID *int64) ([]models.Product, error) {
	products := []models.Product{}
	_ = m.read(func(s *memState) error {
		for _, p := range s.products {
			if storeID == nil || p.StoreID == *storeID {
				products = append(products, p)
			}
		}
		return nil
	})
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	return m.write(func(s *memState) error {
		if _, ok := s.products[id]; !ok {
			return fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
		}
		delete(s.products, id)
		for userID, items := range s.carts {
			kept := items[:0]
			for _, item := range items {
				if item.ProductID != id {
					kept = append(kept, item)
				}
			}
			s.carts[userID] = kept
		}
		return nil
	})
}

// CartStorage

func (m *MemoryStore) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	_ = m.read(func(s *memState) error {
		items, _ = newMemTx(s).GetCartItems(ctx, userID)
		return nil
	})
	return items, nil
}

func (m *MemoryStore) AddCartItem(ctx context.Context, userID, productID, quantity int64) error {
	return m.write(func(s *memState) error {
		if _, ok := s.products[productID]; !ok {
			return fmt.Errorf("product %d: %w", productID, apperrors.ErrProductNotFound)
		}
		items := s.carts[userID]
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += quantity
				return nil
			}
		}
		s.carts[userID] = append(items, models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
		return nil
	})
}

func (m *MemoryStore) SetCartItemQuantity(ctx context.Context, userID, productID, quantity int64) error {
	return m.write(func(s *memState) error {
		items := s.carts[userID]
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = quantity
				return nil
			}
		}
		return fmt.Errorf("cart item %d: %w", productID, apperrors.ErrNotFound)
	})
}

func (m *MemoryStore) RemoveCartItem(ctx context.Context, userID, productID int64) error {
	return m.write(func(s *memState) error {
		items := s.carts[userID]
		for i := range items {
			if items[i].ProductID == productID {
				s.carts[userID] = append(items[:i:i], items[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("cart item %d: %w", productID, apperrors.ErrNotFound)
	})
}

func (m *MemoryStore) ClearCart(ctx context.Context, userID int64) error {
	return m.write(func(s *memState) error {
		return newMemTx(s).ClearCart(ctx, userID)
	})
}

// NotificationStorage

func (m *MemoryStore) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	_ = m.write(func(s *memState) error {
		n.ID = s.id()
		n.Read = false
		n.CreatedAt = time.Now()
		s.notifications[n.ID] = n
		return nil
	})
	return n, nil
}

func (m *MemoryStore) GetNotification(ctx context.Context, id int64) (models.Notification, error) {
	var n models.Notification
	err := m.read(func(s *memState) error {
		var ok bool
		if n, ok = s.notifications[id]; !ok {
			return fmt.Errorf("notification %d: %w", id, apperrors.ErrNotFound)
		}
		return nil
	})
	return n, err
}

func (m *MemoryStore) ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	notifications := []models.Notification{}
	_ = m.read(func(s *memState) error {
		for _, n := range s.notifications {
			if n.UserID == userID {
				notifications = append(notifications, n)
			}
		}
		return nil
	})
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID > notifications[j].ID })
	return notifications, nil
}

func (m *MemoryStore) MarkNotificationRead(ctx context.Context, id int64) error {
	return m.write(func(s *memState) error {
		n, ok := s.notifications[id]
		if !ok {
			return fmt.Errorf("notification %d: %w", id, apperrors.ErrNotFound)
		}
		n.Read = true
		s.notifications[id] = n
		return nil
	})
}

func (m *MemoryStore) ListFileReferences(ctx context.Context) ([]string, error) {
	refs := []string{}
	_ = m.read(func(s *memState) error {
		for _, req := range s.coinRequests {
			refs = append(refs, req.ProofReference)
		}
		for _, p := range s.products {
			if p.ImagePath != "" {
				refs = append(refs, p.ImagePath)
			}
		}
		return nil
	})
	sort.Strings(refs)
	return refs, nil
}

// ErrRowNotLocked reports a write to a row the transaction never locked.
var ErrRowNotLocked = errors.New("row written without FOR UPDATE lock")

// memTx works on state owned by the enclosing InTx call; it takes no locks
// but remembers which rows the caller locked.
type memTx struct {
	state  *memState
	locked map[string]bool
}

func newMemTx(state *memState) *memTx {
	return &memTx{state: state, locked: make(map[string]bool)}
}

func (t *memTx) requireLock(kind string, id int64) error {
	if !t.locked[fmt.Sprintf("%s:%d", kind, id)] {
		return fmt.Errorf("%s %d: %w", kind, id, ErrRowNotLocked)
	}
	return nil
}

func (t *memTx) lock(kind string, id int64) {
	t.locked[fmt.Sprintf("%s:%d", kind, id)] = true
}

func (t *memTx) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}
	return u, nil
}

func (t *memTx) AddCoins(ctx context.Context, userID, delta int64) (int64, error) {
	u, ok := t.state.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	if u.Coins+delta < 0 {
		return 0, fmt.Errorf("user %d cannot cover %d coins: %w", userID, -delta, apperrors.ErrInsufficientBalance)
	}
	u.Coins += delta
	t.state.users[userID] = u
	return u.Coins, nil
}

func (t *memTx) CreateCoinRequest(ctx context.Context, req models.CoinRequest) (models.CoinRequest, error) {
	if _, ok := t.state.users[req.UserID]; !ok {
		return models.CoinRequest{}, fmt.Errorf("user %d: %w", req.UserID, apperrors.ErrNotFound)
	}
	req.ID = t.state.id()
	req.CreatedAt = time.Now()
	req.Reviewed = false
	req.Approved = nil
	t.state.coinRequests[req.ID] = req
	return req, nil
}

func (t *memTx) LockCoinRequest(ctx context.Context, id int64) (models.CoinRequest, error) {
	req, ok := t.state.coinRequests[id]
	if !ok {
		return models.CoinRequest{}, fmt.Errorf("coin request %d: %w", id, apperrors.ErrNotFound)
	}
	t.lock("coin request", id)
	return req, nil
}

func (t *memTx) SaveCoinRequestReview(ctx context.Context, req models.CoinRequest) error {
	if _, ok := t.state.coinRequests[req.ID]; !ok {
		return fmt.Errorf("coin request %d: %w", req.ID, apperrors.ErrNotFound)
	}
	if err := t.requireLock("coin request", req.ID); err != nil {
		return err
	}
	t.state.coinRequests[req.ID] = req
	return nil
}

func (t *memTx) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %d: %w", id, apperrors.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	order.ID = t.state.id()
	order.CreatedAt = time.Now()
	order.LineItems = append([]models.LineItem(nil), order.LineItems...)
	t.state.orders[order.ID] = order
	return order, nil
}

func (t *memTx) LockOrder(ctx context.Context, id int64) (models.Order, error) {
	o, ok := t.state.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %d: %w", id, apperrors.ErrNotFound)
	}
	o.LineItems = append([]models.LineItem(nil), o.LineItems...)
	t.lock("order", id)
	return o, nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, id int64, status string, deliveryTime *time.Time) error {
	o, ok := t.state.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, apperrors.ErrNotFound)
	}
	if err := t.requireLock("order", id); err != nil {
		return err
	}
	o.Status = status
	if deliveryTime != nil {
		dt := *deliveryTime
		o.DeliveryTime = &dt
	}
	t.state.orders[id] = o
	return nil
}

func (t *memTx) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	return append([]models.CartItem{}, t.state.carts[userID]...), nil
}

func (t *memTx) ClearCart(ctx context.Context, userID int64) error {
	delete(t.state.carts, userID)
	return nil
}

var (
	_ models.LedgerStorage        = (*MemoryStore)(nil)
	_ models.LedgerTx             = (*memTx)(nil)
	_ models.UserStorage          = (*MemoryStore)(nil)
	_ models.CoinRequestStorage   = (*MemoryStore)(nil)
	_ models.OrderStorage         = (*MemoryStore)(nil)
	_ models.CatalogStorage       = (*MemoryStore)(nil)
	_ models.CartStorage          = (*MemoryStore)(nil)
	_ models.NotificationStorage  = (*MemoryStore)(nil)
	_ models.FileReferenceStorage = (*MemoryStore)(nil)
)
