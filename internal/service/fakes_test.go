package service_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/service"
	"github.com/linemk/season-swap/internal/storage"
)

var errInjected = errors.New("connection reset by peer")

// fakeStore - общее состояние фейковых репозиториев, аналог одной БД.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	products map[int64]*models.Product
	trades   map[int64]*models.TradeOffer
	coinTxs  []*models.CoinTransaction
	nextID   int64
	// failOn заставляет операцию с этим именем вернуть errInjected
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		products: make(map[int64]*models.Product),
		trades:   make(map[int64]*models.TradeOffer),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) fail(op string) error {
	if s.failOn == op {
		return errInjected
	}
	return nil
}

func (s *fakeStore) addUser(username string, coins int) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:        s.id(),
		Username:  username,
		Email:     username + "@example.com",
		PassHash:  []byte("hashed"),
		Coins:     coins,
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addProduct(name string, season models.Season, ownerID int64) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Product{
		ID:          s.id(),
		Name:        name,
		Season:      season,
		Description: name + " description",
		OwnerID:     ownerID,
		CreatedAt:   time.Now(),
	}
	s.products[p.ID] = p
	return p
}

func (s *fakeStore) coins(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].Coins
}

func (s *fakeStore) owner(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].OwnerID
}

func (s *fakeStore) status(tradeID int64) models.TradeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trades[tradeID].Status
}

func (s *fakeStore) journalLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.coinTxs)
}

type snapshot struct {
	users    map[int64]models.User
	products map[int64]models.Product
	trades   map[int64]models.TradeOffer
	coinTxs  []*models.CoinTransaction
}

func (s *fakeStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		users:    make(map[int64]models.User, len(s.users)),
		products: make(map[int64]models.Product, len(s.products)),
		trades:   make(map[int64]models.TradeOffer, len(s.trades)),
		coinTxs:  append([]*models.CoinTransaction(nil), s.coinTxs...),
	}
	for id, u := range s.users {
		snap.users[id] = *u
	}
	for id, p := range s.products {
		snap.products[id] = *p
	}
	for id, t := range s.trades {
		snap.trades[id] = *t
	}
	return snap
}

func (s *fakeStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]*models.User, len(snap.users))
	for id, u := range snap.users {
		u := u
		s.users[id] = &u
	}
	s.products = make(map[int64]*models.Product, len(snap.products))
	for id, p := range snap.products {
		p := p
		s.products[id] = &p
	}
	s.trades = make(map[int64]*models.TradeOffer, len(snap.trades))
	for id, t := range snap.trades {
		t := t
		s.trades[id] = &t
	}
	s.coinTxs = snap.coinTxs
}

// fakeTxRunner сериализует транзакции и откатывает состояние при ошибке.
type fakeTxRunner struct {
	mu    sync.Mutex
	store *fakeStore
	calls int
}

var _ storage.TxRunner = (*fakeTxRunner)(nil)

func (r *fakeTxRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type fakeUserRepo struct{ s *fakeStore }

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, storage.ErrUserExists
		}
	}
	user.ID = f.s.id()
	user.CreatedAt = time.Now()
	cp := *user
	f.s.users[user.ID] = &cp
	return user, nil
}

func (f *fakeUserRepo) UpdateUsername(ctx context.Context, id int64, username string) error {
	return f.update(id, func(u *models.User) { u.Username = username })
}

func (f *fakeUserRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	return f.update(id, func(u *models.User) { u.Email = email })
}

func (f *fakeUserRepo) UpdatePassHash(ctx context.Context, id int64, passHash []byte) error {
	return f.update(id, func(u *models.User) { u.PassHash = passHash })
}

func (f *fakeUserRepo) update(id int64, apply func(u *models.User)) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	apply(u)
	return nil
}

func (f *fakeUserRepo) CreditTx(ctx context.Context, tx *sql.Tx, id int64, amount int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("credit"); err != nil {
		return err
	}
	u, ok := f.s.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	// как postgres: INTEGER не может превысить MaxCoins
	if u.Coins+amount > models.MaxCoins {
		return storage.ErrCoinsOutOfRange
	}
	u.Coins += amount
	return nil
}

func (f *fakeUserRepo) DebitTx(ctx context.Context, tx *sql.Tx, id int64, amount int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("debit"); err != nil {
		return err
	}
	u, ok := f.s.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	if u.Coins < amount {
		return storage.ErrInsufficientFunds
	}
	u.Coins -= amount
	return nil
}

type fakeProductRepo struct{ s *fakeStore }

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	product.ID = f.s.id()
	product.CreatedAt = time.Now()
	cp := *product
	f.s.products[product.ID] = &cp
	return product, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return f.filter(func(*models.Product) bool { return true }), nil
}

func (f *fakeProductRepo) ListProductsBySeason(ctx context.Context, season models.Season) ([]*models.Product, error) {
	return f.filter(func(p *models.Product) bool { return p.Season == season }), nil
}

func (f *fakeProductRepo) ListProductsByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error) {
	return f.filter(func(p *models.Product) bool { return p.OwnerID == ownerID }), nil
}

func (f *fakeProductRepo) filter(keep func(*models.Product) bool) []*models.Product {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	res := make([]*models.Product, 0)
	for _, p := range f.s.products {
		if keep(p) {
			cp := *p
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (f *fakeProductRepo) TransferOwnershipTx(ctx context.Context, tx *sql.Tx, id, newOwnerID, expectedOwnerID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("transfer"); err != nil {
		return err
	}
	p, ok := f.s.products[id]
	if !ok {
		return storage.ErrProductNotFound
	}
	if p.OwnerID != expectedOwnerID {
		return storage.ErrOwnerMismatch
	}
	p.OwnerID = newOwnerID
	return nil
}

type fakeTradeRepo struct{ s *fakeStore }

var _ storage.TradeStorage = (*fakeTradeRepo)(nil)

func (f *fakeTradeRepo) CreateTrade(ctx context.Context, trade *models.TradeOffer) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *trade
	cp.ID = f.s.id()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.s.trades[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeTradeRepo) GetTradeByID(ctx context.Context, id int64) (*models.TradeOffer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.trades[id]
	if !ok {
		return nil, storage.ErrTradeNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTradeRepo) LockTradeByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.TradeOffer, error) {
	return f.GetTradeByID(ctx, id)
}

func (f *fakeTradeRepo) ListPendingByReceiver(ctx context.Context, receiverID int64) ([]*models.TradeOffer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	res := make([]*models.TradeOffer, 0)
	for _, t := range f.s.trades {
		if t.ReceiverID == receiverID && t.Status == models.TradePending {
			cp := *t
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (f *fakeTradeRepo) UpdateTradeStatusTx(ctx context.Context, tx *sql.Tx, id int64, from, to models.TradeStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("status"); err != nil {
		return err
	}
	t, ok := f.s.trades[id]
	if !ok || t.Status != from {
		return storage.ErrTradeStatusChanged
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	return nil
}

type fakeCoinTxRepo struct{ s *fakeStore }

var _ storage.CoinTransactionStorage = (*fakeCoinTxRepo)(nil)

func (f *fakeCoinTxRepo) CreateTransaction(ctx context.Context, tx *sql.Tx, userID int64, amount int, txType string, relatedUserID, tradeID *int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.fail("journal"); err != nil {
		return err
	}
	f.s.coinTxs = append(f.s.coinTxs, &models.CoinTransaction{
		ID:            f.s.id(),
		UserID:        userID,
		Amount:        amount,
		Type:          txType,
		RelatedUserID: relatedUserID,
		TradeID:       tradeID,
		CreatedAt:     time.Now(),
	})
	return nil
}

func (f *fakeCoinTxRepo) GetTransactionsByUserID(ctx context.Context, userID int64) ([]*models.CoinTransaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	res := make([]*models.CoinTransaction, 0)
	// новые записи первыми, как в SQL-реализации
	for i := len(f.s.coinTxs) - 1; i >= 0; i-- {
		if f.s.coinTxs[i].UserID == userID {
			res = append(res, f.s.coinTxs[i])
		}
	}
	return res, nil
}

// testEnv собирает сервисы поверх одного фейкового хранилища.
type testEnv struct {
	store   *fakeStore
	runner  *fakeTxRunner
	users   *fakeUserRepo
	catalog service.CatalogService
	ledger  service.Ledger
	trades  service.TradeService
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	users := &fakeUserRepo{s: store}
	runner := &fakeTxRunner{store: store}
	catalog := service.NewCatalogService(logger, &fakeProductRepo{s: store})
	ledger := service.NewLedger(logger, users, &fakeCoinTxRepo{s: store})

	return &testEnv{
		store:   store,
		runner:  runner,
		users:   users,
		catalog: catalog,
		ledger:  ledger,
		trades:  service.NewTradeService(logger, runner, &fakeTradeRepo{s: store}, users, catalog, ledger, time.Second),
	}
}

func ptr[T any](v T) *T {
	return &v
}
