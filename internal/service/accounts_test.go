package service_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(store *fakeStore) *service.AuthService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return service.NewAuthService(logger, &fakeUserRepo{s: store}, "testsecret", 60*time.Minute, 100)
}

func TestAuthService_Register(t *testing.T) {
	store := newFakeStore()
	authSvc := newAuthService(store)
	ctx := context.Background()

	user, err := authSvc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err, "Register should succeed")
	assert.NotZero(t, user.ID)
	assert.Equal(t, 100, store.coins(user.ID), "starting balance should come from config")
	assert.NotEqual(t, "password123", string(user.PassHash), "Password should be hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PassHash, []byte("password123")))
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	authSvc := newAuthService(newFakeStore())
	ctx := context.Background()

	_, err := authSvc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, "alice", "other@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrUserExists)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	authSvc := newAuthService(newFakeStore())
	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"short username", "al", "alice@example.com", "password123"},
		{"bad email", "alice", "not-an-email", "password123"},
		{"short password", "alice", "alice@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authSvc.Register(context.Background(), tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	store := newFakeStore()
	authSvc := newAuthService(store)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	token, err := authSvc.Login(ctx, "alice@example.com", "password123")
	assert.NoError(t, err, "Login should succeed with correct password")
	assert.NotEmpty(t, token, "Token should be returned")

	token, err = authSvc.Login(ctx, "alice@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.ErrorIs(t, err, service.ErrAuthentication)
	assert.Empty(t, token, "Token should be empty on failed login")
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	authSvc := newAuthService(newFakeStore())
	_, err := authSvc.Login(context.Background(), "ghost@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, service.ErrNotFound, "unknown email should look like a wrong password")
}

func TestProfileService_GetAndUpdate(t *testing.T) {
	store := newFakeStore()
	u := store.addUser("alice", 42)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewProfileService(logger, &fakeUserRepo{s: store})
	ctx := context.Background()

	profile, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 42, profile.Coins)

	require.NoError(t, svc.Update(ctx, u.ID, service.ProfileUpdate{Field: models.ProfileUsername, Value: "alice2"}))
	require.NoError(t, svc.Update(ctx, u.ID, service.ProfileUpdate{Field: models.ProfileEmail, Value: " new@example.com "}))
	require.NoError(t, svc.Update(ctx, u.ID, service.ProfileUpdate{Field: models.ProfilePassword, Value: "newpassword"}))

	profile, err = svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", profile.Username)
	assert.Equal(t, "new@example.com", profile.Email)

	store.mu.Lock()
	hash := store.users[u.ID].PassHash
	store.mu.Unlock()
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("newpassword")), "password should be rehashed")
}

func TestProfileService_Update_Invalid(t *testing.T) {
	store := newFakeStore()
	u := store.addUser("alice", 0)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := service.NewProfileService(logger, &fakeUserRepo{s: store})
	ctx := context.Background()

	err := svc.Update(ctx, u.ID, service.ProfileUpdate{Field: "coins", Value: "1000000"})
	assert.ErrorIs(t, err, service.ErrInvalidProfileField)

	err = svc.Update(ctx, u.ID, service.ProfileUpdate{Field: models.ProfileUsername, Value: "bad name!"})
	assert.ErrorIs(t, err, service.ErrValidation)

	err = svc.Update(ctx, 999, service.ProfileUpdate{Field: models.ProfileUsername, Value: "ghost"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Equal(t, 0, store.coins(u.ID))
}

func TestLedger_Balance(t *testing.T) {
	env := newTestEnv()
	u := env.store.addUser("alice", 77)

	coins, err := env.ledger.Balance(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 77, coins)

	_, err = env.ledger.Balance(context.Background(), 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestLedger_RejectsNegativeAmount(t *testing.T) {
	env := newTestEnv()
	u := env.store.addUser("alice", 10)

	err := env.ledger.Debit(context.Background(), nil, u.ID, -5, service.Ref{})
	assert.ErrorIs(t, err, service.ErrValidation)
	err = env.ledger.Credit(context.Background(), nil, u.ID, -5, service.Ref{})
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.Equal(t, 10, env.store.coins(u.ID))
}

func TestLedger_RejectsAmountAboveRange(t *testing.T) {
	env := newTestEnv()
	u := env.store.addUser("alice", 10)

	err := env.ledger.Credit(context.Background(), nil, u.ID, models.MaxCoins+1, service.Ref{})
	assert.ErrorIs(t, err, service.ErrCoinsOutOfRange)
	assert.Equal(t, 10, env.store.coins(u.ID))
	assert.Equal(t, 0, env.store.journalLen())
}

func TestInfoService_GetInfo(t *testing.T) {
	f := newTradeFixture()
	f.env.store.addProduct("umbrella", models.SeasonAutumn, f.a.ID)
	id := f.offer(t, 5)
	_, err := f.env.trades.Accept(context.Background(), id, f.a.ID)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	infoSvc := service.NewInfoService(logger, f.env.users, f.env.catalog, &fakeCoinTxRepo{s: f.env.store})

	info, err := infoSvc.GetInfo(context.Background(), f.a.ID)
	require.NoError(t, err, "GetInfo should succeed")
	assert.Equal(t, 55, info.Coins)

	// у A теперь kite (лето) и umbrella (осень), сезоны в календарном порядке
	require.Len(t, info.Inventory, 2)
	assert.Equal(t, models.SeasonSummer, info.Inventory[0].Season)
	assert.Equal(t, 1, info.Inventory[0].Quantity)
	assert.Equal(t, "kite", info.Inventory[0].Products[0].Name)
	assert.Equal(t, models.SeasonAutumn, info.Inventory[1].Season)

	require.Len(t, info.CoinHistory.Received, 1)
	assert.Empty(t, info.CoinHistory.Sent)
	assert.Equal(t, "bob", info.CoinHistory.Received[0].FromUser)
	assert.Equal(t, 5, info.CoinHistory.Received[0].Amount)
	assert.Equal(t, id, *info.CoinHistory.Received[0].TradeID)
}

func TestInfoService_GetInfo_UserNotFound(t *testing.T) {
	env := newTestEnv()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	infoSvc := service.NewInfoService(logger, env.users, env.catalog, &fakeCoinTxRepo{s: env.store})

	_, err := infoSvc.GetInfo(context.Background(), 999)
	assert.ErrorIs(t, err, service.ErrNotFound, "Expected error for non-existing user")
}
