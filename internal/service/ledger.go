package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/storage"
)

// Ref связывает проводку со сделкой и контрагентом.
type Ref struct {
	TradeID        int64
	CounterpartyID int64
}

// Ledger отвечает за балансы монет. Credit и Debit работают только
// внутри транзакции вызывающего, их эффект виден после коммита.
type Ledger interface {
	Credit(ctx context.Context, tx *sql.Tx, userID int64, amount int, ref Ref) error
	Debit(ctx context.Context, tx *sql.Tx, userID int64, amount int, ref Ref) error
	Balance(ctx context.Context, userID int64) (int, error)
}

type ledger struct {
	log        *slog.Logger
	userRepo   storage.UserStorage
	coinTxRepo storage.CoinTransactionStorage
}

func NewLedger(log *slog.Logger, userRepo storage.UserStorage, coinTxRepo storage.CoinTransactionStorage) Ledger {
	return &ledger{
		log:        log,
		userRepo:   userRepo,
		coinTxRepo: coinTxRepo,
	}
}

func (l *ledger) Credit(ctx context.Context, tx *sql.Tx, userID int64, amount int, ref Ref) error {
	const op = "service.Ledger.Credit"
	if amount < 0 {
		return fmt.Errorf("%s: %w", op, ErrNegativeCoins)
	}
	if amount > models.MaxCoins {
		return fmt.Errorf("%s: %w", op, ErrCoinsOutOfRange)
	}
	// нулевая проводка ничего не меняет и не попадает в журнал
	if amount == 0 {
		return nil
	}

	if err := l.userRepo.CreditTx(ctx, tx, userID, amount); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	if err := l.coinTxRepo.CreateTransaction(ctx, tx, userID, amount, models.CoinTxTradeCredit, &ref.CounterpartyID, &ref.TradeID); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	l.log.Debug("coins credited", slog.String("op", op), slog.Int64("userID", userID), slog.Int("amount", amount))
	return nil
}

func (l *ledger) Debit(ctx context.Context, tx *sql.Tx, userID int64, amount int, ref Ref) error {
	const op = "service.Ledger.Debit"
	if amount < 0 {
		return fmt.Errorf("%s: %w", op, ErrNegativeCoins)
	}
	if amount > models.MaxCoins {
		return fmt.Errorf("%s: %w", op, ErrCoinsOutOfRange)
	}
	if amount == 0 {
		return nil
	}

	if err := l.userRepo.DebitTx(ctx, tx, userID, amount); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	if err := l.coinTxRepo.CreateTransaction(ctx, tx, userID, amount, models.CoinTxTradeDebit, &ref.CounterpartyID, &ref.TradeID); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	l.log.Debug("coins debited", slog.String("op", op), slog.Int64("userID", userID), slog.Int("amount", amount))
	return nil
}

func (l *ledger) Balance(ctx context.Context, userID int64) (int, error) {
	const op = "service.Ledger.Balance"
	user, err := l.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		l.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, classify(err))
	}
	return user.Coins, nil
}
