package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/season-swap/internal/domain/models"
)

// CoinTransactionStorage описывает методы для работы с журналом монет.
type CoinTransactionStorage interface {
	// CreateTransaction создает запись журнала в рамках транзакции расчёта.
	CreateTransaction(ctx context.Context, tx *sql.Tx, userID int64, amount int, txType string, relatedUserID, tradeID *int64) error
	// GetTransactionsByUserID возвращает журнал пользователя, новые записи первыми.
	GetTransactionsByUserID(ctx context.Context, userID int64) ([]*models.CoinTransaction, error)
}

type coinTransactionRepository struct {
	db *sql.DB
}

func NewCoinTransactionRepository(db *sql.DB) CoinTransactionStorage {
	return &coinTransactionRepository{db: db}
}

func (r *coinTransactionRepository) CreateTransaction(ctx context.Context, tx *sql.Tx, userID int64, amount int, txType string, relatedUserID, tradeID *int64) error {
	query := `INSERT INTO coin_transactions (user_id, amount, type, related_user_id, trade_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())`
	_, err := tx.ExecContext(ctx, query, userID, amount, txType, relatedUserID, tradeID)
	if err != nil {
		return fmt.Errorf("failed to create coin transaction: %w", mapPqError(err))
	}
	return nil
}

func (r *coinTransactionRepository) GetTransactionsByUserID(ctx context.Context, userID int64) ([]*models.CoinTransaction, error) {
	query := `
		SELECT id, user_id, amount, type, related_user_id, trade_id, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query coin transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.CoinTransaction
	for rows.Next() {
		tx := &models.CoinTransaction{}
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.RelatedUserID, &tx.TradeID, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coin transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}
