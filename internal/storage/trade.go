package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/season-swap/internal/domain/models"
)

// TradeStorage описывает методы для работы с предложениями обмена.
type TradeStorage interface {
	CreateTrade(ctx context.Context, trade *models.TradeOffer) (int64, error)
	GetTradeByID(ctx context.Context, id int64) (*models.TradeOffer, error)
	// LockTradeByIDTx читает предложение и блокирует строку до конца транзакции.
	LockTradeByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.TradeOffer, error)
	ListPendingByReceiver(ctx context.Context, receiverID int64) ([]*models.TradeOffer, error)
	// UpdateTradeStatusTx меняет статус только из состояния from.
	UpdateTradeStatusTx(ctx context.Context, tx *sql.Tx, id int64, from, to models.TradeStatus) error
}

type tradeRepository struct {
	db *sql.DB
}

func NewTradeRepository(db *sql.DB) TradeStorage {
	return &tradeRepository{db: db}
}

const tradeColumns = "id, sender_id, receiver_id, requested_item_id, offered_item_id, coins_offered, status, created_at, updated_at"

func scanTrade(row rowScanner) (*models.TradeOffer, error) {
	t := &models.TradeOffer{}
	var offered sql.NullInt64
	if err := row.Scan(&t.ID, &t.SenderID, &t.ReceiverID, &t.RequestedItemID, &offered,
		&t.CoinsOffered, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if offered.Valid {
		t.OfferedItemID = &offered.Int64
	}
	return t, nil
}

func (r *tradeRepository) CreateTrade(ctx context.Context, trade *models.TradeOffer) (int64, error) {
	query := `INSERT INTO trades (sender_id, receiver_id, requested_item_id, offered_item_id, coins_offered, status)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		trade.SenderID, trade.ReceiverID, trade.RequestedItemID, trade.OfferedItemID, trade.CoinsOffered, models.TradePending,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create trade: %w", mapPqError(err))
	}
	return id, nil
}

func (r *tradeRepository) GetTradeByID(ctx context.Context, id int64) (*models.TradeOffer, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = $1", id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return trade, nil
}

// LockTradeByIDTx ждёт освобождения строки, если её держит другая транзакция.
// Время ожидания ограничено контекстом вызывающего.
func (r *tradeRepository) LockTradeByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.TradeOffer, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = $1 FOR UPDATE", id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, mapPqError(err)
	}
	return trade, nil
}

func (r *tradeRepository) ListPendingByReceiver(ctx context.Context, receiverID int64) ([]*models.TradeOffer, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE receiver_id = $1 AND status = $2 ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query, receiverID, models.TradePending)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*models.TradeOffer, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepository) UpdateTradeStatusTx(ctx context.Context, tx *sql.Tx, id int64, from, to models.TradeStatus) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE trades SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, id, from,
	)
	if err != nil {
		return mapPqError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTradeStatusChanged
	}
	return nil
}
