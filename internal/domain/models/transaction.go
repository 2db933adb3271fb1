package models

import "time"

const (
	CoinTxTradeDebit  = "trade_debit"
	CoinTxTradeCredit = "trade_credit"
)

// CoinTransaction - запись журнала монет, создаётся при расчёте сделки.
type CoinTransaction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Amount        int       `json:"amount"`
	Type          string    `json:"type"` // trade_debit или trade_credit
	RelatedUserID *int64    `json:"related_user_id,omitempty"`
	TradeID       *int64    `json:"trade_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
