package models

import "time"

// TradeStatus - состояние предложения обмена
type TradeStatus string

const (
	TradePending  TradeStatus = "pending"
	TradeAccepted TradeStatus = "accepted"
	TradeDeclined TradeStatus = "declined"
)

// TradeOffer - предложение обмена от отправителя получателю.
// Отправитель просит товар получателя и может предложить свой товар и монеты.
type TradeOffer struct {
	ID              int64       `json:"id"`
	SenderID        int64       `json:"senderId"`
	ReceiverID      int64       `json:"receiverId"`
	RequestedItemID int64       `json:"requestedItemId"`
	OfferedItemID   *int64      `json:"offeredItemId,omitempty"`
	CoinsOffered    int         `json:"coinsOffered"`
	Status          TradeStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
