package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/storage"
)

// InfoService определяет интерфейс для получения сводки о пользователе.
type InfoService interface {
	GetInfo(ctx context.Context, userID int64) (*InfoResponse, error)
}

type infoService struct {
	log        *slog.Logger
	userRepo   storage.UserStorage
	catalog    CatalogService
	coinTxRepo storage.CoinTransactionStorage
}

func NewInfoService(log *slog.Logger, userRepo storage.UserStorage, catalog CatalogService, coinTxRepo storage.CoinTransactionStorage) InfoService {
	return &infoService{
		log:        log,
		userRepo:   userRepo,
		catalog:    catalog,
		coinTxRepo: coinTxRepo,
	}
}

type InfoResponse struct {
	Coins       int             `json:"coins"`
	Inventory   []InventoryItem `json:"inventory"`
	CoinHistory CoinHistory     `json:"coinHistory"`
}

// InventoryItem - товары пользователя одного сезона
type InventoryItem struct {
	Season   models.Season     `json:"season"`
	Quantity int               `json:"quantity"`
	Products []*models.Product `json:"products"`
}

type CoinHistory struct {
	Received []HistoryEntry `json:"received"`
	Sent     []HistoryEntry `json:"sent"`
}

type HistoryEntry struct {
	FromUser string `json:"fromUser,omitempty"`
	ToUser   string `json:"toUser,omitempty"`
	Amount   int    `json:"amount"`
	TradeID  *int64 `json:"tradeId,omitempty"`
}

// GetInfo собирает баланс, инвентарь по сезонам и историю монет.
func (s *infoService) GetInfo(ctx context.Context, userID int64) (*InfoResponse, error) {
	const op = "service.InfoService.GetInfo"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("getting info")

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Error("failed to get user by id", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, classify(err))
	}

	owned, err := s.catalog.ListOwned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get inventory: %w", op, err)
	}

	// сезоны без товаров не попадают в ответ
	bySeason := make(map[models.Season][]*models.Product)
	for _, p := range owned {
		bySeason[p.Season] = append(bySeason[p.Season], p)
	}
	inventory := make([]InventoryItem, 0, len(bySeason))
	for _, season := range models.Seasons {
		products, ok := bySeason[season]
		if !ok {
			continue
		}
		inventory = append(inventory, InventoryItem{
			Season:   season,
			Quantity: len(products),
			Products: products,
		})
	}

	transactions, err := s.coinTxRepo.GetTransactionsByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get coin transactions", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get coin history: %w", op, classify(err))
	}

	received := make([]HistoryEntry, 0)
	sent := make([]HistoryEntry, 0)
	names := make(map[int64]string)
	for _, tx := range transactions {
		counterpart := s.username(ctx, tx.RelatedUserID, names)
		switch tx.Type {
		case models.CoinTxTradeCredit:
			received = append(received, HistoryEntry{FromUser: counterpart, Amount: tx.Amount, TradeID: tx.TradeID})
		case models.CoinTxTradeDebit:
			sent = append(sent, HistoryEntry{ToUser: counterpart, Amount: tx.Amount, TradeID: tx.TradeID})
		}
	}

	return &InfoResponse{
		Coins:       user.Coins,
		Inventory:   inventory,
		CoinHistory: CoinHistory{Received: received, Sent: sent},
	}, nil
}

// username возвращает имя контрагента или пустую строку, если его не удалось найти.
func (s *infoService) username(ctx context.Context, id *int64, cache map[int64]string) string {
	if id == nil {
		return ""
	}
	if name, ok := cache[*id]; ok {
		return name
	}
	name := ""
	if u, err := s.userRepo.GetUserByID(ctx, *id); err == nil {
		name = u.Username
	}
	cache[*id] = name
	return name
}
