package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/lib/metrics"
	"github.com/linemk/season-swap/internal/storage"
)

// OfferInput - предложение обмена. OfferedItemID может отсутствовать.
type OfferInput struct {
	SenderID        int64
	ReceiverID      int64
	RequestedItemID int64
	OfferedItemID   *int64
	CoinsOffered    int
}

// TradeService управляет жизненным циклом предложений обмена.
type TradeService interface {
	CreateOffer(ctx context.Context, in OfferInput) (int64, error)
	ListPending(ctx context.Context, userID int64) ([]*models.TradeOffer, error)
	// Accept атомарно проводит обмен: товары и монеты переходят вместе
	// со сменой статуса, либо не меняется ничего.
	Accept(ctx context.Context, tradeID, actingUserID int64) (*models.TradeOffer, error)
	Decline(ctx context.Context, tradeID, actingUserID int64) (*models.TradeOffer, error)
}

type tradeService struct {
	log           *slog.Logger
	txRunner      storage.TxRunner
	tradeRepo     storage.TradeStorage
	userRepo      storage.UserStorage
	catalog       CatalogService
	ledger        Ledger
	settleTimeout time.Duration
}

func NewTradeService(
	log *slog.Logger,
	txRunner storage.TxRunner,
	tradeRepo storage.TradeStorage,
	userRepo storage.UserStorage,
	catalog CatalogService,
	ledger Ledger,
	settleTimeout time.Duration,
) TradeService {
	return &tradeService{
		log:           log,
		txRunner:      txRunner,
		tradeRepo:     tradeRepo,
		userRepo:      userRepo,
		catalog:       catalog,
		ledger:        ledger,
		settleTimeout: settleTimeout,
	}
}

func (s *tradeService) CreateOffer(ctx context.Context, in OfferInput) (int64, error) {
	const op = "service.TradeService.CreateOffer"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("senderID", in.SenderID),
		slog.Int64("receiverID", in.ReceiverID),
	)

	if err := validateOffer(in); err != nil {
		logger.Warn("invalid offer", slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.userRepo.GetUserByID(ctx, in.ReceiverID); err != nil {
		logger.Warn("receiver lookup failed", slog.Any("error", err))
		return 0, fmt.Errorf("%s: receiver: %w", op, classify(err))
	}

	requested, err := s.catalog.GetProduct(ctx, in.RequestedItemID)
	if err != nil {
		return 0, fmt.Errorf("%s: requested item: %w", op, err)
	}
	if requested.OwnerID != in.ReceiverID {
		return 0, fmt.Errorf("%s: requested item: %w", op, ErrNotItemOwner)
	}

	if in.OfferedItemID != nil {
		offered, err := s.catalog.GetProduct(ctx, *in.OfferedItemID)
		if err != nil {
			return 0, fmt.Errorf("%s: offered item: %w", op, err)
		}
		if offered.OwnerID != in.SenderID {
			return 0, fmt.Errorf("%s: offered item: %w", op, ErrNotItemOwner)
		}
	}

	id, err := s.tradeRepo.CreateTrade(ctx, &models.TradeOffer{
		SenderID:        in.SenderID,
		ReceiverID:      in.ReceiverID,
		RequestedItemID: in.RequestedItemID,
		OfferedItemID:   in.OfferedItemID,
		CoinsOffered:    in.CoinsOffered,
		Status:          models.TradePending,
	})
	if err != nil {
		logger.Error("failed to create trade", slog.Any("error", err))
		return 0, fmt.Errorf("%s: %w", op, classify(err))
	}

	metrics.IncOffersCreated()
	logger.Info("trade offer created", slog.Int64("tradeID", id))
	return id, nil
}

func validateOffer(in OfferInput) error {
	if in.SenderID <= 0 || in.ReceiverID <= 0 || in.RequestedItemID <= 0 {
		return ErrMissingID
	}
	if in.OfferedItemID != nil && *in.OfferedItemID <= 0 {
		return ErrMissingID
	}
	if in.SenderID == in.ReceiverID {
		return ErrSelfTrade
	}
	if in.CoinsOffered < 0 {
		return ErrNegativeCoins
	}
	if in.CoinsOffered > models.MaxCoins {
		return ErrCoinsOutOfRange
	}
	if in.OfferedItemID != nil && *in.OfferedItemID == in.RequestedItemID {
		return ErrSameItem
	}
	return nil
}

func (s *tradeService) ListPending(ctx context.Context, userID int64) ([]*models.TradeOffer, error) {
	const op = "service.TradeService.ListPending"
	offers, err := s.tradeRepo.ListPendingByReceiver(ctx, userID)
	if err != nil {
		s.log.Error("failed to list pending offers", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return offers, nil
}

func (s *tradeService) Accept(ctx context.Context, tradeID, actingUserID int64) (*models.TradeOffer, error) {
	const op = "service.TradeService.Accept"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("tradeID", tradeID),
		slog.Int64("userID", actingUserID),
	)
	logger.Info("settling trade")
	start := time.Now()

	if tradeID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	var settled *models.TradeOffer
	err := s.txRunner.WithinTx(ctx, func(tx *sql.Tx) error {
		offer, err := s.lockPending(ctx, tx, tradeID, actingUserID)
		if err != nil {
			return err
		}

		// запрошенный товар уходит от получателя к отправителю
		if err := s.catalog.TransferOwnership(ctx, tx, offer.RequestedItemID, offer.SenderID, offer.ReceiverID); err != nil {
			return fmt.Errorf("failed to transfer requested item: %w", err)
		}
		if offer.OfferedItemID != nil {
			if err := s.catalog.TransferOwnership(ctx, tx, *offer.OfferedItemID, offer.ReceiverID, offer.SenderID); err != nil {
				return fmt.Errorf("failed to transfer offered item: %w", err)
			}
		}

		if err := s.ledger.Debit(ctx, tx, offer.SenderID, offer.CoinsOffered, Ref{TradeID: offer.ID, CounterpartyID: offer.ReceiverID}); err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}
		if err := s.ledger.Credit(ctx, tx, offer.ReceiverID, offer.CoinsOffered, Ref{TradeID: offer.ID, CounterpartyID: offer.SenderID}); err != nil {
			return fmt.Errorf("failed to credit receiver: %w", err)
		}

		if err := s.tradeRepo.UpdateTradeStatusTx(ctx, tx, offer.ID, models.TradePending, models.TradeAccepted); err != nil {
			return fmt.Errorf("failed to update trade status: %w", classify(err))
		}

		offer.Status = models.TradeAccepted
		settled = offer
		return nil
	})
	if err != nil {
		err = settlementError(ctx, err)
		metrics.ObserveSettlement("accept", Code(err), time.Since(start))
		logSettlementFailure(logger, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveSettlement("accept", Code(nil), time.Since(start))
	logger.Info("trade settled",
		slog.Int64("senderID", settled.SenderID),
		slog.Int("coins", settled.CoinsOffered),
	)
	return settled, nil
}

func (s *tradeService) Decline(ctx context.Context, tradeID, actingUserID int64) (*models.TradeOffer, error) {
	const op = "service.TradeService.Decline"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("tradeID", tradeID),
		slog.Int64("userID", actingUserID),
	)
	start := time.Now()

	if tradeID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()

	var declined *models.TradeOffer
	err := s.txRunner.WithinTx(ctx, func(tx *sql.Tx) error {
		offer, err := s.lockPending(ctx, tx, tradeID, actingUserID)
		if err != nil {
			return err
		}
		if err := s.tradeRepo.UpdateTradeStatusTx(ctx, tx, offer.ID, models.TradePending, models.TradeDeclined); err != nil {
			return fmt.Errorf("failed to update trade status: %w", classify(err))
		}
		offer.Status = models.TradeDeclined
		declined = offer
		return nil
	})
	if err != nil {
		err = settlementError(ctx, err)
		metrics.ObserveSettlement("decline", Code(err), time.Since(start))
		logSettlementFailure(logger, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ObserveSettlement("decline", Code(nil), time.Since(start))
	logger.Info("trade declined")
	return declined, nil
}

// lockPending блокирует строку сделки до конца транзакции и проверяет,
// что действует получатель и сделка ещё ожидает ответа.
func (s *tradeService) lockPending(ctx context.Context, tx *sql.Tx, tradeID, actingUserID int64) (*models.TradeOffer, error) {
	offer, err := s.tradeRepo.LockTradeByIDTx(ctx, tx, tradeID)
	if err != nil {
		return nil, classify(err)
	}
	if offer.ReceiverID != actingUserID {
		return nil, ErrNotOfferReceiver
	}
	if offer.Status != models.TradePending {
		return nil, ErrOfferNotPending
	}
	return offer, nil
}

// settlementError превращает истечение срока расчёта в конфликт,
// остальные ошибки приводит к видам сервиса.
func settlementError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && (errors.Is(err, ErrStorage) || !isKind(err)) {
		return fmt.Errorf("%w: settlement timed out: %w", ErrConflict, err)
	}
	return classify(err)
}

func logSettlementFailure(logger *slog.Logger, err error) {
	if Code(err) == "storage_error" {
		logger.Error("trade settlement failed", slog.Any("error", err))
		return
	}
	logger.Warn("trade settlement rejected", slog.String("code", Code(err)), slog.Any("error", err))
}
