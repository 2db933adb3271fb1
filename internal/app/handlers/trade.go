package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/service"
)

// TradeRequest - предложение обмена. Отправитель берётся из токена.
type TradeRequest struct {
	ReceiverID      int64  `json:"receiverId" validate:"required,gt=0"`
	RequestedItemID int64  `json:"requestedItemId" validate:"required,gt=0"`
	OfferedItemID   *int64 `json:"offeredItemId,omitempty" validate:"omitempty,gt=0"`
	CoinsOffered    int    `json:"coinsOffered" validate:"gte=0,lte=2147483647"`
}

type TradeResponse struct {
	TradeID int64 `json:"tradeId"`
}

// CreateTradeHandler обрабатывает POST /api/trade/request
func CreateTradeHandler(log *slog.Logger, tradeService service.TradeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateTradeHandler"
		logger := log.With(slog.String("op", op))

		senderID, ok := userID(w, r, logger)
		if !ok {
			return
		}

		var req TradeRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		id, err := tradeService.CreateOffer(r.Context(), service.OfferInput{
			SenderID:        senderID,
			ReceiverID:      req.ReceiverID,
			RequestedItemID: req.RequestedItemID,
			OfferedItemID:   req.OfferedItemID,
			CoinsOffered:    req.CoinsOffered,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, TradeResponse{TradeID: id})
	}
}

// PendingTradesHandler обрабатывает GET /api/trade/pending
func PendingTradesHandler(log *slog.Logger, tradeService service.TradeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PendingTradesHandler"
		logger := log.With(slog.String("op", op))

		id, ok := userID(w, r, logger)
		if !ok {
			return
		}

		offers, err := tradeService.ListPending(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, offers)
	}
}

// AcceptTradeHandler обрабатывает POST /api/trade/accept/{tradeId}
func AcceptTradeHandler(log *slog.Logger, tradeService service.TradeService) http.HandlerFunc {
	return resolveTradeHandler(log, "handlers.AcceptTradeHandler", tradeService.Accept)
}

// DeclineTradeHandler обрабатывает POST /api/trade/decline/{tradeId}
func DeclineTradeHandler(log *slog.Logger, tradeService service.TradeService) http.HandlerFunc {
	return resolveTradeHandler(log, "handlers.DeclineTradeHandler", tradeService.Decline)
}

type resolveFunc func(ctx context.Context, tradeID, actingUserID int64) (*models.TradeOffer, error)

func resolveTradeHandler(log *slog.Logger, op string, resolve resolveFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", op))

		actingUserID, ok := userID(w, r, logger)
		if !ok {
			return
		}

		tradeID, err := strconv.ParseInt(chi.URLParam(r, "tradeId"), 10, 64)
		if err != nil || tradeID <= 0 {
			writeBadRequest(w, logger, "invalid trade id", err)
			return
		}

		offer, err := resolve(r.Context(), tradeID, actingUserID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, offer)
	}
}
