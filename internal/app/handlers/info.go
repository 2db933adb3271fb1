package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/linemk/season-swap/internal/service"
)

// BalanceService - часть Ledger, нужная для чтения баланса
type BalanceService interface {
	Balance(ctx context.Context, userID int64) (int, error)
}

type CoinsResponse struct {
	Coins int `json:"coins"`
}

// InfoHandler обрабатывает запрос GET /api/info.
// Возвращает баланс, товары по сезонам и историю монет пользователя из токена.
func InfoHandler(log *slog.Logger, infoService service.InfoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.InfoHandler"
		logger := log.With(slog.String("op", op))

		id, ok := userID(w, r, logger)
		if !ok {
			return
		}

		info, err := infoService.GetInfo(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, info)
	}
}

// CoinsHandler обрабатывает GET /api/user/coins
func CoinsHandler(log *slog.Logger, balances BalanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CoinsHandler"
		logger := log.With(slog.String("op", op))

		id, ok := userID(w, r, logger)
		if !ok {
			return
		}

		coins, err := balances.Balance(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, CoinsResponse{Coins: coins})
	}
}
