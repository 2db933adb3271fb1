package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/season-swap/internal/service"
)

// RegisterRequest - запрос регистрации
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type RegisterResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Coins    int    `json:"coins"`
}

// LoginRequest - запрос на вход по email и паролю
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse представляет структуру ответа с JWT-токеном
type AuthResponse struct {
	Token string `json:"token"`
}

// RegisterHandler обрабатывает POST /api/register
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		user, err := authService.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, RegisterResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Coins:    user.Coins,
		})
	}
}

// LoginHandler – HTTP-обработчик входа, возвращает JWT-токен
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, AuthResponse{Token: token})
	}
}
