package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/season-swap/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/season-swap/internal/service"
)

var validate = validator.New()

// ErrorResponse - тело ответа при любой ошибке
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByCode = map[string]int{
	"validation_error":     http.StatusBadRequest,
	"authentication_error": http.StatusUnauthorized,
	"authorization_error":  http.StatusForbidden,
	"not_found":            http.StatusNotFound,
	"conflict":             http.StatusConflict,
	"insufficient_funds":   http.StatusUnprocessableEntity,
	"storage_error":        http.StatusInternalServerError,
}

// ошибки, текст которых можно показать клиенту как есть
var publicErrors = []error{
	service.ErrSelfTrade,
	service.ErrMissingID,
	service.ErrNegativeCoins,
	service.ErrSameItem,
	service.ErrNotItemOwner,
	service.ErrInvalidSeason,
	service.ErrInvalidProduct,
	service.ErrInvalidProfileField,
	service.ErrUserExists,
	service.ErrInvalidCredentials,
	service.ErrNotOfferReceiver,
	service.ErrOfferNotPending,
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError отдаёт ошибку сервиса со стабильным кодом и HTTP-статусом её вида.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := service.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
	} else {
		logger.Warn("request rejected", slog.String("code", code), slog.Any("error", err))
	}

	writeJSON(w, logger, status, ErrorResponse{Code: code, Message: publicMessage(err, code)})
}

func publicMessage(err error, code string) string {
	for _, e := range publicErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	switch code {
	case "validation_error":
		return service.ErrValidation.Error()
	case "authentication_error":
		return service.ErrAuthentication.Error()
	case "authorization_error":
		return service.ErrAuthorization.Error()
	case "not_found":
		return service.ErrNotFound.Error()
	case "conflict":
		return "state changed concurrently, re-read and retry"
	case "insufficient_funds":
		return service.ErrInsufficientFunds.Error()
	}
	return "internal server error"
}

func writeBadRequest(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Warn("invalid request", slog.String("reason", msg), slog.Any("error", err))
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Code: "validation_error", Message: msg})
}

// decodeAndValidate читает JSON-тело и проверяет теги validate.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, logger, "invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeBadRequest(w, logger, validationMessage(err), err)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid field: " + verrs[0].Field()
	}
	return "validation error"
}

// userID достаёт id пользователя, который положил jwtmiddleware.
func userID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	id, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Code: "authentication_error", Message: "unauthorized"})
		return 0, false
	}
	return id, true
}
