package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/linemk/season-swap/internal/storage"
)

// Виды ошибок, которые видит вызывающий. Каждая конкретная ошибка
// оборачивает ровно один вид, транспорт различает их через errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrAuthentication    = errors.New("authentication error")
	ErrAuthorization     = errors.New("authorization error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConflict можно безопасно повторить: перечитать состояние и вызвать снова.
	ErrConflict = errors.New("conflict")
	ErrStorage  = errors.New("storage error")
)

var (
	ErrSelfTrade           = fmt.Errorf("%w: cannot trade with yourself", ErrValidation)
	ErrMissingID           = fmt.Errorf("%w: all identifiers are required", ErrValidation)
	ErrNegativeCoins       = fmt.Errorf("%w: coins must be a non-negative integer", ErrValidation)
	ErrCoinsOutOfRange     = fmt.Errorf("%w: coins value is out of range", ErrValidation)
	ErrSameItem            = fmt.Errorf("%w: offered item must differ from requested item", ErrValidation)
	ErrNotItemOwner        = fmt.Errorf("%w: item is not owned by the expected user", ErrValidation)
	ErrInvalidSeason       = fmt.Errorf("%w: unknown season", ErrValidation)
	ErrInvalidProduct      = fmt.Errorf("%w: name, season and description are required", ErrValidation)
	ErrInvalidProfileField = fmt.Errorf("%w: invalid profile field", ErrValidation)
	ErrUserExists          = fmt.Errorf("%w: user already exists", ErrValidation)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrNotOfferReceiver    = fmt.Errorf("%w: only the receiver can act on this offer", ErrAuthorization)
	ErrOfferNotPending     = fmt.Errorf("%w: offer is not pending", ErrAuthorization)
)

// classify приводит ошибку хранилища к виду ошибки сервиса.
// Исходная ошибка остаётся в цепочке, чтобы раннер транзакций видел конфликты.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isKind(err):
		return err
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, storage.ErrTradeNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, storage.ErrUserExists):
		return fmt.Errorf("%w: %w", ErrUserExists, err)
	case errors.Is(err, storage.ErrCoinsOutOfRange):
		return fmt.Errorf("%w: %w", ErrCoinsOutOfRange, err)
	case errors.Is(err, storage.ErrOwnerMismatch),
		errors.Is(err, storage.ErrTradeStatusChanged),
		errors.Is(err, storage.ErrResourceLocked),
		errors.Is(err, storage.ErrTxConflict),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func isKind(err error) bool {
	for _, kind := range []error{ErrValidation, ErrAuthentication, ErrAuthorization,
		ErrNotFound, ErrInsufficientFunds, ErrConflict, ErrStorage} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Code возвращает стабильный код вида ошибки для ответа клиенту и метрик.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrAuthentication):
		return "authentication_error"
	case errors.Is(err, ErrAuthorization):
		return "authorization_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "storage_error"
}
