package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrProductNotFound    = errors.New("product not found")
	ErrOwnerMismatch      = errors.New("product owner has changed")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeStatusChanged = errors.New("trade status has changed")
	ErrResourceLocked     = errors.New("resource is locked, please try again")
	ErrTxConflict         = errors.New("transaction conflict, please try again")
	// ErrCoinsOutOfRange - сумма или баланс не помещаются в INTEGER
	ErrCoinsOutOfRange = errors.New("coins value out of range")
)

// коды ошибок postgres, которые мы различаем
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeNumericOutOfRange    = "22003"
)

const usersCoinsCheck = "users_coins_check"

// mapPqError переводит ошибки драйвера в ошибки хранилища.
// Неизвестные ошибки возвращаются как есть.
func mapPqError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrUserExists, pqErr.Constraint)
	case codeCheckViolation:
		if pqErr.Constraint == usersCoinsCheck {
			return ErrInsufficientFunds
		}
	case codeNumericOutOfRange:
		return fmt.Errorf("%w: %v", ErrCoinsOutOfRange, err)
	case codeLockNotAvailable:
		return fmt.Errorf("%w: %v", ErrResourceLocked, err)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %v", ErrTxConflict, err)
	}
	return err
}
