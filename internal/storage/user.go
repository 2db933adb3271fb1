package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/season-swap/internal/domain/models"
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePassHash(ctx context.Context, id int64, passHash []byte) error
	// CreditTx и DebitTx меняют баланс только внутри транзакции расчёта.
	CreditTx(ctx context.Context, tx *sql.Tx, id int64, amount int) error
	DebitTx(ctx context.Context, tx *sql.Tx, id int64, amount int) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PassHash, &user.Coins, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// получение пользователя по email, используется при входе
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, email, pass_hash, coins, created_at FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, email, pass_hash, coins, created_at FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (username, email, pass_hash, coins) VALUES ($1, $2, $3, $4) RETURNING id, created_at",
		user.Username, user.Email, user.PassHash, user.Coins,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapPqError(err)
	}
	return user, nil
}

func (r *userRepository) UpdateUsername(ctx context.Context, id int64, username string) error {
	return r.update(ctx, "UPDATE users SET username = $1 WHERE id = $2", username, id)
}

func (r *userRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	return r.update(ctx, "UPDATE users SET email = $1 WHERE id = $2", email, id)
}

func (r *userRepository) UpdatePassHash(ctx context.Context, id int64, passHash []byte) error {
	return r.update(ctx, "UPDATE users SET pass_hash = $1 WHERE id = $2", passHash, id)
}

func (r *userRepository) update(ctx context.Context, query string, value any, id int64) error {
	res, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return mapPqError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreditTx начисляет монеты, вычисление идёт на стороне БД
func (r *userRepository) CreditTx(ctx context.Context, tx *sql.Tx, id int64, amount int) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET coins = coins + $1 WHERE id = $2", amount, id)
	if err != nil {
		return mapPqError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DebitTx списывает монеты одним условным UPDATE, баланс не может уйти в минус.
// Если строка не обновилась - различаем отсутствие пользователя и нехватку средств.
func (r *userRepository) DebitTx(ctx context.Context, tx *sql.Tx, id int64, amount int) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET coins = coins - $1 WHERE id = $2 AND coins >= $1", amount, id)
	if err != nil {
		return mapPqError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", mapPqError(err))
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrInsufficientFunds
}
