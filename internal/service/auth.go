package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/season-swap/internal/domain/models"
	security "github.com/linemk/season-swap/internal/jwt-new"
	"github.com/linemk/season-swap/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	log             *slog.Logger
	userRepo        storage.UserStorage
	validate        *validator.Validate
	jwtSecret       string
	tokenTTL        time.Duration
	startingBalance int
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, jwtSecret string, tokenTTL time.Duration, startingBalance int) *AuthService {
	return &AuthService{
		log:             log,
		userRepo:        userRepo,
		validate:        validator.New(),
		jwtSecret:       jwtSecret,
		tokenTTL:        tokenTTL,
		startingBalance: startingBalance,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// Register создаёт пользователя со стартовым балансом.
// Пароль хэшируется через bcrypt, соль добавляется автоматически.
func (a *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "service.AuthService.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("registering user")

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	checks := []struct {
		field models.ProfileField
		value string
	}{
		{models.ProfileUsername, username},
		{models.ProfileEmail, email},
		{models.ProfilePassword, password},
	}
	for _, c := range checks {
		if err := validateProfileValue(a.validate, c.field, c.value); err != nil {
			logger.Warn("invalid registration data", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Username: username,
		Email:    email,
		PassHash: passHash,
		Coins:    a.startingBalance,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			logger.Warn("user already exists")
		} else {
			logger.Error("failed to create user", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: failed to create user: %w", op, classify(err))
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login проверяет пароль и выдаёт JWT-токен.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.AuthService.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		// неизвестный email и неверный пароль неотличимы для клиента
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Info("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, classify(err))
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(user, a.jwtSecret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}
