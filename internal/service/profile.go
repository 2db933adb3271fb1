package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// правила проверки для каждого изменяемого поля профиля
var profileRules = map[models.ProfileField]string{
	models.ProfileUsername: "required,alphanum,min=3,max=32",
	models.ProfileEmail:    "required,email",
	models.ProfilePassword: "required,min=8,max=72",
}

type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Coins     int       `json:"coins"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileUpdate - изменение одного поля профиля
type ProfileUpdate struct {
	Field models.ProfileField
	Value string
}

type ProfileService interface {
	Get(ctx context.Context, userID int64) (*Profile, error)
	Update(ctx context.Context, userID int64, upd ProfileUpdate) error
}

type profileService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	validate *validator.Validate
}

func NewProfileService(log *slog.Logger, userRepo storage.UserStorage) ProfileService {
	return &profileService{
		log:      log,
		userRepo: userRepo,
		validate: validator.New(),
	}
}

func (s *profileService) Get(ctx context.Context, userID int64) (*Profile, error) {
	const op = "service.ProfileService.Get"
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Coins:     user.Coins,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *profileService) Update(ctx context.Context, userID int64, upd ProfileUpdate) error {
	const op = "service.ProfileService.Update"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", userID),
		slog.String("field", string(upd.Field)),
	)

	value := upd.Value
	if upd.Field != models.ProfilePassword {
		value = strings.TrimSpace(value)
	}
	if err := validateProfileValue(s.validate, upd.Field, value); err != nil {
		logger.Warn("invalid profile update", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	var err error
	switch upd.Field {
	case models.ProfileUsername:
		err = s.userRepo.UpdateUsername(ctx, userID, value)
	case models.ProfileEmail:
		err = s.userRepo.UpdateEmail(ctx, userID, value)
	case models.ProfilePassword:
		var passHash []byte
		passHash, err = bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("failed to hash password", slog.Any("error", err))
			return fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		err = s.userRepo.UpdatePassHash(ctx, userID, passHash)
	}
	if err != nil {
		logger.Error("failed to update profile", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	logger.Info("profile updated")
	return nil
}

func validateProfileValue(v *validator.Validate, field models.ProfileField, value string) error {
	rule, ok := profileRules[field]
	if !ok {
		return ErrInvalidProfileField
	}
	if err := v.Var(value, rule); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrValidation, field, err)
	}
	return nil
}
