package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/season-swap/internal/domain/models"
	"github.com/linemk/season-swap/internal/service"
)

// ProfileUpdateRequest - изменение одного поля профиля
type ProfileUpdateRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// GetProfileHandler обрабатывает GET /api/profile
func GetProfileHandler(log *slog.Logger, profileService service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProfileHandler"
		logger := log.With(slog.String("op", op))

		id, ok := userID(w, r, logger)
		if !ok {
			return
		}

		profile, err := profileService.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, profile)
	}
}

// UpdateProfileHandler обрабатывает PUT /api/profile и возвращает обновлённый профиль
func UpdateProfileHandler(log *slog.Logger, profileService service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProfileHandler"
		logger := log.With(slog.String("op", op))

		id, ok := userID(w, r, logger)
		if !ok {
			return
		}

		var req ProfileUpdateRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		field, ok := models.ParseProfileField(req.Field)
		if !ok {
			writeError(w, logger, service.ErrInvalidProfileField)
			return
		}

		if err := profileService.Update(r.Context(), id, service.ProfileUpdate{Field: field, Value: req.Value}); err != nil {
			writeError(w, logger, err)
			return
		}

		profile, err := profileService.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, profile)
	}
}
