// internal/handlers/settings_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/service"
	"go_stoic_journal/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type SettingsHandler struct {
	service service.SettingsService
	logger  *slog.Logger
}

func NewSettingsHandler(s service.SettingsService, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{
		service: s,
		logger:  logger,
	}
}

// GetSettings は読書ペース設定を返すハンドラ (未作成なら既定値を作って返す)
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetSettings"))

	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		logger.Error("Error getting settings in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, settings, logger)
}

// PostSettings は読書ペース設定を更新するハンドラ
func (h *SettingsHandler) PostSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostSettings"))

	var req model.UpdateSettingsRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()))

			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), &req)
	if err != nil {
		logger.Error("Error updating settings in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Settings updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, settings, logger)
}
