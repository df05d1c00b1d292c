// internal/handlers/discussion_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/service"
	"go_stoic_journal/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type DiscussionHandler struct {
	service service.DiscussionService
	logger  *slog.Logger
}

func NewDiscussionHandler(s service.DiscussionService, logger *slog.Logger) *DiscussionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscussionHandler{
		service: s,
		logger:  logger,
	}
}

// PostDiscuss はメンターとの対話ターンを処理するハンドラ
func (h *DiscussionHandler) PostDiscuss(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostDiscuss"))

	var req model.DiscussRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("passage_id", req.PassageID))

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

	resp, err := h.service.Discuss(r.Context(), &req)
	if err != nil {
		logger.Error("Error discussing passage in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Discussion turn completed")
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// GetHistory は対話履歴を返すハンドラ (未開始なら空の履歴)
func (h *DiscussionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetHistory"))

	passageID := chi.URLParam(r, "passage_id")
	logger = logger.With(slog.String("passage_id", passageID))

	history, err := h.service.GetHistory(r.Context(), passageID)
	if err != nil {
		logger.Error("Error getting discussion history in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, history, logger)
}

// DeleteHistory は対話履歴を破棄するハンドラ
func (h *DiscussionHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteHistory"))

	passageID := chi.URLParam(r, "passage_id")
	logger = logger.With(slog.String("passage_id", passageID))

	if err := h.service.ClearHistory(r.Context(), passageID); err != nil {
		logger.Error("Error clearing discussion history in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Discussion history cleared")
	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true}, logger)
}
