// internal/handlers/journal_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/service"
	"go_stoic_journal/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type JournalHandler struct {
	service service.JournalService
	logger  *slog.Logger
}

func NewJournalHandler(s service.JournalService, logger *slog.Logger) *JournalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalHandler{
		service: s,
		logger:  logger,
	}
}

// PostEntry はジャーナルの作成・部分更新を行うハンドラ。新規作成時は 201 を返す
func (h *JournalHandler) PostEntry(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostEntry"))

	var req model.UpsertJournalRequest
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

	result, created, err := h.service.UpsertEntry(r.Context(), &req)
	if err != nil {
		logger.Error("Error upserting journal entry in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	logger.Info("Journal entry upserted successfully", slog.String("journal_id", result.ID))
	webutil.RespondWithJSON(w, status, result, logger)
}

// GetEntry はパッセージに紐づくジャーナルを返すハンドラ
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetEntry"))

	passageID := chi.URLParam(r, "passage_id")
	logger = logger.With(slog.String("passage_id", passageID))

	record, err := h.service.GetEntry(r.Context(), passageID)
	if err != nil {
		logger.Warn("Error getting journal entry in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, record, logger)
}

// GetEntries はジャーナル一覧を新しい順に返すハンドラ。limit / offset クエリ対応
func (h *JournalHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetEntries"))

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.ListEntries(r.Context(), limit, offset)
	if err != nil {
		logger.Error("Error listing journal entries in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if entries == nil {
		entries = []model.JournalWithPassage{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, entries, logger)
}
