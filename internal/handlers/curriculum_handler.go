// internal/handlers/curriculum_handler.go
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

type CurriculumHandler struct {
	service service.CurriculumService
	logger  *slog.Logger
}

func NewCurriculumHandler(s service.CurriculumService, logger *slog.Logger) *CurriculumHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurriculumHandler{
		service: s,
		logger:  logger,
	}
}

// GetToday は全体通読順で次に読むべきパッセージを返すハンドラ
func (h *CurriculumHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetToday"))

	resp, err := h.service.GetToday(r.Context())
	if err != nil {
		logger.Error("Error getting today's reading in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// GetOverview はカリキュラム全体の進捗概況を返すハンドラ
func (h *CurriculumHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetOverview"))

	resp, err := h.service.GetOverview(r.Context())
	if err != nil {
		logger.Error("Error getting overview in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// GetPhases は段階一覧 (所属する著作つき) を返すハンドラ
func (h *CurriculumHandler) GetPhases(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPhases"))

	phases, err := h.service.ListPhases(r.Context())
	if err != nil {
		logger.Error("Error listing phases in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if phases == nil {
		phases = []model.PhaseWithTexts{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, phases, logger)
}

// GetPassage は単一パッセージの詳細 (ガイド・著作・段階・進捗つき) を返すハンドラ
func (h *CurriculumHandler) GetPassage(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetPassage"))

	passageID := chi.URLParam(r, "passage_id")
	logger = logger.With(slog.String("passage_id", passageID))

	detail, err := h.service.GetPassage(r.Context(), passageID)
	if err != nil {
		logger.Warn("Error getting passage in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, detail, logger)
}

// GetTextPassages は著作内のパッセージ一覧 (読了フラグつき) を返すハンドラ
func (h *CurriculumHandler) GetTextPassages(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTextPassages"))

	textID := chi.URLParam(r, "text_id")
	logger = logger.With(slog.String("text_id", textID))

	items, err := h.service.ListTextPassages(r.Context(), textID)
	if err != nil {
		logger.Warn("Error listing text passages in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if items == nil {
		items = []model.PassageListItem{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, items, logger)
}

// GetNeighbors は同一著作内の前後パッセージを返すハンドラ
func (h *CurriculumHandler) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetNeighbors"))

	passageID := chi.URLParam(r, "passage_id")
	logger = logger.With(slog.String("passage_id", passageID))

	resp, err := h.service.GetNeighbors(r.Context(), passageID)
	if err != nil {
		logger.Warn("Error getting neighbors in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// PostProgress は進捗の作成・更新を行うハンドラ。新規作成時は 201 を返す
func (h *CurriculumHandler) PostProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostProgress"))

	passageID := chi.URLParam(r, "passage_id")
	logger = logger.With(slog.String("passage_id", passageID))

	var req model.UpsertProgressRequest
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

			// 最初のエラーを代表としてクライアントに返す
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

	result, created, err := h.service.UpsertProgress(r.Context(), passageID, &req)
	if err != nil {
		logger.Error("Error upserting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	logger.Info("Progress upserted successfully", slog.String("progress_id", result.ID))
	webutil.RespondWithJSON(w, status, result, logger)
}

// GetProgress は進捗レコードの一覧を返すハンドラ
func (h *CurriculumHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	records, err := h.service.ListProgress(r.Context())
	if err != nil {
		logger.Error("Error listing progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if records == nil {
		records = []model.ProgressRecord{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, records, logger)
}
