package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law-cbt/cbt-backend/internal/model"
	"github.com/law-cbt/cbt-backend/internal/response"
	"github.com/law-cbt/cbt-backend/internal/service"
	"github.com/law-cbt/cbt-backend/internal/validator"
)

// SessionHandler exposes the countdown state machine and the drafts.
type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// GetState godoc
// GET /api/v1/session
func (h *SessionHandler) GetState(c *gin.Context) {
	state, err := h.sessionService.State(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// UpdateAnswer godoc
// PUT /api/v1/session/answer
func (h *SessionHandler) UpdateAnswer(c *gin.Context) {
	var req model.UpdateAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	metrics, err := h.sessionService.SetAnswer(c.Request.Context(), req.Text)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, metrics)
}

// UpdateMemo godoc
// PUT /api/v1/session/memo
func (h *SessionHandler) UpdateMemo(c *gin.Context) {
	var req model.UpdateMemoRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SetMemo(c.Request.Context(), req.Content); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "memo saved"})
}

// EditTime godoc
// PUT /api/v1/session/time
func (h *SessionHandler) EditTime(c *gin.Context) {
	var req model.EditTimeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	seconds, err := h.sessionService.EditTime(c.Request.Context(), req.Time)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTimerRunning):
			response.Fail(c, http.StatusConflict, response.ErrTimerRunning)
		case errors.Is(err, service.ErrInvalidTime):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidTime)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"seconds_remaining": seconds})
}

// Finish godoc
// POST /api/v1/session/finish
// Exports the submission and streams it as a download. The optional
// style=raster query selects the pixel-split variant.
func (h *SessionHandler) Finish(c *gin.Context) {
	raster := c.Query("style") == "raster"

	result, data, err := h.sessionService.Finish(c.Request.Context(), raster)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionInactive):
			response.Fail(c, http.StatusConflict, response.ErrSessionInactive)
		case errors.Is(err, service.ErrSessionExpired):
			response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		case errors.Is(err, service.ErrFontMissing):
			response.Fail(c, http.StatusInternalServerError, response.ErrFontMissing)
		case errors.Is(err, service.ErrExportFailed):
			response.Fail(c, http.StatusInternalServerError, response.ErrExportFailed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("X-Submission-Pages", fmt.Sprintf("%d", result.Pages))
	c.Data(http.StatusOK, "application/pdf", data)
}
