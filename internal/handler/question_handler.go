package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/response"
	"github.com/law-cbt/cbt-backend/internal/service"
)

// QuestionHandler handles question document upload and retrieval.
type QuestionHandler struct {
	sessionService *service.SessionService
	cfg            *config.Config
}

func NewQuestionHandler(sessionService *service.SessionService, cfg *config.Config) *QuestionHandler {
	return &QuestionHandler{sessionService: sessionService, cfg: cfg}
}

// Upload godoc
// POST /api/v1/question
// Loads a new question PDF and resets the session. Validation happens
// before any state is touched; a rejected file changes nothing.
func (h *QuestionHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxUploadBytes {
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		return
	}

	state, err := h.sessionService.LoadQuestion(c.Request.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFile):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrCorruptQuestion):
			response.Fail(c, http.StatusBadRequest, response.ErrCorruptPDF)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Get godoc
// GET /api/v1/question
// Streams the stored question PDF.
func (h *QuestionHandler) Get(c *gin.Context) {
	data, err := h.sessionService.Question()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if data == nil {
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotLoaded)
		return
	}
	c.Data(http.StatusOK, "application/pdf", data)
}
