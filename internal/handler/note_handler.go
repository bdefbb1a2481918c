package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law-cbt/cbt-backend/internal/model"
	"github.com/law-cbt/cbt-backend/internal/response"
	"github.com/law-cbt/cbt-backend/internal/service"
	"github.com/law-cbt/cbt-backend/internal/validator"
)

// NoteHandler exposes the sticky-note store.
type NoteHandler struct {
	noteService *service.NoteService
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// Toggle godoc
// POST /api/v1/notes/toggle
func (h *NoteHandler) Toggle(c *gin.Context) {
	var req model.ToggleNoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.noteService.Toggle(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAnnotationDisabled) {
			response.Fail(c, http.StatusConflict, response.ErrSessionInactive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// List godoc
// GET /api/v1/notes?law_id=
// Without law_id every note is returned, oldest first.
func (h *NoteHandler) List(c *gin.Context) {
	lawID := c.Query("law_id")

	var (
		notes []model.StickyNote
		err   error
	)
	if lawID == "" {
		notes, err = h.noteService.ListAll(c.Request.Context())
	} else {
		notes, err = h.noteService.ListForLaw(c.Request.Context(), lawID)
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	locationIDs := make([]string, 0, len(notes))
	for _, n := range notes {
		locationIDs = append(locationIDs, n.LocationID)
	}
	response.Success(c, http.StatusOK, gin.H{"notes": notes, "location_ids": locationIDs})
}

// Remove godoc
// DELETE /api/v1/notes/:law_id/:location_id
func (h *NoteHandler) Remove(c *gin.Context) {
	lawID := c.Param("law_id")
	locationID := c.Param("location_id")

	if err := h.noteService.Remove(c.Request.Context(), locationID, lawID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "note removed"})
}

// Jump godoc
// GET /api/v1/notes/:law_id/:location_id/jump
// Resolves a note to a document and scroll anchor.
func (h *NoteHandler) Jump(c *gin.Context) {
	lawID := c.Param("law_id")
	locationID := c.Param("location_id")

	result, err := h.noteService.ResolveJump(c.Request.Context(), locationID, lawID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, result)
}
