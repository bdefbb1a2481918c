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

// LayoutHandler exposes the panel arrangement controller.
type LayoutHandler struct {
	layoutService *service.LayoutService
}

func NewLayoutHandler(layoutService *service.LayoutService) *LayoutHandler {
	return &LayoutHandler{layoutService: layoutService}
}

// GetLayout godoc
// GET /api/v1/layout
func (h *LayoutHandler) GetLayout(c *gin.Context) {
	response.Success(c, http.StatusOK, h.layoutService.State())
}

// SetVisible godoc
// PUT /api/v1/layout/visible
func (h *LayoutHandler) SetVisible(c *gin.Context) {
	var req model.SetVisibleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.layoutService.SetVisible(req.Visible)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoVisiblePanels), errors.Is(err, service.ErrUnknownPanel):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Rotate godoc
// POST /api/v1/layout/rotate
func (h *LayoutHandler) Rotate(c *gin.Context) {
	response.Success(c, http.StatusOK, h.layoutService.Rotate())
}

// SetSplit godoc
// PUT /api/v1/layout/split
func (h *LayoutHandler) SetSplit(c *gin.Context) {
	var req model.SetSplitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	response.Success(c, http.StatusOK, h.layoutService.SetSplit(req.Ratio))
}
