package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/law-cbt/cbt-backend/internal/response"
	"github.com/law-cbt/cbt-backend/internal/service"
)

// LawHandler proxies statute fetches to the upstream law API.
type LawHandler struct {
	lawService *service.LawService
}

func NewLawHandler(lawService *service.LawService) *LawHandler {
	return &LawHandler{lawService: lawService}
}

// GetLaw godoc
// GET /api/v1/laws?lawId=
// Returns the upstream JSON verbatim. A missing lawId yields 204; a
// non-2xx upstream answer is mirrored as {"error": ...} with the
// upstream status.
func (h *LawHandler) GetLaw(c *gin.Context) {
	lawID := c.Query("lawId")
	if lawID == "" {
		c.Status(http.StatusNoContent)
		return
	}

	raw, err := h.lawService.Fetch(c.Request.Context(), lawID)
	if err != nil {
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) {
			c.JSON(upstream.Status, gin.H{"error": upstream.Body})
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrLawUnavailable)
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

// GetCurrent godoc
// GET /api/v1/laws/current
// Returns the last displayed law so a restart can restore the panel.
func (h *LawHandler) GetCurrent(c *gin.Context) {
	id, name, err := h.lawService.Current(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"law_id": id, "law_name": name})
}
