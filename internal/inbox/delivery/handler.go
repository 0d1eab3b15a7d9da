package delivery

import (
	"errors"
	"net/http"

	emaildomain "mailpilot-backend/internal/email/domain"
	"mailpilot-backend/internal/inbox/usecase"

	"github.com/gin-gonic/gin"
)

// InboxHandler exposes the ingestion pipeline over HTTP
type InboxHandler struct {
	pipeline *usecase.Pipeline
}

// NewInboxHandler creates a new InboxHandler
func NewInboxHandler(pipeline *usecase.Pipeline) *InboxHandler {
	return &InboxHandler{
		pipeline: pipeline,
	}
}

// Poll runs one ingestion cycle for a provider
// GET /api/inbox/poll/:provider
func (h *InboxHandler) Poll(c *gin.Context) {
	provider := emaildomain.EmailSource(c.Param("provider"))
	if provider != emaildomain.SourceGmail && provider != emaildomain.SourceOutlook {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}

	result, err := h.pipeline.Poll(c.Request.Context(), provider)
	if err != nil {
		if errors.Is(err, usecase.ErrNoAccounts) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "no connected accounts, connect one at /api/auth/" + string(provider) + "/start",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
