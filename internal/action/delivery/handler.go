package delivery

import (
	"errors"
	"net/http"

	"mailpilot-backend/internal/action/domain"
	"mailpilot-backend/internal/action/usecase"

	"github.com/gin-gonic/gin"
)

// ActionHandler handles action-related HTTP requests
type ActionHandler struct {
	actionUsecase usecase.ActionUsecase
}

// NewActionHandler creates a new ActionHandler
func NewActionHandler(actionUsecase usecase.ActionUsecase) *ActionHandler {
	return &ActionHandler{
		actionUsecase: actionUsecase,
	}
}

// UpdateActionRequest represents the request body for updating an action
type UpdateActionRequest struct {
	Status    *string `json:"status"`
	ReplyBody *string `json:"replyBody"`
}

// ChatRequest represents one user message in the refinement conversation
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// GetActions returns all active actions
// GET /api/actions
func (h *ActionHandler) GetActions(c *gin.Context) {
	actions, err := h.actionUsecase.ListActions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actions": actions,
		"total":   len(actions),
	})
}

// GetActionByID returns a specific action
// GET /api/actions/:id
func (h *ActionHandler) GetActionByID(c *gin.Context) {
	action, err := h.actionUsecase.GetAction(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, action)
}

// UpdateAction updates an action's status and/or drafted reply
// PATCH /api/actions/:id
func (h *ActionHandler) UpdateAction(c *gin.Context) {
	var req UpdateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == nil && req.ReplyBody == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	id := c.Param("id")
	var action *domain.Action
	var err error

	if req.ReplyBody != nil {
		action, err = h.actionUsecase.UpdateReply(id, *req.ReplyBody)
		if err != nil {
			h.writeError(c, err)
			return
		}
	}
	if req.Status != nil {
		action, err = h.actionUsecase.UpdateStatus(id, domain.ActionStatus(*req.Status))
		if err != nil {
			h.writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, action)
}

// DeleteAction removes an action
// DELETE /api/actions/:id
func (h *ActionHandler) DeleteAction(c *gin.Context) {
	if err := h.actionUsecase.DeleteAction(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Action deleted"})
}

// Chat runs one turn of the reply refinement conversation
// POST /api/actions/:id/chat
func (h *ActionHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.actionUsecase.Chat(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"reply": result.Response}
	if result.ReplyUpdated {
		resp["updatedSuggestedReply"] = result.ReplyBody
	}
	c.JSON(http.StatusOK, resp)
}

// SendReplyRequest optionally overrides the drafted subject and body
type SendReplyRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendReply sends the drafted reply and removes the action
// POST /api/actions/:id/send
func (h *ActionHandler) SendReply(c *gin.Context) {
	var req SendReplyRequest
	// The body is optional
	_ = c.ShouldBindJSON(&req)

	result, err := h.actionUsecase.SendReply(c.Request.Context(), c.Param("id"), req.Subject, req.Body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"messageId": result.SentMessageID,
	})
}

func (h *ActionHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrActionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Action not found"})
	case errors.Is(err, usecase.ErrInvalidStatus), errors.Is(err, usecase.ErrEmptyReply):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrAuthExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
