package api

import (
	actionDelivery "mailpilot-backend/internal/action/delivery"
	actionUsecasePkg "mailpilot-backend/internal/action/usecase"
	authDelivery "mailpilot-backend/internal/auth/delivery"
	inboxDelivery "mailpilot-backend/internal/inbox/delivery"
	inboxUsecasePkg "mailpilot-backend/internal/inbox/usecase"
	taskDelivery "mailpilot-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

// Handler bundles the HTTP handlers and runs the server
type Handler struct {
	inboxHandler  *inboxDelivery.InboxHandler
	actionHandler *actionDelivery.ActionHandler
	taskHandler   *taskDelivery.TaskHandler
	authHandler   *authDelivery.AuthHandler
}

func NewHandler(
	pipeline *inboxUsecasePkg.Pipeline,
	actionUc actionUsecasePkg.ActionUsecase,
	taskHandler *taskDelivery.TaskHandler,
	authHandler *authDelivery.AuthHandler,
) *Handler {
	return &Handler{
		inboxHandler:  inboxDelivery.NewInboxHandler(pipeline),
		actionHandler: actionDelivery.NewActionHandler(actionUc),
		taskHandler:   taskHandler,
		authHandler:   authHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.inboxHandler, h.actionHandler, h.taskHandler, h.authHandler)

	return r.Run(addr)
}
