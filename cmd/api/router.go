package api

import (
	"net/http"

	actionDelivery "mailpilot-backend/internal/action/delivery"
	authDelivery "mailpilot-backend/internal/auth/delivery"
	inboxDelivery "mailpilot-backend/internal/inbox/delivery"
	taskDelivery "mailpilot-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	inboxHandler *inboxDelivery.InboxHandler,
	actionHandler *actionDelivery.ActionHandler,
	taskHandler *taskDelivery.TaskHandler,
	authHandler *authDelivery.AuthHandler,
) {
	api := r.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// OAuth account management
		auth := api.Group("/auth")
		{
			auth.GET("/status", authHandler.Status)
			auth.GET("/:provider/start", authHandler.Start)
			auth.GET("/:provider/callback", authHandler.Callback)
			auth.DELETE("/accounts/:provider/:email", authHandler.Disconnect)
		}

		// Inbox polling
		api.GET("/inbox/poll/:provider", inboxHandler.Poll)

		// Actions
		actions := api.Group("/actions")
		{
			actions.GET("", actionHandler.GetActions)
			actions.GET("/:id", actionHandler.GetActionByID)
			actions.PATCH("/:id", actionHandler.UpdateAction)
			actions.DELETE("/:id", actionHandler.DeleteAction)
			actions.POST("/:id/chat", actionHandler.Chat)
			actions.POST("/:id/send", actionHandler.SendReply)
		}

		// Tasks and folders
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/parse", taskHandler.ParseTasks)

			tasks.GET("/folders", taskHandler.GetFolders)
			tasks.POST("/folders", taskHandler.CreateFolder)
			tasks.PATCH("/folders/:id", taskHandler.UpdateFolder)
			tasks.DELETE("/folders/:id", taskHandler.DeleteFolder)

			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}
	}
}
