package delivery

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"mailpilot-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

// Uploaded files larger than this are rejected before parsing
const maxUploadBytes = 5 << 20

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	FolderID    *string `json:"folderId"`
}

// UpdateTaskRequest represents the request body for updating a task
type UpdateTaskRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
	FolderID    *string `json:"folderId"`
	SetFolderID bool    `json:"setFolderId"`
}

// CreateFolderRequest represents the request body for creating a folder
type CreateFolderRequest struct {
	Name string `json:"name" binding:"required"`
}

// ParseTasksRequest carries free text to extract tasks from
type ParseTasksRequest struct {
	Text     string  `json:"text" binding:"required"`
	FolderID *string `json:"folderId"`
}

// GetTasks returns tasks with optional filters
// GET /api/tasks?status=todo&folderId=...
func (h *TaskHandler) GetTasks(c *gin.Context) {
	var status, folderID *string
	if v := c.Query("status"); v != "" {
		status = &v
	}
	if v := c.Query("folderId"); v != "" {
		folderID = &v
	}

	tasks, err := h.taskUsecase.GetTasks(status, folderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// CreateTask creates a task manually
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.CreateTask(req.Name, req.Description, req.DueDate, req.FolderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	task, err := h.taskUsecase.GetTask(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies partial updates to a task
// PATCH /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.UpdateTask(c.Param("id"), usecase.TaskUpdateRequest{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		FolderID:    req.FolderID,
		SetFolderID: req.SetFolderID || req.FolderID != nil,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskUsecase.DeleteTask(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// ParseTasks extracts tasks from free text or an uploaded image.
// Accepts either a JSON body with "text" or a multipart form with a
// "file" field.
// POST /api/tasks/parse
func (h *TaskHandler) ParseTasks(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.parseFromFile(c)
		return
	}

	var req ParseTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.taskUsecase.ParseTasksFromText(c.Request.Context(), req.Text, req.FolderID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

func (h *TaskHandler) parseFromFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	var folderID *string
	if v := c.PostForm("folderId"); v != "" {
		folderID = &v
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	ctx := c.Request.Context()

	var tasks interface{}
	if strings.HasPrefix(mimeType, "image/") {
		parsed, perr := h.taskUsecase.ParseTasksFromImage(ctx, base64.StdEncoding.EncodeToString(content), mimeType, folderID)
		if perr != nil {
			h.writeError(c, perr)
			return
		}
		tasks = parsed
	} else {
		parsed, perr := h.taskUsecase.ParseTasksFromText(ctx, string(content), folderID)
		if perr != nil {
			h.writeError(c, perr)
			return
		}
		tasks = parsed
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetFolders returns all task folders
// GET /api/tasks/folders
func (h *TaskHandler) GetFolders(c *gin.Context) {
	folders, err := h.taskUsecase.GetFolders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// CreateFolder creates a task folder
// POST /api/tasks/folders
func (h *TaskHandler) CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := h.taskUsecase.CreateFolder(req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

// UpdateFolder renames a folder
// PATCH /api/tasks/folders/:id
func (h *TaskHandler) UpdateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := h.taskUsecase.RenameFolder(c.Param("id"), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

// DeleteFolder removes a folder, keeping its tasks
// DELETE /api/tasks/folders/:id
func (h *TaskHandler) DeleteFolder(c *gin.Context) {
	if err := h.taskUsecase.DeleteFolder(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}

func (h *TaskHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, usecase.ErrFolderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
