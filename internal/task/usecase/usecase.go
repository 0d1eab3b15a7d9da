package usecase

import (
	"context"

	emaildomain "mailpilot-backend/internal/email/domain"
	"mailpilot-backend/internal/task/domain"
)

// TaskUpdateRequest carries the mutable task fields. Nil fields are left
// unchanged; SetFolderID distinguishes "clear folder" from "no change".
type TaskUpdateRequest struct {
	Name        *string
	Description *string
	DueDate     *string
	Status      *string
	FolderID    *string
	SetFolderID bool
}

// TaskUsecase defines task and folder operations
type TaskUsecase interface {
	// CreateTask creates a task manually
	CreateTask(name, description string, dueDate, folderID *string) (*domain.Task, error)

	// CreateEmailTask creates a task detected in a surfaced email
	CreateEmailTask(detected emaildomain.DetectedTask, actionID, emailSubject string) (*domain.Task, error)

	// GetTasks returns tasks, optionally filtered by status and folder
	GetTasks(status, folderID *string) ([]*domain.Task, error)

	// GetTask retrieves one task by ID
	GetTask(id string) (*domain.Task, error)

	// UpdateTask applies partial updates to a task
	UpdateTask(id string, updates TaskUpdateRequest) (*domain.Task, error)

	// DeleteTask deletes a task
	DeleteTask(id string) error

	// ParseTasksFromText extracts tasks from free text and creates them
	ParseTasksFromText(ctx context.Context, text string, folderID *string) ([]*domain.Task, error)

	// ParseTasksFromImage extracts tasks from an uploaded image and
	// creates them
	ParseTasksFromImage(ctx context.Context, base64Image, mimeType string, folderID *string) ([]*domain.Task, error)

	// CreateFolder creates a task folder
	CreateFolder(name string) (*domain.TaskFolder, error)

	// GetFolders returns all folders
	GetFolders() ([]*domain.TaskFolder, error)

	// RenameFolder changes a folder's name
	RenameFolder(id, name string) (*domain.TaskFolder, error)

	// DeleteFolder removes a folder, keeping its tasks unfiled
	DeleteFolder(id string) error
}
