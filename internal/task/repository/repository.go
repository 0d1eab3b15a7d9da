package repository

import (
	"mailpilot-backend/internal/task/domain"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *domain.Task) error

	// FindByID finds a task by its ID. Returns nil, nil when absent.
	FindByID(id string) (*domain.Task, error)

	// FindAll returns tasks, optionally filtered by status and folder
	FindAll(status *domain.TaskStatus, folderID *string) ([]*domain.Task, error)

	// Update updates an existing task
	Update(task *domain.Task) error

	// Delete deletes a task by ID
	Delete(id string) error
}

// FolderRepository defines the interface for task folder data access
type FolderRepository interface {
	// Create creates a new folder
	Create(folder *domain.TaskFolder) error

	// FindByID finds a folder by its ID. Returns nil, nil when absent.
	FindByID(id string) (*domain.TaskFolder, error)

	// FindAll returns all folders
	FindAll() ([]*domain.TaskFolder, error)

	// Update renames a folder
	Update(folder *domain.TaskFolder) error

	// Delete removes a folder and clears the folder assignment of its
	// tasks
	Delete(id string) error
}
