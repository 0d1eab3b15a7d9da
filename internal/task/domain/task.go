package domain

import "time"

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskSource records where a task came from
type TaskSource string

const (
	TaskSourceManual TaskSource = "manual"
	TaskSourceFile   TaskSource = "file"
	TaskSourceEmail  TaskSource = "email"
)

// Task is a to-do item created manually, parsed from a file, or
// extracted from an email during polling
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description,omitempty"`
	DueDate     *string    `json:"dueDate,omitempty"` // YYYY-MM-DD
	Status      TaskStatus `json:"status" gorm:"default:todo"`
	Source      TaskSource `json:"source" gorm:"default:manual"`
	FolderID    *string    `json:"folderId,omitempty" gorm:"index"`

	// Set when Source is email
	SourceActionID     string `json:"sourceActionId,omitempty" gorm:"index"`
	SourceEmailSubject string `json:"sourceEmailSubject,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskFolder groups tasks. Deleting a folder keeps its tasks and just
// clears their folder assignment.
type TaskFolder struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidStatus reports whether s is a known task status
func ValidStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}
