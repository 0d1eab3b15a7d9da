package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"mailpilot-backend/internal/task/domain"

	"github.com/google/uuid"
)

// memoryTaskRepository implements TaskRepository with an in-memory map
type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewMemoryTaskRepository creates a new in-memory TaskRepository
func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{
		tasks: make(map[string]*domain.Task),
	}
}

func (r *memoryTaskRepository) Create(task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *memoryTaskRepository) FindByID(id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *memoryTaskRepository) FindAll(status *domain.TaskStatus, folderID *string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, task := range r.tasks {
		if status != nil && task.Status != *status {
			continue
		}
		if folderID != nil && (task.FolderID == nil || *task.FolderID != *folderID) {
			continue
		}
		copied := *task
		tasks = append(tasks, &copied)
	}

	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && *a.DueDate != *b.DueDate:
			return *a.DueDate < *b.DueDate
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return tasks, nil
}

func (r *memoryTaskRepository) Update(task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return fmt.Errorf("task %s not found", task.ID)
	}
	task.UpdatedAt = time.Now()
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *memoryTaskRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, id)
	return nil
}

// memoryFolderRepository implements FolderRepository with an in-memory
// map. It needs the task repository to clear folder assignments when a
// folder is deleted.
type memoryFolderRepository struct {
	mu      sync.RWMutex
	folders map[string]*domain.TaskFolder
	tasks   *memoryTaskRepository
}

// NewMemoryFolderRepository creates a new in-memory FolderRepository
// bound to the given task repository
func NewMemoryFolderRepository(tasks TaskRepository) FolderRepository {
	taskRepo, _ := tasks.(*memoryTaskRepository)
	return &memoryFolderRepository{
		folders: make(map[string]*domain.TaskFolder),
		tasks:   taskRepo,
	}
}

func (r *memoryFolderRepository) Create(folder *domain.TaskFolder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	folder.CreatedAt = time.Now()
	copied := *folder
	r.folders[folder.ID] = &copied
	return nil
}

func (r *memoryFolderRepository) FindByID(id string) (*domain.TaskFolder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	folder, ok := r.folders[id]
	if !ok {
		return nil, nil
	}
	copied := *folder
	return &copied, nil
}

func (r *memoryFolderRepository) FindAll() ([]*domain.TaskFolder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	folders := make([]*domain.TaskFolder, 0, len(r.folders))
	for _, folder := range r.folders {
		copied := *folder
		folders = append(folders, &copied)
	}
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].CreatedAt.Before(folders[j].CreatedAt)
	})
	return folders, nil
}

func (r *memoryFolderRepository) Update(folder *domain.TaskFolder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[folder.ID]; !ok {
		return fmt.Errorf("folder %s not found", folder.ID)
	}
	copied := *folder
	r.folders[folder.ID] = &copied
	return nil
}

func (r *memoryFolderRepository) Delete(id string) error {
	r.mu.Lock()
	delete(r.folders, id)
	r.mu.Unlock()

	if r.tasks == nil {
		return nil
	}

	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()
	for _, task := range r.tasks.tasks {
		if task.FolderID != nil && *task.FolderID == id {
			task.FolderID = nil
			task.UpdatedAt = time.Now()
		}
	}
	return nil
}
