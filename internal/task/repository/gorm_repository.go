package repository

import (
	"time"

	"mailpilot-backend/internal/task/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	// Auto-migrate the Task model
	db.AutoMigrate(&domain.Task{})
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	return r.db.Create(task).Error
}

func (r *gormTaskRepository) FindByID(id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.Where("id = ?", id).First(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindAll(status *domain.TaskStatus, folderID *string) ([]*domain.Task, error) {
	var tasks []*domain.Task

	query := r.db.Model(&domain.Task{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if folderID != nil {
		query = query.Where("folder_id = ?", *folderID)
	}

	// Due dates first, then newest
	err := query.Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) Update(task *domain.Task) error {
	task.UpdatedAt = time.Now()
	return r.db.Save(task).Error
}

func (r *gormTaskRepository) Delete(id string) error {
	return r.db.Delete(&domain.Task{}, "id = ?", id).Error
}

// gormFolderRepository implements FolderRepository using GORM
type gormFolderRepository struct {
	db *gorm.DB
}

// NewGormFolderRepository creates a new GORM-based FolderRepository
func NewGormFolderRepository(db *gorm.DB) FolderRepository {
	db.AutoMigrate(&domain.TaskFolder{})
	return &gormFolderRepository{db: db}
}

func (r *gormFolderRepository) Create(folder *domain.TaskFolder) error {
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	folder.CreatedAt = time.Now()
	return r.db.Create(folder).Error
}

func (r *gormFolderRepository) FindByID(id string) (*domain.TaskFolder, error) {
	var folder domain.TaskFolder
	err := r.db.Where("id = ?", id).First(&folder).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &folder, nil
}

func (r *gormFolderRepository) FindAll() ([]*domain.TaskFolder, error) {
	var folders []*domain.TaskFolder
	err := r.db.Order("created_at ASC").Find(&folders).Error
	return folders, err
}

func (r *gormFolderRepository) Update(folder *domain.TaskFolder) error {
	return r.db.Save(folder).Error
}

func (r *gormFolderRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Task{}).Where("folder_id = ?", id).
			Update("folder_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.TaskFolder{}, "id = ?", id).Error
	})
}
