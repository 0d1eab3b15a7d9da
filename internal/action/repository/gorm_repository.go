package repository

import (
	"time"

	"mailpilot-backend/internal/action/domain"

	"gorm.io/gorm"
)

// gormActionRepository implements ActionRepository using GORM
type gormActionRepository struct {
	db *gorm.DB
}

// NewGormActionRepository creates a new GORM-based ActionRepository
func NewGormActionRepository(db *gorm.DB) ActionRepository {
	// Auto-migrate the Action model
	db.AutoMigrate(&domain.Action{})
	return &gormActionRepository{db: db}
}

func (r *gormActionRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Action{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *gormActionRepository) FindByID(id string) (*domain.Action, error) {
	var action domain.Action
	err := r.db.Where("id = ?", id).First(&action).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

func (r *gormActionRepository) FindActive() ([]*domain.Action, error) {
	var actions []*domain.Action
	err := r.db.
		Where("status NOT IN ?", []domain.ActionStatus{domain.ActionStatusDismissed, domain.ActionStatusSent}).
		Order("created_at DESC").
		Find(&actions).Error
	return actions, err
}

func (r *gormActionRepository) Create(action *domain.Action) error {
	now := time.Now()
	action.CreatedAt = now
	action.UpdatedAt = now
	return r.db.Create(action).Error
}

func (r *gormActionRepository) Update(action *domain.Action) error {
	action.UpdatedAt = time.Now()
	return r.db.Save(action).Error
}

func (r *gormActionRepository) UpdateStatus(id string, status domain.ActionStatus) error {
	return r.db.Model(&domain.Action{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormActionRepository) UpdateReply(id string, body string) error {
	return r.db.Model(&domain.Action{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reply_body": body,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormActionRepository) AppendChat(id string, messages ...domain.ChatMessage) error {
	action, err := r.FindByID(id)
	if err != nil {
		return err
	}
	if action == nil {
		return gorm.ErrRecordNotFound
	}

	action.ChatHistory = append(action.ChatHistory, messages...)
	return r.Update(action)
}

func (r *gormActionRepository) Delete(id string) error {
	return r.db.Delete(&domain.Action{}, "id = ?", id).Error
}
