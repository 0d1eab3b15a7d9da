package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	emaildomain "mailpilot-backend/internal/email/domain"
	"mailpilot-backend/internal/task/domain"
	"mailpilot-backend/internal/task/repository"
	"mailpilot-backend/pkg/ai"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrFolderNotFound = errors.New("folder not found")
)

// taskUsecase implements TaskUsecase
type taskUsecase struct {
	taskRepo   repository.TaskRepository
	folderRepo repository.FolderRepository
	extractor  ai.ExtractorService
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(taskRepo repository.TaskRepository, folderRepo repository.FolderRepository, extractor ai.ExtractorService) TaskUsecase {
	return &taskUsecase{
		taskRepo:   taskRepo,
		folderRepo: folderRepo,
		extractor:  extractor,
	}
}

func (u *taskUsecase) CreateTask(name, description string, dueDate, folderID *string) (*domain.Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("task name is required")
	}
	if folderID != nil {
		if err := u.checkFolder(*folderID); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		DueDate:     dueDate,
		Status:      domain.TaskStatusTodo,
		Source:      domain.TaskSourceManual,
		FolderID:    folderID,
	}
	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) CreateEmailTask(detected emaildomain.DetectedTask, actionID, emailSubject string) (*domain.Task, error) {
	task := &domain.Task{
		ID:                 uuid.New().String(),
		Name:               detected.Name,
		Description:        detected.Description,
		DueDate:            detected.DueDate,
		Status:             domain.TaskStatusTodo,
		Source:             domain.TaskSourceEmail,
		SourceActionID:     actionID,
		SourceEmailSubject: emailSubject,
	}
	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) GetTasks(status, folderID *string) ([]*domain.Task, error) {
	var statusFilter *domain.TaskStatus
	if status != nil && *status != "" {
		s := domain.TaskStatus(*status)
		if !domain.ValidStatus(s) {
			return nil, fmt.Errorf("unknown status %q", *status)
		}
		statusFilter = &s
	}
	return u.taskRepo.FindAll(statusFilter, folderID)
}

func (u *taskUsecase) GetTask(id string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) UpdateTask(id string, updates TaskUpdateRequest) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	if updates.Name != nil {
		task.Name = *updates.Name
	}
	if updates.Description != nil {
		task.Description = *updates.Description
	}
	if updates.DueDate != nil {
		if *updates.DueDate == "" {
			task.DueDate = nil
		} else {
			task.DueDate = updates.DueDate
		}
	}
	if updates.Status != nil {
		s := domain.TaskStatus(*updates.Status)
		if !domain.ValidStatus(s) {
			return nil, fmt.Errorf("unknown status %q", *updates.Status)
		}
		task.Status = s
	}
	if updates.SetFolderID {
		if updates.FolderID != nil {
			if err := u.checkFolder(*updates.FolderID); err != nil {
				return nil, err
			}
		}
		task.FolderID = updates.FolderID
	}

	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) DeleteTask(id string) error {
	task, err := u.taskRepo.FindByID(id)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	return u.taskRepo.Delete(id)
}

func (u *taskUsecase) ParseTasksFromText(ctx context.Context, text string, folderID *string) ([]*domain.Task, error) {
	parsed, err := u.extractor.ParseTasksFromText(ctx, text)
	if err != nil {
		return nil, err
	}
	return u.createParsed(parsed, folderID)
}

func (u *taskUsecase) ParseTasksFromImage(ctx context.Context, base64Image, mimeType string, folderID *string) ([]*domain.Task, error) {
	parsed, err := u.extractor.ParseTasksFromImage(ctx, base64Image, mimeType)
	if err != nil {
		return nil, err
	}
	return u.createParsed(parsed, folderID)
}

func (u *taskUsecase) createParsed(parsed []emaildomain.ParsedTask, folderID *string) ([]*domain.Task, error) {
	if folderID != nil {
		if err := u.checkFolder(*folderID); err != nil {
			return nil, err
		}
	}

	tasks := make([]*domain.Task, 0, len(parsed))
	for _, p := range parsed {
		task := &domain.Task{
			ID:          uuid.New().String(),
			Name:        p.Name,
			Description: p.Description,
			DueDate:     p.DueDate,
			Status:      domain.TaskStatusTodo,
			Source:      domain.TaskSourceFile,
			FolderID:    folderID,
		}
		if err := u.taskRepo.Create(task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (u *taskUsecase) CreateFolder(name string) (*domain.TaskFolder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("folder name is required")
	}

	folder := &domain.TaskFolder{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := u.folderRepo.Create(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (u *taskUsecase) GetFolders() ([]*domain.TaskFolder, error) {
	return u.folderRepo.FindAll()
}

func (u *taskUsecase) RenameFolder(id, name string) (*domain.TaskFolder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("folder name is required")
	}

	folder, err := u.folderRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, ErrFolderNotFound
	}

	folder.Name = name
	if err := u.folderRepo.Update(folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (u *taskUsecase) DeleteFolder(id string) error {
	folder, err := u.folderRepo.FindByID(id)
	if err != nil {
		return err
	}
	if folder == nil {
		return ErrFolderNotFound
	}
	return u.folderRepo.Delete(id)
}

func (u *taskUsecase) checkFolder(id string) error {
	folder, err := u.folderRepo.FindByID(id)
	if err != nil {
		return err
	}
	if folder == nil {
		return ErrFolderNotFound
	}
	return nil
}
