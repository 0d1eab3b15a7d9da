package usecase

import (
	"context"
	"errors"
	"testing"

	emaildomain "mailpilot-backend/internal/email/domain"
	"mailpilot-backend/internal/task/domain"
	"mailpilot-backend/internal/task/repository"
	"mailpilot-backend/pkg/ai"
)

// fakeParser returns canned parse results
type fakeParser struct {
	parsed []emaildomain.ParsedTask
	err    error
}

func (f *fakeParser) ClassifyEmail(ctx context.Context, email *emaildomain.NormalizedEmail) emaildomain.EmailClassification {
	return emaildomain.EmailClassification{}
}

func (f *fakeParser) DetectCalendarEvent(ctx context.Context, email *emaildomain.NormalizedEmail) *emaildomain.CalendarEvent {
	return nil
}

func (f *fakeParser) DetectTasks(ctx context.Context, email *emaildomain.NormalizedEmail) []emaildomain.DetectedTask {
	return nil
}

func (f *fakeParser) GenerateReply(ctx context.Context, email *emaildomain.NormalizedEmail) (emaildomain.GeneratedReply, error) {
	return emaildomain.GeneratedReply{}, nil
}

func (f *fakeParser) RefineReply(ctx context.Context, email *emaildomain.NormalizedEmail, currentReply string, history []ai.ChatTurn, userMessage string) (string, error) {
	return "", nil
}

func (f *fakeParser) ParseTasksFromText(ctx context.Context, text string) ([]emaildomain.ParsedTask, error) {
	return f.parsed, f.err
}

func (f *fakeParser) ParseTasksFromImage(ctx context.Context, base64Image, mimeType string) ([]emaildomain.ParsedTask, error) {
	return f.parsed, f.err
}

func newTaskUsecaseForTest(parser ai.ExtractorService) TaskUsecase {
	tasks := repository.NewMemoryTaskRepository()
	folders := repository.NewMemoryFolderRepository(tasks)
	return NewTaskUsecase(tasks, folders, parser)
}

func TestCreateAndGetTask(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})

	due := "2026-09-10"
	task, err := uc.CreateTask("Write report", "quarterly numbers", &due, nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != domain.TaskStatusTodo || task.Source != domain.TaskSourceManual {
		t.Errorf("defaults wrong: %+v", task)
	}

	got, err := uc.GetTask(task.ID)
	if err != nil || got.Name != "Write report" {
		t.Fatalf("GetTask: %v %+v", err, got)
	}
}

func TestCreateTaskRequiresName(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})
	if _, err := uc.CreateTask("  ", "", nil, nil); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})
	task, _ := uc.CreateTask("T", "", nil, nil)

	status := "in_progress"
	updated, err := uc.UpdateTask(task.ID, TaskUpdateRequest{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Status != domain.TaskStatusInProgress {
		t.Errorf("status = %s", updated.Status)
	}

	bad := "archived"
	if _, err := uc.UpdateTask(task.ID, TaskUpdateRequest{Status: &bad}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestDeleteFolderKeepsTasks(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})

	folder, err := uc.CreateFolder("School")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	task, err := uc.CreateTask("Homework", "", nil, &folder.ID)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if err := uc.DeleteFolder(folder.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	got, err := uc.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask after folder delete: %v", err)
	}
	if got.FolderID != nil {
		t.Errorf("folder assignment not cleared: %v", *got.FolderID)
	}
}

func TestCreateTaskUnknownFolder(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})
	missing := "missing"
	if _, err := uc.CreateTask("T", "", nil, &missing); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("err = %v, want ErrFolderNotFound", err)
	}
}

func TestParseTasksFromTextCreatesFileTasks(t *testing.T) {
	due := "2026-09-20"
	uc := newTaskUsecaseForTest(&fakeParser{parsed: []emaildomain.ParsedTask{
		{Name: "Finish essay", DueDate: &due},
		{Name: "Submit form"},
	}})

	tasks, err := uc.ParseTasksFromText(context.Background(), "essay due sept 20, submit the form", nil)
	if err != nil {
		t.Fatalf("ParseTasksFromText: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	for _, task := range tasks {
		if task.Source != domain.TaskSourceFile {
			t.Errorf("source = %s, want file", task.Source)
		}
	}

	stored, _ := uc.GetTasks(nil, nil)
	if len(stored) != 2 {
		t.Errorf("stored %d tasks, want 2", len(stored))
	}
}

func TestParseTasksPropagatesError(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{err: errors.New("model offline")})
	if _, err := uc.ParseTasksFromText(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestRenameFolder(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})
	folder, _ := uc.CreateFolder("Old")

	renamed, err := uc.RenameFolder(folder.ID, "New")
	if err != nil || renamed.Name != "New" {
		t.Fatalf("RenameFolder: %v %+v", err, renamed)
	}

	if _, err := uc.RenameFolder("missing", "X"); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("err = %v, want ErrFolderNotFound", err)
	}
}

func TestCreateEmailTask(t *testing.T) {
	uc := newTaskUsecaseForTest(&fakeParser{})

	due := "2026-09-05"
	task, err := uc.CreateEmailTask(emaildomain.DetectedTask{
		Name:     "Reply with availability",
		DueDate:  &due,
		Priority: emaildomain.PriorityHigh,
	}, "msg-1", "Scheduling")
	if err != nil {
		t.Fatalf("CreateEmailTask: %v", err)
	}
	if task.Source != domain.TaskSourceEmail || task.SourceActionID != "msg-1" || task.SourceEmailSubject != "Scheduling" {
		t.Errorf("email provenance wrong: %+v", task)
	}
}
