package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/repository"
)

// ErrEmptyTitle means the title was empty or whitespace after trimming.
var ErrEmptyTitle = errors.New("task title is empty")

// ErrDuplicateTask means the user already has a pending task with the same
// title (case-insensitive, trimmed).
var ErrDuplicateTask = errors.New("task already exists")

// TaskInput is the data required to persist a task.
type TaskInput struct {
	Title      string
	DueAt      *time.Time
	CategoryID *uint
}

// TaskService wraps task business logic on top of the repository.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// CreateTask persists a new pending task. The duplicate check runs here, at
// the final persistence step, even when the caller already checked at
// initiation: a concurrent turn may have created the same title while a
// draft sat paused waiting for a category selection.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	exists, err := s.taskRepo.PendingExistsByTitle(ctx, user.ID, title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTask
	}

	task := model.Task{
		UserID:     user.ID,
		CategoryID: input.CategoryID,
		Title:      title,
		Status:     model.StatusPending,
		DueAt:      input.DueAt,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// TitleTaken reports whether a pending task with this title already exists.
// Used for the early duplicate check at workflow initiation.
func (s *TaskService) TitleTaken(ctx context.Context, user *model.User, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, ErrEmptyTitle
	}
	return s.taskRepo.PendingExistsByTitle(ctx, user.ID, title)
}

func (s *TaskService) ListPending(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListPending(ctx, user.ID)
}

func (s *TaskService) PendingExists(ctx context.Context, user *model.User, taskID uint) (bool, error) {
	return s.taskRepo.PendingExistsByID(ctx, user.ID, taskID)
}

// CompleteTask marks a pending task done. Completing a task that is already
// done or does not exist changes nothing and is not an error: duplicate
// callback deliveries must be tolerated. The bool reports whether a row
// actually changed.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, completedAt time.Time) (bool, error) {
	affected, err := s.taskRepo.MarkDone(ctx, user.ID, taskID, completedAt)
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	return affected > 0, nil
}
