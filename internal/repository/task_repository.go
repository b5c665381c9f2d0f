package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/andreivl23/TaskBot/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// PendingExistsByTitle reports whether the user already has a pending task
// whose trimmed title matches case-insensitively.
func (r *TaskRepository) PendingExistsByTitle(ctx context.Context, userID uint, title string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status = ? AND lower(title) = lower(?)", userID, model.StatusPending, strings.TrimSpace(title)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check task title: %w", err)
	}
	return count > 0, nil
}

// PendingExistsByID reports whether the user has a pending task with this id.
func (r *TaskRepository) PendingExistsByID(ctx context.Context, userID, taskID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ? AND status = ?", userID, taskID, model.StatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check task id: %w", err)
	}
	return count > 0, nil
}

// ListPending returns the user's open tasks ordered by due date, tasks
// without a due date last.
func (r *TaskRepository) ListPending(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.StatusPending).
		Order("due_at IS NULL, due_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkDone closes a pending task and stamps the completion time. The WHERE
// clause makes a repeated or stale delivery a harmless no-op: an already-done
// or missing task matches zero rows. Returns the number of rows changed.
func (r *TaskRepository) MarkDone(ctx context.Context, userID, taskID uint, completedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ? AND status = ?", userID, taskID, model.StatusPending).
		Updates(map[string]interface{}{
			"status":       model.StatusDone,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("mark task done: %w", res.Error)
	}
	return res.RowsAffected, nil
}
