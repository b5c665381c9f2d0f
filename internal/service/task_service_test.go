package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/repository"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testUser(t *testing.T, db *gorm.DB) *model.User {
	return testUserWithTelegramID(t, db, 12345)
}

func testUserWithTelegramID(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user := model.User{TelegramID: telegramID, FirstName: "Test"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func TestCreateTaskDuplicateTitle(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	svc := NewTaskService(repository.NewTaskRepository(db))
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, user, TaskInput{Title: "Buy milk"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	for _, variant := range []string{"Buy milk", "buy milk", "BUY MILK", "  Buy milk  "} {
		_, err := svc.CreateTask(ctx, user, TaskInput{Title: variant})
		if !errors.Is(err, ErrDuplicateTask) {
			t.Errorf("create %q: err = %v, want ErrDuplicateTask", variant, err)
		}
	}

	var count int64
	db.Model(&model.Task{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("store holds %d tasks, want exactly 1", count)
	}
}

func TestCreateTaskEmptyTitle(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	svc := NewTaskService(repository.NewTaskRepository(db))

	for _, title := range []string{"", "   ", "\n\t"} {
		_, err := svc.CreateTask(context.Background(), user, TaskInput{Title: title})
		if !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("create %q: err = %v, want ErrEmptyTitle", title, err)
		}
	}
}

func TestDuplicateCheckIgnoresDoneTasks(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	svc := NewTaskService(repository.NewTaskRepository(db))
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, user, TaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CompleteTask(ctx, user, task.ID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Done tasks do not block re-creating the same title.
	if _, err := svc.CreateTask(ctx, user, TaskInput{Title: "buy milk"}); err != nil {
		t.Fatalf("recreate after done: %v", err)
	}
}

func TestDuplicateCheckScopedToUser(t *testing.T) {
	db := testDB(t)
	userA := testUser(t, db)
	userB := model.User{TelegramID: 67890}
	if err := db.Create(&userB).Error; err != nil {
		t.Fatalf("create user b: %v", err)
	}
	svc := NewTaskService(repository.NewTaskRepository(db))
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, userA, TaskInput{Title: "Buy milk"}); err != nil {
		t.Fatalf("user a create: %v", err)
	}
	if _, err := svc.CreateTask(ctx, &userB, TaskInput{Title: "Buy milk"}); err != nil {
		t.Fatalf("user b create blocked by user a's task: %v", err)
	}
}

func TestCompleteTaskIdempotent(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	svc := NewTaskService(repository.NewTaskRepository(db))
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, user, TaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	changed, err := svc.CompleteTask(ctx, user, task.ID, time.Now())
	if err != nil || !changed {
		t.Fatalf("first complete: changed=%t err=%v", changed, err)
	}

	// Second delivery of the same callback: no-op, no error.
	changed, err = svc.CompleteTask(ctx, user, task.ID, time.Now())
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if changed {
		t.Error("second complete reported a change")
	}

	var stored model.Task
	if err := db.First(&stored, task.ID).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if stored.Status != model.StatusDone || stored.CompletedAt == nil {
		t.Errorf("task = status %q completed_at %v", stored.Status, stored.CompletedAt)
	}
}

func TestCompleteNonExistentTask(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	svc := NewTaskService(repository.NewTaskRepository(db))

	changed, err := svc.CompleteTask(context.Background(), user, 9999, time.Now())
	if err != nil {
		t.Fatalf("complete missing task: %v", err)
	}
	if changed {
		t.Error("completing a missing task reported a change")
	}
}

func TestListPendingOrderedByDueDate(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	svc := NewTaskService(repository.NewTaskRepository(db))
	ctx := context.Background()

	day := func(offset int) *time.Time {
		d := time.Date(2026, time.January, 10+offset, 0, 0, 0, 0, time.UTC)
		return &d
	}

	if _, err := svc.CreateTask(ctx, user, TaskInput{Title: "no due"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, user, TaskInput{Title: "later", DueAt: day(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, user, TaskInput{Title: "sooner", DueAt: day(1)}); err != nil {
		t.Fatal(err)
	}

	tasks, err := svc.ListPending(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	want := []string{"sooner", "later", "no due"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("titles = %v, want %v", titles, want)
		}
	}
}
