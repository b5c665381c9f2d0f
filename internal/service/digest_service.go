package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/andreivl23/TaskBot/internal/dates"
	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/repository"
)

const noCategoryKey = "__no_category__"

// DigestService builds human-readable summaries of pending tasks for the
// periodic report job and the "Show tasks" menu action.
type DigestService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
}

func NewDigestService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository) *DigestService {
	return &DigestService{taskRepo: taskRepo, categoryRepo: categoryRepo}
}

// Summary renders the user's pending tasks grouped by category, ordered by
// due date within each group.
func (s *DigestService) Summary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.taskRepo.ListPending(ctx, user.ID)
	if err != nil {
		return "", err
	}

	if len(tasks) == 0 {
		return "You have no pending tasks. Send me one to get started.", nil
	}

	categories, err := s.categoryRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	catNames := make(map[uint]string)
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	type group struct {
		name  string
		tasks []model.Task
	}
	groups := make(map[string]*group)
	var order []string

	for _, task := range tasks {
		key := noCategoryKey
		display := "No category"
		if task.CategoryID != nil {
			if name, ok := catNames[*task.CategoryID]; ok && strings.TrimSpace(name) != "" {
				key = strings.ToLower(strings.TrimSpace(name))
				display = strings.TrimSpace(name)
			}
		}
		g, ok := groups[key]
		if !ok {
			g = &group{name: display}
			groups[key] = g
			order = append(order, key)
		}
		g.tasks = append(g.tasks, task)
	}

	sort.Slice(order, func(i, j int) bool {
		// No-category group goes last.
		if order[i] == noCategoryKey {
			return false
		}
		if order[j] == noCategoryKey {
			return true
		}
		return order[i] < order[j]
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Pending tasks</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	for _, key := range order {
		g := groups[key]
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(g.name)))
		for _, task := range g.tasks {
			builder.WriteString(formatTaskLine(task, now))
		}
		builder.WriteByte('\n')
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatTaskLine(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.DueAt != nil {
		d := task.DueAt.In(now.Location())
		switch {
		case dates.Midnight(now).After(d):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	if task.DueAt != nil {
		sb.WriteString(fmt.Sprintf(" · due %s", task.DueAt.Format("2006-01-02")))
	}
	sb.WriteByte('\n')
	return sb.String()
}
