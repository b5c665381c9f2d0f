package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreivl23/TaskBot/internal/dates"
	"github.com/andreivl23/TaskBot/internal/llm"
	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/service"
	"github.com/andreivl23/TaskBot/internal/session"
)

// routeIntent classifies a stateless free-text turn and dispatches it.
// Classification failure aborts the turn with a generic reply; no intent is
// ever guessed.
func (b *Bot) routeIntent(ctx context.Context, user *model.User, chatID int64, text string, turnLog *logrus.Entry) error {
	intent, err := b.extractor.Classify(ctx, text)
	if err != nil {
		turnLog.WithError(err).Error("classify")
		return b.sendText(chatID, replyGenericFailure)
	}
	turnLog.WithField("intent", string(intent)).Info("intent classified")

	switch intent {
	case llm.IntentCreateTask:
		return b.runTaskCreation(ctx, user, chatID, text, turnLog)
	case llm.IntentMarkAsDone:
		return b.markDoneByText(ctx, user, chatID, text, turnLog)
	case llm.IntentCreateCategory:
		return b.createCategoryByIntent(ctx, user, chatID, text, turnLog)
	case llm.IntentChat:
		return b.chat(ctx, user, chatID, text, turnLog)
	default:
		return b.sendText(chatID, replyGenericFailure)
	}
}

// resumeFlow interprets a text turn as the missing piece of the user's
// paused flow. Stateful input always bypasses intent classification.
func (b *Bot) resumeFlow(ctx context.Context, user *model.User, chatID int64, text string, state session.State, turnLog *logrus.Entry) error {
	switch state.Kind {
	case session.KindCreatingTask:
		// A fresh description supersedes whatever the draft held.
		return b.runTaskCreation(ctx, user, chatID, text, turnLog)
	case session.KindCreatingCategory:
		return b.createCategoryFromName(ctx, user, chatID, text, state, turnLog)
	default:
		// Unreachable kind: drop the broken state rather than trapping the user.
		b.sessions.Clear(user.ID)
		return b.sendText(chatID, replyGenericFailure)
	}
}

// runTaskCreation is the task-creation workflow: extract {title, due},
// reject empty titles and duplicates, resolve the due date, then either
// finalize immediately (high-confidence category) or pause for an explicit
// category selection. Until finalization no task row is written; on any
// failure before the pause, existing state is left untouched.
func (b *Bot) runTaskCreation(ctx context.Context, user *model.User, chatID int64, text string, turnLog *logrus.Entry) error {
	extraction, err := b.extractor.ExtractTask(ctx, text, b.now())
	if err != nil {
		turnLog.WithError(err).Error("extract task")
		return b.sendText(chatID, replyGenericFailure)
	}

	title := strings.TrimSpace(extraction.Title)
	if title == "" {
		return b.sendText(chatID, "I couldn't determine the task title.")
	}

	taken, err := b.taskSvc.TitleTaken(ctx, user, title)
	if err != nil {
		turnLog.WithError(err).Error("duplicate check")
		return b.sendText(chatID, replyGenericFailure)
	}
	if taken {
		return b.sendText(chatID, "That task already exists.")
	}

	dueAt, err := b.resolveDue(ctx, extraction.Due)
	if err != nil {
		turnLog.WithError(err).Error("resolve due")
		return b.sendText(chatID, replyGenericFailure)
	}

	categories, err := b.categorySvc.List(ctx, user)
	if err != nil {
		turnLog.WithError(err).Error("list categories")
		return b.sendText(chatID, replyGenericFailure)
	}

	match, err := b.extractor.AssignCategory(ctx, title, categoryRefs(categories))
	if err != nil {
		turnLog.WithError(err).Error("assign category")
		return b.sendText(chatID, replyGenericFailure)
	}

	draft := session.TaskDraft{Title: title, DueAt: dueAt}

	// Only a high-confidence match on a real category auto-assigns;
	// anything weaker is the user's call.
	if match.Confidence == llm.ConfidenceHigh && match.CategoryID != nil && categoryKnown(categories, *match.CategoryID) {
		draft.CategoryID = match.CategoryID
		turnLog.WithField("category_id", *match.CategoryID).Info("category auto-assigned")
		return b.finalizeDraft(ctx, user, chatID, draft, turnLog)
	}

	b.sessions.Set(user.ID, session.State{Kind: session.KindCreatingTask, Draft: &draft})
	turnLog.Info("task creation paused for category selection")
	return b.sendWithMarkup(chatID,
		"I couldn't confidently choose a category. Please select one:",
		categorySelectionKeyboard(categories))
}

// resolveDue turns an extracted date reference into a calendar date. An
// unrecognized expression or unparsable literal degrades to no date — a task
// without a deadline is valid — while a failing extraction call is an error.
func (b *Bot) resolveDue(ctx context.Context, due *llm.DueRef) (*time.Time, error) {
	if due == nil {
		return nil, nil
	}

	today := dates.Midnight(b.now())

	var resolved time.Time
	switch due.Type {
	case "relative":
		expr, err := b.extractor.TimeExpression(ctx, due.Value)
		if err != nil {
			return nil, fmt.Errorf("time expression: %w", err)
		}
		d, ok := dates.Resolve(expr, today)
		if !ok {
			return nil, nil
		}
		resolved = d
	case "absolute":
		normalized, err := dates.Normalize(due.Value)
		if err != nil {
			return nil, nil
		}
		d, err := dates.ParseISO(normalized)
		if err != nil {
			return nil, nil
		}
		resolved = d
	default:
		return nil, nil
	}

	final := dates.EnforceFuture(resolved, today)
	return &final, nil
}

// finalizeDraft is the single exit point of task creation, used by both the
// auto-assign path and the callback selection path. The duplicate check runs
// again here: a concurrent turn may have persisted the same title while the
// draft was paused. State is cleared no matter what so a failed write never
// leaves the user stuck in a dead flow.
func (b *Bot) finalizeDraft(ctx context.Context, user *model.User, chatID int64, draft session.TaskDraft, turnLog *logrus.Entry) error {
	defer b.sessions.Clear(user.ID)

	task, err := b.taskSvc.CreateTask(ctx, user, service.TaskInput{
		Title:      draft.Title,
		DueAt:      draft.DueAt,
		CategoryID: draft.CategoryID,
	})
	switch {
	case errors.Is(err, service.ErrDuplicateTask):
		return b.sendText(chatID, "That task already exists.")
	case errors.Is(err, service.ErrEmptyTitle):
		return b.sendText(chatID, "I couldn't determine the task title.")
	case err != nil:
		turnLog.WithError(err).Error("persist task")
		return b.sendText(chatID, replySaveFailure)
	}

	turnLog.WithField("task_id", task.ID).Info("task created")
	return b.sendWithMarkup(chatID, "Task created ✅", mainMenuKeyboard())
}

// markDoneByText asks the extraction service which pending task the user
// means and closes it.
func (b *Bot) markDoneByText(ctx context.Context, user *model.User, chatID int64, text string, turnLog *logrus.Entry) error {
	tasks, err := b.taskSvc.ListPending(ctx, user)
	if err != nil {
		turnLog.WithError(err).Error("list pending")
		return b.sendText(chatID, replyGenericFailure)
	}

	selection, err := b.extractor.SelectTask(ctx, text, b.now(), taskRefs(tasks))
	if err != nil {
		turnLog.WithError(err).Error("select task")
		return b.sendText(chatID, replyGenericFailure)
	}

	if selection.TaskID == nil {
		if selection.Message != nil && strings.TrimSpace(*selection.Message) != "" {
			return b.sendText(chatID, html.EscapeString(*selection.Message))
		}
		return b.sendText(chatID, "I couldn't determine which task you meant.")
	}

	exists, err := b.taskSvc.PendingExists(ctx, user, *selection.TaskID)
	if err != nil {
		turnLog.WithError(err).Error("check task")
		return b.sendText(chatID, replyGenericFailure)
	}
	if !exists {
		return b.sendText(chatID, "That task does not exist.")
	}

	if _, err := b.taskSvc.CompleteTask(ctx, user, *selection.TaskID, b.now()); err != nil {
		turnLog.WithError(err).Error("complete task")
		return b.sendText(chatID, replyGenericFailure)
	}

	turnLog.WithField("task_id", *selection.TaskID).Info("task marked done")
	return b.sendText(chatID, fmt.Sprintf("Task %d marked as done.", *selection.TaskID))
}

// createCategoryByIntent handles the single-turn "create a category" intent,
// where the name still has to be extracted from free text.
func (b *Bot) createCategoryByIntent(ctx context.Context, user *model.User, chatID int64, text string, turnLog *logrus.Entry) error {
	categories, err := b.categorySvc.List(ctx, user)
	if err != nil {
		turnLog.WithError(err).Error("list categories")
		return b.sendText(chatID, replyGenericFailure)
	}

	name, err := b.extractor.ResolveCategoryName(ctx, text, categoryRefs(categories))
	if err != nil {
		turnLog.WithError(err).Error("resolve category name")
		return b.sendText(chatID, replyGenericFailure)
	}
	if name == "" {
		return b.sendText(chatID, "Please specify a category name.")
	}

	return b.persistCategory(ctx, user, chatID, name, session.State{}, turnLog)
}

// createCategoryFromName handles the stateful category-creation turn, where
// the text itself is the name. If a task draft is riding along (the user hit
// "create new category" during task creation), the draft finalizes with the
// fresh category.
func (b *Bot) createCategoryFromName(ctx context.Context, user *model.User, chatID int64, text string, state session.State, turnLog *logrus.Entry) error {
	name := strings.TrimSpace(text)
	if name == "" {
		// Keep the state: the user can try again or cancel.
		return b.sendText(chatID, "Category name cannot be empty.")
	}
	return b.persistCategory(ctx, user, chatID, name, state, turnLog)
}

func (b *Bot) persistCategory(ctx context.Context, user *model.User, chatID int64, name string, state session.State, turnLog *logrus.Entry) error {
	category, err := b.categorySvc.Create(ctx, user, name, "")
	switch {
	case errors.Is(err, service.ErrDuplicateCategory):
		if state.Draft != nil {
			// Put the user back in front of the selection so the
			// pending draft is not lost.
			b.sessions.Set(user.ID, session.State{Kind: session.KindCreatingTask, Draft: state.Draft})
			categories, listErr := b.categorySvc.List(ctx, user)
			if listErr != nil {
				turnLog.WithError(listErr).Error("list categories")
				return b.sendText(chatID, replyGenericFailure)
			}
			return b.sendWithMarkup(chatID,
				fmt.Sprintf("Category “%s” already exists. Pick one:", html.EscapeString(strings.ToLower(name))),
				categorySelectionKeyboard(categories))
		}
		return b.sendText(chatID, fmt.Sprintf("Category “%s” already exists.", html.EscapeString(strings.ToLower(name))))
	case errors.Is(err, service.ErrEmptyCategoryName):
		return b.sendText(chatID, "Please specify a category name.")
	case err != nil:
		turnLog.WithError(err).Error("persist category")
		b.sessions.Clear(user.ID)
		return b.sendText(chatID, replySaveFailure)
	}

	turnLog.WithField("category_id", category.ID).Info("category created")

	if state.Draft != nil {
		if err := b.sendText(chatID, fmt.Sprintf("Category “%s” created ✅", html.EscapeString(category.Name))); err != nil {
			return err
		}
		draft := *state.Draft
		draft.CategoryID = &category.ID
		return b.finalizeDraft(ctx, user, chatID, draft, turnLog)
	}

	b.sessions.Clear(user.ID)
	return b.sendText(chatID, fmt.Sprintf("Category “%s” created ✅", html.EscapeString(category.Name)))
}

// chat answers a free-form question with the user's tasks as context.
func (b *Bot) chat(ctx context.Context, user *model.User, chatID int64, text string, turnLog *logrus.Entry) error {
	tasks, err := b.taskSvc.ListPending(ctx, user)
	if err != nil {
		turnLog.WithError(err).Error("list pending")
		return b.sendText(chatID, replyGenericFailure)
	}
	categories, err := b.categorySvc.List(ctx, user)
	if err != nil {
		turnLog.WithError(err).Error("list categories")
		return b.sendText(chatID, replyGenericFailure)
	}

	reply, err := b.extractor.Chat(ctx, text, b.now(), taskRefs(tasks), categoryRefs(categories))
	if err != nil {
		turnLog.WithError(err).Error("chat")
		return b.sendText(chatID, replyGenericFailure)
	}
	return b.sendText(chatID, html.EscapeString(reply))
}

func categoryRefs(categories []model.Category) []llm.CategoryRef {
	refs := make([]llm.CategoryRef, 0, len(categories))
	for _, cat := range categories {
		refs = append(refs, llm.CategoryRef{ID: cat.ID, Name: cat.Name, Description: cat.Description})
	}
	return refs
}

func taskRefs(tasks []model.Task) []llm.TaskRef {
	refs := make([]llm.TaskRef, 0, len(tasks))
	for _, task := range tasks {
		ref := llm.TaskRef{ID: task.ID, Title: task.Title, CategoryID: task.CategoryID}
		if task.DueAt != nil {
			due := task.DueAt.Format(dates.ISO)
			ref.DueAt = &due
		}
		refs = append(refs, ref)
	}
	return refs
}

func categoryKnown(categories []model.Category, id uint) bool {
	for _, cat := range categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}
