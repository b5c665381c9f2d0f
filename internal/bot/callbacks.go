package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/session"
)

// handleCallback resolves a button selection. Callbacks may arrive out of
// order, twice, or after the flow they belong to was cleared; every branch
// must therefore tolerate missing state and repeated delivery without
// mutating anything it should not.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	// Ack first so the client stops its spinner regardless of outcome.
	if _, err := b.sender.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("callback ack")
	}

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}

	unlock := b.locker.Lock(user.ID)
	defer unlock()

	domain, action, arg := splitCallbackData(cb.Data)
	chatID := cb.Message.Chat.ID

	turnLog := b.log.WithFields(logrus.Fields{
		"turn_id": uuid.NewString(),
		"user_id": user.ID,
		"action":  domain + ":" + action,
	})

	switch {
	case domain == "task" && action == "done":
		return b.completeFromCallback(ctx, user, chatID, arg, turnLog)
	case domain == "category" && action == "select":
		return b.selectCategoryFromCallback(ctx, user, chatID, arg, turnLog)
	case domain == "category" && action == "create":
		return b.startCategoryCreation(user, chatID, turnLog)
	case domain == "category" && action == "menu":
		return b.sendWithMarkup(chatID, "Manage categories:", categoryMenuKeyboard())
	default:
		// Unknown or malformed selection: acknowledge neutrally, touch nothing.
		turnLog.WithField("data", cb.Data).Warn("unknown callback")
		return b.sendText(chatID, replyUnknownAction)
	}
}

// completeFromCallback closes the referenced task. A stale button (task
// already done or gone) is a success reply, not an error: double taps and
// redelivered webhooks land here.
func (b *Bot) completeFromCallback(ctx context.Context, user *model.User, chatID int64, arg string, turnLog *logrus.Entry) error {
	taskID, ok := parseID(arg)
	if !ok {
		turnLog.WithField("arg", arg).Warn("bad task id")
		return b.sendText(chatID, replyUnknownAction)
	}

	changed, err := b.taskSvc.CompleteTask(ctx, user, taskID, b.now())
	if err != nil {
		turnLog.WithError(err).Error("complete task")
		return b.sendText(chatID, replyGenericFailure)
	}

	turnLog.WithFields(logrus.Fields{"task_id": taskID, "changed": changed}).Info("task done callback")
	return b.sendText(chatID, "Task marked as done.")
}

// selectCategoryFromCallback finalizes the paused task draft with the chosen
// category, or with none. Without an active draft there is nothing to do.
func (b *Bot) selectCategoryFromCallback(ctx context.Context, user *model.User, chatID int64, arg string, turnLog *logrus.Entry) error {
	state, ok := b.sessions.Get(user.ID)
	if !ok || state.Kind != session.KindCreatingTask || state.Draft == nil {
		return b.sendText(chatID, replyNoActiveFlow)
	}

	draft := *state.Draft

	if arg != cbArgNoCategory {
		categoryID, ok := parseID(arg)
		if !ok {
			turnLog.WithField("arg", arg).Warn("bad category id")
			return b.sendText(chatID, replyUnknownAction)
		}
		if _, err := b.categorySvc.Get(ctx, user, categoryID); err != nil {
			// Stale button from an outdated keyboard; keep the draft
			// so the user can pick again.
			return b.sendText(chatID, "That category doesn't exist. Please pick another.")
		}
		draft.CategoryID = &categoryID
	}

	return b.finalizeDraft(ctx, user, chatID, draft, turnLog)
}

// startCategoryCreation switches to the category-name prompt. A pending task
// draft rides along in the state so it survives the detour.
func (b *Bot) startCategoryCreation(user *model.User, chatID int64, turnLog *logrus.Entry) error {
	next := session.State{Kind: session.KindCreatingCategory}
	if state, ok := b.sessions.Get(user.ID); ok && state.Kind == session.KindCreatingTask {
		next.Draft = state.Draft
	}
	b.sessions.Set(user.ID, next)
	turnLog.WithField("has_draft", next.Draft != nil).Info("category creation started")
	return b.sendText(chatID, "Send the category name:")
}

// splitCallbackData parses "domain:action" or "domain:action:arg".
func splitCallbackData(data string) (domain, action, arg string) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) > 0 {
		domain = parts[0]
	}
	if len(parts) > 1 {
		action = parts[1]
	}
	if len(parts) > 2 {
		arg = parts[2]
	}
	return domain, action, arg
}

func parseID(raw string) (uint, bool) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(value), true
}
