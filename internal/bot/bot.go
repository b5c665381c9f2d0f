// Package bot sequences Telegram turns into task and category records. Each
// inbound delivery (text message or button callback) is one independent turn;
// all resumable context between turns lives in the session store, and a
// per-user lock serializes overlapping deliveries for the same user.
package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/repository"
	"github.com/andreivl23/TaskBot/internal/service"
	"github.com/andreivl23/TaskBot/internal/session"
)

const cancelKeyword = "cancel"

const (
	replyCancelled      = "Cancelled."
	replyGenericFailure = "Sorry, I couldn't process that. Please try again."
	replySaveFailure    = "Sorry, something went wrong saving that. Please start over."
	replyNoActiveFlow   = "No active task creation."
	replyUnknownAction  = "Nothing to do for that button."
)

// Bot aggregates the Telegram API with services and per-user state.
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      apiSender
	extractor   Extractor
	userRepo    *repository.UserRepository
	taskSvc     *service.TaskService
	categorySvc *service.CategoryService
	digestSvc   *service.DigestService
	sessions    *session.Store
	locker      *session.Locker
	log         *logrus.Logger
	now         func() time.Time
}

func New(token string, extractor Extractor, userRepo *repository.UserRepository, taskSvc *service.TaskService, categorySvc *service.CategoryService, digestSvc *service.DigestService, log *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("bot authorized")

	b := newBot(extractor, userRepo, taskSvc, categorySvc, digestSvc, log)
	b.api = api
	b.sender = api
	return b, nil
}

// newBot wires everything except the Telegram API, so tests can attach fakes.
func newBot(extractor Extractor, userRepo *repository.UserRepository, taskSvc *service.TaskService, categorySvc *service.CategoryService, digestSvc *service.DigestService, log *logrus.Logger) *Bot {
	return &Bot{
		extractor:   extractor,
		userRepo:    userRepo,
		taskSvc:     taskSvc,
		categorySvc: categorySvc,
		digestSvc:   digestSvc,
		sessions:    session.NewStore(),
		locker:      session.NewLocker(),
		log:         log,
		now:         time.Now,
	}
}

// Start polls updates until ctx is cancelled. Every update is handled on its
// own goroutine; the per-user locker keeps same-user turns serialized while
// different users proceed in parallel.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		update := update
		go func() {
			switch {
			case update.CallbackQuery != nil:
				if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
					b.log.WithError(err).Error("handle callback")
				}
			case update.Message != nil:
				if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
					return
				}
				if err := b.handleMessage(ctx, update.Message); err != nil {
					b.log.WithError(err).Error("handle message")
				}
			}
		}()
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	unlock := b.locker.Lock(user.ID)
	defer unlock()

	turnLog := b.log.WithFields(logrus.Fields{
		"turn_id": uuid.NewString(),
		"user_id": user.ID,
	})

	text := strings.TrimSpace(msg.Text)

	// Cancellation wins over everything, including active flows, and
	// succeeds even when there is nothing to cancel.
	if strings.EqualFold(text, cancelKeyword) || (msg.IsCommand() && msg.Command() == "cancel") {
		b.sessions.Clear(user.ID)
		turnLog.Info("flow cancelled")
		return b.sendText(msg.Chat.ID, replyCancelled)
	}

	if state, ok := b.sessions.Get(user.ID); ok {
		turnLog.WithField("kind", state.Kind.String()).Info("resume flow")
		return b.resumeFlow(ctx, user, msg.Chat.ID, text, state, turnLog)
	}

	if msg.IsCommand() {
		return b.handleCommand(ctx, user, msg)
	}

	if handled, err := b.handleMenuAction(ctx, user, msg.Chat.ID, text); handled {
		return err
	}

	return b.routeIntent(ctx, user, msg.Chat.ID, text, turnLog)
}

func (b *Bot) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		name := strings.TrimSpace(msg.From.FirstName)
		if name == "" {
			name = "there"
		}
		text := fmt.Sprintf(
			"👋 Hi, %s!\n<b>I turn your messages into tasks.</b>\n\n"+
				"Just tell me what to do, e.g. \"buy milk tomorrow\", or use the menu below.\n"+
				"Send \"cancel\" any time to abandon the current step.",
			html.EscapeString(name),
		)
		return b.sendWithMarkup(msg.Chat.ID, text, mainMenuKeyboard())
	case "help":
		text := "ℹ️ <b>How to use me</b>\n" +
			"• Describe a task in plain words and I save it, due date included\n" +
			"• \"➕ Add task\" — add a task step by step\n" +
			"• \"✅ Mark task done\" — close a task with one tap\n" +
			"• \"📂 Categories\" — manage categories\n" +
			"• \"📋 Show tasks\" — list what is pending\n" +
			"• \"cancel\" — abandon the current step"
		return b.sendText(msg.Chat.ID, text)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

// handleMenuAction routes main-menu button presses, which arrive as plain
// text and take priority over intent classification.
func (b *Bot) handleMenuAction(ctx context.Context, user *model.User, chatID int64, text string) (bool, error) {
	switch text {
	case menuLabelNewTask:
		b.sessions.Set(user.ID, session.State{Kind: session.KindCreatingTask})
		return true, b.sendText(chatID, "Send me the task description.")
	case menuLabelMarkDone:
		tasks, err := b.taskSvc.ListPending(ctx, user)
		if err != nil {
			return true, b.sendText(chatID, replyGenericFailure)
		}
		if len(tasks) == 0 {
			return true, b.sendText(chatID, "No tasks to mark as done.")
		}
		return true, b.sendWithMarkup(chatID, "Select a task to mark as done:", taskListKeyboard(tasks))
	case menuLabelCategories:
		return true, b.sendWithMarkup(chatID, "Manage categories:", categoryMenuKeyboard())
	case menuLabelTasks:
		summary, err := b.digestSvc.Summary(ctx, *user, b.now())
		if err != nil {
			return true, b.sendText(chatID, replyGenericFailure)
		}
		return true, b.sendText(chatID, summary)
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.sender.Send(msg)
	return err
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.sender.Send(msg)
	return err
}

// SendDigests sends the pending-task summary to every known user. Driven by
// the cron scheduler.
func (b *Bot) SendDigests(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.digestSvc.Summary(ctx, user, now)
		if err != nil {
			b.log.WithError(err).WithField("user_id", user.ID).Error("build digest")
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.WithError(err).WithField("user_id", user.ID).Error("send digest")
		}
	}
	return nil
}
