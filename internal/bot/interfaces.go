package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/andreivl23/TaskBot/internal/llm"
)

// Extractor is the slice of the extraction service the bot consumes.
// Satisfied by *llm.Client; tests substitute a fake.
type Extractor interface {
	Classify(ctx context.Context, text string) (llm.Intent, error)
	ExtractTask(ctx context.Context, text string, today time.Time) (llm.TaskExtraction, error)
	AssignCategory(ctx context.Context, title string, categories []llm.CategoryRef) (llm.CategoryMatch, error)
	TimeExpression(ctx context.Context, phrase string) (string, error)
	SelectTask(ctx context.Context, text string, today time.Time, tasks []llm.TaskRef) (llm.TaskSelection, error)
	ResolveCategoryName(ctx context.Context, text string, categories []llm.CategoryRef) (string, error)
	Chat(ctx context.Context, text string, today time.Time, tasks []llm.TaskRef, categories []llm.CategoryRef) (string, error)
}

// apiSender is the outbound slice of the Telegram API.
// Satisfied by *tgbotapi.BotAPI.
type apiSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
