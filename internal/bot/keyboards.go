package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/andreivl23/TaskBot/internal/model"
)

const (
	menuLabelNewTask    = "➕ Add task"
	menuLabelMarkDone   = "✅ Mark task done"
	menuLabelCategories = "📂 Categories"
	menuLabelTasks      = "📋 Show tasks"
)

// Callback data is "domain:action" or "domain:action:arg".
const (
	cbTaskDone       = "task:done"
	cbCategorySelect = "category:select"
	cbCategoryCreate = "category:create"
	cbCategoryMenu   = "category:menu"

	// Argument of category:select meaning "finalize without a category".
	cbArgNoCategory = "none"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelCategories),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelMarkDone),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// taskListKeyboard lists pending tasks, one button per task.
func taskListKeyboard(tasks []model.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ %s", task.Title),
				fmt.Sprintf("%s:%d", cbTaskDone, task.ID),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// categorySelectionKeyboard enumerates the user's categories plus the two
// synthetic choices: create a new one, or file the task without a category.
func categorySelectionKeyboard(categories []model.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+2)
	for _, cat := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🏷 %s", cat.Name),
				fmt.Sprintf("%s:%d", cbCategorySelect, cat.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Create new category", cbCategoryCreate),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🚫 No category", fmt.Sprintf("%s:%s", cbCategorySelect, cbArgNoCategory)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoryMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Create category", cbCategoryCreate),
		),
	)
}
