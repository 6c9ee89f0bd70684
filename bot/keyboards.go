package bot

import (
	tele "gopkg.in/telebot.v4"

	"finbot/bot/flow"
	"finbot/core/telegram/keyboard"
)

// Callback keys referenced by keyboards and registered in routes.go.
const (
	cbStart       = "start"
	cbAbout       = "about"
	cbReport      = "report"
	cbGetReport   = "get_report"
	cbExcelReport = "generate_excel_report"

	cbAddExpense    = "add_expense"
	cbUpdateExpense = "update_expense"
	cbDeleteExpense = "delete_expense"
	cbAddIncome     = "add_income"
	cbUpdateIncome  = "update_income"
	cbDeleteIncome  = "delete_income"
)

// renderKeyboard maps a flow keyboard variant to concrete markup.
func renderKeyboard(k flow.Keyboard) *tele.ReplyMarkup {
	switch k {
	case flow.KeyboardStart:
		return keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{
				{Text: "About", Unique: cbAbout},
				{Text: "Report", Unique: cbReport},
			},
			[]keyboard.InlineBtn{
				{Text: "Add Expense", Unique: cbAddExpense},
				{Text: "Add Income", Unique: cbAddIncome},
			},
			[]keyboard.InlineBtn{
				{Text: "Edit Expense", Unique: cbUpdateExpense},
				{Text: "Edit Income", Unique: cbUpdateIncome},
			},
			[]keyboard.InlineBtn{
				{Text: "Delete Expense", Unique: cbDeleteExpense},
				{Text: "Delete Income", Unique: cbDeleteIncome},
			},
		)
	case flow.KeyboardBackToStart:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "Back to Start", Unique: cbStart},
		})
	case flow.KeyboardReport:
		return keyboard.InlineButtons([]keyboard.InlineBtn{
			{Text: "Generate Report", Unique: cbGetReport},
			{Text: "Excel Report", Unique: cbExcelReport},
			{Text: "Back to Start", Unique: cbStart},
		})
	}
	return nil
}
