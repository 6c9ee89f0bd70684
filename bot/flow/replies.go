package flow

import (
	"fmt"

	"finbot/core/telegram/state"
	"finbot/ledger"
)

// Keyboard names a reply keyboard variant. The state machine never
// depends on a rendering library; the adapter maps each variant to
// concrete markup.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardStart
	KeyboardBackToStart
	KeyboardReport
)

// Reply is the declarative result of handling one inbound event.
// Next == "" leaves the session state unchanged.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Next     state.State
	// Edit asks the adapter to rewrite the originating menu message
	// instead of sending a new one.
	Edit bool
}

const welcomeText = "Welcome! Please choose an action:"

const aboutText = "Personal finance tracker: add, edit, and delete " +
	"expenses and incomes, and export a report of registered users."

// Greeting is the /start reply. Registered users are greeted by name;
// everyone else gets the start menu.
func Greeting(username string, registered bool) Reply {
	if registered {
		return Reply{
			Text: fmt.Sprintf("Hello %s, you are logged in.", username),
			Next: state.StateIdle,
		}
	}
	return Reply{Text: welcomeText, Keyboard: KeyboardStart, Next: state.StateIdle}
}

// StartMenu is the "back to start" reply. It forces Idle from any state
// and discards the form buffer.
func StartMenu() Reply {
	return Reply{Text: welcomeText, Keyboard: KeyboardStart, Next: state.StateIdle, Edit: true}
}

// About describes the bot.
func About() Reply {
	return Reply{Text: aboutText, Keyboard: KeyboardBackToStart, Edit: true}
}

// ReportMenu offers the export formats.
func ReportMenu() Reply {
	return Reply{
		Text:     "Please choose how you'd like to receive your report or specify the format.",
		Keyboard: KeyboardReport,
		Edit:     true,
	}
}

// Busy rejects an event that arrived while a previous operation for the
// same session is still in flight. State is left unchanged.
func Busy() Reply {
	return Reply{Text: "Still processing your previous request. Please wait."}
}

// Prompt asks for the input that completes the given form.
func Prompt(f Form) Reply {
	next, ok := AwaitState(f)
	if !ok {
		return Reply{}
	}

	var text string
	switch f.Op {
	case ledger.OpCreate:
		text = fmt.Sprintf(
			"Please enter the %s details in the following format:\n\nAmount Description",
			f.Kind)
	case ledger.OpUpdate:
		text = fmt.Sprintf(
			"Please enter the ID of the %s you want to update, followed by the new details in the format:\n\nID Amount Description",
			f.Kind)
	case ledger.OpDelete:
		text = fmt.Sprintf("Please enter the ID of the %s you want to delete.", f.Kind)
	}

	return Reply{Text: text, Keyboard: KeyboardBackToStart, Next: next, Edit: true}
}

func successMessage(f Form) string {
	return fmt.Sprintf("%s %s successfully.", f.Kind.Title(), f.Op.PastVerb())
}

func failMessage(f Form) string {
	return fmt.Sprintf("Failed to %s %s. Please try again later.", f.Op.Verb(), f.Kind)
}
