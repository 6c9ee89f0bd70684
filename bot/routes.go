package bot

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"finbot/bot/flow"
	"finbot/core/logger"
	coretelegram "finbot/core/telegram"
	"finbot/core/telegram/commands"
	tghelpers "finbot/core/telegram/helpers"
	"finbot/core/telegram/state"
	"finbot/ledger"
	"log/slog"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.guarded(a.handleStart),
		Description: "Show the start menu",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Show bot statistics",
		AdminOnly:   true,
		Hidden:      true,
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	forms := map[string]flow.Form{
		cbAddExpense:    {Kind: ledger.KindExpense, Op: ledger.OpCreate},
		cbUpdateExpense: {Kind: ledger.KindExpense, Op: ledger.OpUpdate},
		cbDeleteExpense: {Kind: ledger.KindExpense, Op: ledger.OpDelete},
		cbAddIncome:     {Kind: ledger.KindIncome, Op: ledger.OpCreate},
		cbUpdateIncome:  {Kind: ledger.KindIncome, Op: ledger.OpUpdate},
		cbDeleteIncome:  {Kind: ledger.KindIncome, Op: ledger.OpDelete},
	}

	callbacks := map[string]tele.HandlerFunc{
		cbStart: a.guarded(func(c tele.Context) error {
			return a.applyReply(c, flow.StartMenu())
		}),
		cbAbout: func(c tele.Context) error {
			return a.applyReply(c, flow.About())
		},
		cbReport: func(c tele.Context) error {
			return a.applyReply(c, flow.ReportMenu())
		},
		cbGetReport: func(c tele.Context) error {
			return a.sendReport(c, a.csv,
				"Here is your report.",
				"Failed to generate report. Please try again later.")
		},
		cbExcelReport: func(c tele.Context) error {
			return a.sendReport(c, a.xlsx,
				"Here is your Excel report.",
				"Failed to generate Excel report. Please try again later.")
		},
	}
	for key, form := range forms {
		callbacks[key] = a.beginForm(form)
	}

	for key, handler := range callbacks {
		if err := reg.RegisterCallback(key, handler); err != nil {
			return err
		}
	}
	return nil
}

// handleStart deletes the /start message, greets registered users by
// name, and shows the start menu to everyone else.
func (a *App) handleStart(c tele.Context) error {
	_ = c.Delete()

	ctx := tghelpers.WithHandler(c, "start")
	username := ""
	if c.Sender() != nil {
		username = c.Sender().Username
	}

	registered, err := a.store.UserExists(ctx, username)
	if err != nil {
		logger.Warn(ctx, "tg", "start.lookup_failed",
			slog.String("err", err.Error()),
		)
		registered = false
	}
	return a.applyReply(c, flow.Greeting(username, registered))
}

// handleStats is admin-only wiring; it reports the registered user
// count and process uptime.
func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "stats")
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return tghelpers.SendText(c, fmt.Sprintf("Error: %v. Please try again later.", err))
	}
	uptime := time.Since(a.startedAt).Round(time.Second)
	return tghelpers.SendText(c, fmt.Sprintf("Registered users: %d\nUptime: %s", len(users), uptime))
}

// guarded rejects an event that arrived while a previous operation for
// the same session is still in flight, so the outstanding submission
// cannot be clobbered mid-relay. Every handler that mutates session
// state goes through it.
func (a *App) guarded(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID := c.Sender().ID
		if !a.sessions.Acquire(userID) {
			return a.render(c, flow.Busy())
		}
		defer a.sessions.Release(userID)
		return h(c)
	}
}

// beginForm opens a form: the session moves to the awaiting state, the
// form buffer records kind and operation, and the menu message becomes
// the input prompt. Opening a form discards any prior partial form.
func (a *App) beginForm(f flow.Form) tele.HandlerFunc {
	return a.guarded(func(c tele.Context) error {
		userID := c.Sender().ID
		if st, ok := flow.AwaitState(f); ok {
			a.sessions.SetState(userID, st)
			a.sessions.SetForm(userID, f)
		}
		return a.render(c, flow.Prompt(f))
	})
}

// flowHandler completes the form awaited by st with the user's text.
// The buffered form is authoritative when present; st only routes. A
// message arriving while a relay call is outstanding is rejected with
// a busy reply and does not touch the form buffer.
func (a *App) flowHandler(st state.State) tele.HandlerFunc {
	return a.guarded(func(c tele.Context) error {
		userID := c.Sender().ID
		ctx := tghelpers.WithHandler(c, "flow."+string(st))
		v := flow.Visitor{
			Username: c.Sender().Username,
			ChatID:   userID,
		}
		var reply flow.Reply
		if form, ok := a.sessions.Form(userID); ok {
			reply = a.machine.Complete(ctx, form, v, c.Text())
		} else {
			reply = a.machine.Submit(ctx, st, v, c.Text())
		}
		return a.applyReply(c, reply)
	})
}

func (a *App) registerFlowHandlers() {
	for _, st := range flow.States() {
		a.sessions.RegisterHandler(st, a.flowHandler(st))
	}
}

// applyReply persists the next state, then renders the reply.
func (a *App) applyReply(c tele.Context, reply flow.Reply) error {
	if reply.Next != "" {
		a.sessions.SetState(c.Sender().ID, reply.Next)
	}
	return a.render(c, reply)
}

// render turns a declarative reply into sink calls. Empty replies are
// swallowed silently.
func (a *App) render(c tele.Context, reply flow.Reply) error {
	if reply.Text == "" {
		return nil
	}
	markup := renderKeyboard(reply.Keyboard)

	if reply.Edit && c.Callback() != nil {
		if markup != nil {
			return c.Edit(reply.Text, markup)
		}
		return c.Edit(reply.Text)
	}
	if markup != nil {
		return tghelpers.SendMarkup(c, reply.Text, markup)
	}
	return tghelpers.SendText(c, reply.Text)
}
