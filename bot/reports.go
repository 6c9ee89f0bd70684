package bot

import (
	"fmt"
	"os"

	tele "gopkg.in/telebot.v4"

	"finbot/bot/flow"
	"finbot/core/logger"
	tghelpers "finbot/core/telegram/helpers"
	"finbot/ledger/report"
	"log/slog"
)

// sendReport exports the users dataset, delivers it as a document, and
// removes the artifact. Removal is guaranteed even when delivery fails.
func (a *App) sendReport(c tele.Context, exp report.Exporter, successMsg, failureMsg string) error {
	ctx := tghelpers.WithHandler(c, "report")

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return a.render(c, reportFailure(failureMsg, err))
	}

	rows := make([]report.Row, len(users))
	for i, u := range users {
		rows[i] = report.Row{ID: u.ID, Username: u.Username, Email: u.Email}
	}

	path, err := exp.Export(a.cfg.Core.Reports.Dir, rows)
	if err != nil {
		return a.render(c, reportFailure(failureMsg, err))
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.RPT.Warn("artifact cleanup failed",
				slog.String("event", "report.cleanup"),
				slog.String("path", path),
				slog.String("err", rmErr.Error()),
			)
		}
	}()

	logger.Debug(ctx, "report", "report.generated",
		slog.String("format", exp.FileName()),
		slog.String("path", path),
		slog.Int("rows", len(rows)),
	)

	if err := tghelpers.SendDocument(c, path, exp.FileName()); err != nil {
		return a.render(c, reportFailure(failureMsg, err))
	}
	return a.render(c, flow.Reply{Text: successMsg, Keyboard: flow.KeyboardStart})
}

func reportFailure(failureMsg string, err error) flow.Reply {
	return flow.Reply{
		Text:     fmt.Sprintf("%s\nError: %v", failureMsg, err),
		Keyboard: flow.KeyboardStart,
	}
}
