package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/logging"
)

// DeployCommands replaces the command list shown by Telegram clients with the
// commands of the container.
func (p *MsgProcessor) DeployCommands(ctx context.Context) error {
	if err := p.connect(); err != nil {
		return fmt.Errorf("failed to connect Telegram server: %w", err)
	}
	return deployCommands(ctx, p.bot, p.container.Commands())
}

func deployCommands(ctx context.Context, bot botAPI, cmds []app.Command) error {
	log := logging.FromContextS(ctx)

	log.Info("Started deleting all bot commands.")
	if _, err := bot.Request(tgbotapi.NewDeleteMyCommands()); err != nil {
		return fmt.Errorf("failed to delete bot commands: %w", err)
	}
	log.Info("Successfully deleted all outdated bot commands.")

	log.Infof("Started refreshing %d bot commands.", len(cmds))
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(botCommands(cmds)...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	log.Infof("Successfully reloaded %d bot commands.", len(cmds))
	return nil
}

func botCommands(cmds []app.Command) []tgbotapi.BotCommand {
	res := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		res = append(res, tgbotapi.BotCommand{
			Command:     cmd.Name(),
			Description: cmd.Description(),
		})
	}
	return res
}
