package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/logging"
)

func (p *MsgProcessor) startDispatcher() {
	ctx := context.Background()
	ctx, p.cancelDispatcher = context.WithCancel(ctx)
	p.listenerDone = make(chan struct{})
	go func() {
		defer close(p.listenerDone)
		p.startUpdListener(ctx)
	}()
}

func (p *MsgProcessor) startUpdListener(gCtx context.Context) {
	log := logging.FromContextS(gCtx)
	log.Info("Message receiver started... The bot is ready to process new commands!")
	for {
		var upd tgbotapi.Update
		select {
		case <-gCtx.Done():
			log.Info("Message receiver stopped.")
			return
		case u, ok := <-p.updates:
			if !ok {
				return
			}
			upd = u
		}

		msg := upd.Message
		if msg == nil || msg.From == nil || msg.Chat == nil {
			continue
		}
		name, args, ok := commandFromMessage(msg, p.bot.Self.UserName)
		if !ok {
			continue
		}

		mu := p.userLock(msg.From.ID) // we can handle only one command from certain user at once
		p.inFlight.Add(1)
		// Parent is Background, not gCtx: shutdown must not interrupt a running command.
		go func() {
			defer p.inFlight.Done()
			mu.Lock()
			defer mu.Unlock()
			p.handleCommand(context.Background(), NewReqUserProvider(p.bot, msg), msg, name, args)
		}()
	}
}

func (p *MsgProcessor) handleCommand(ctx context.Context, rup app.ReqUserProvider, msg *tgbotapi.Message, name, args string) {
	start := time.Now()
	rqID := genRequestID()
	ctx, log := logging.NewContextSL(ctx,
		"request_id", rqID,
		"user_tg_id", msg.From.ID,
		"user_name", msg.From.UserName,
		"chat_id", msg.Chat.ID,
		"command", name,
	)
	log.Infof("Received command %q with args %q", name, args)
	defer func() {
		if r := recover(); r != nil {
			log.With("recovered_obj", r).Error("!!! A PANIC occurred while handling command !!! See recovered object in recovered_obj!")
			_ = rup.Reply(ctx, fmt.Sprintf("An error occurred while processing your command. Request ID: %v", rqID))
		}
		log.Infow("Command is proceeded.",
			"total_elapsed_time", time.Since(start),
		)
	}()

	cmd, ok := p.container.Find(name)
	if !ok {
		log.Warn("Unknown command")
		_ = rup.Reply(ctx, unknownCommandText(p.commandNames()))
		return
	}
	if err := cmd.Execute(ctx, rup, args); err != nil {
		log.Errorf("Failed to process command: %v", err)
		var usrErr *app.UserError
		if errors.As(err, &usrErr) {
			_ = rup.Reply(ctx, usrErr.UserMessage)
		} else {
			_ = rup.Reply(ctx, fmt.Sprintf("An error occurred while processing your command. Try again later. Request ID: %v", rqID))
		}
	}
}

func (p *MsgProcessor) commandNames() []string {
	var names []string
	for _, cmd := range p.container.Commands() {
		names = append(names, "/"+cmd.Name())
	}
	return names
}

// commandFromMessage extracts "/name args" from msg. Commands addressed to
// another bot ("/video@other_bot") are skipped.
func commandFromMessage(msg *tgbotapi.Message, botUserName string) (name, args string, ok bool) {
	if !msg.IsCommand() {
		return "", "", false
	}
	withAt := msg.CommandWithAt()
	if i := strings.IndexByte(withAt, '@'); i >= 0 && !strings.EqualFold(withAt[i+1:], botUserName) {
		return "", "", false
	}
	return strings.ToLower(msg.Command()), strings.TrimSpace(msg.CommandArguments()), true
}

func unknownCommandText(names []string) string {
	return "Unknown command. Available commands: " + strings.Join(names, ", ")
}

func genRequestID() string {
	rid, _ := uuid.NewRandom()
	return rid.String()
}
