package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/miikaoskari/dc-bot/internal/logging"
)

const deferredText = "Downloading your video..."

// reqUserProvider answers one command message. Replies are threaded to it.
type reqUserProvider struct {
	bot botAPI
	msg *tgbotapi.Message

	mu            sync.Mutex
	deferredMsgID int
}

func NewReqUserProvider(bot botAPI, msg *tgbotapi.Message) *reqUserProvider {
	return &reqUserProvider{
		bot: bot,
		msg: msg,
	}
}

func (rup *reqUserProvider) chatID() int64 {
	return rup.msg.Chat.ID
}

func (rup *reqUserProvider) Reply(ctx context.Context, text string) error {
	_, err := rup.sendText(ctx, text)
	return err
}

func (rup *reqUserProvider) DeferReply(ctx context.Context) error {
	log := logging.FromContextS(ctx)
	if _, err := rup.bot.Request(tgbotapi.NewChatAction(rup.chatID(), tgbotapi.ChatUploadVideo)); err != nil {
		log.Warnf("Failed to send chat action: %v", err)
	}
	msgID, err := rup.sendText(ctx, deferredText)
	if err != nil {
		return err
	}
	rup.mu.Lock()
	rup.deferredMsgID = msgID
	rup.mu.Unlock()
	return nil
}

func (rup *reqUserProvider) FollowUp(ctx context.Context, text string) error {
	if _, err := rup.sendText(ctx, text); err != nil {
		return err
	}
	rup.dropDeferred(ctx)
	return nil
}

func (rup *reqUserProvider) FollowUpVideo(ctx context.Context, caption, filePath string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	log := logging.FromContextS(ctx)
	log.Infof("Uploading video file %q to Telegram...", filePath)
	video := tgbotapi.NewVideo(rup.chatID(), tgbotapi.FilePath(filePath))
	video.Caption = caption
	video.SupportsStreaming = true
	video.ReplyToMessageID = rup.msg.MessageID
	if _, err := rup.bot.Send(video); err != nil {
		return fmt.Errorf("failed to upload video to telegram: %w", err)
	}
	log.Info("Uploading video file to Telegram successfully done!")
	rup.dropDeferred(ctx)
	return nil
}

// dropDeferred deletes the "downloading" message once the real answer is sent.
func (rup *reqUserProvider) dropDeferred(ctx context.Context) {
	rup.mu.Lock()
	msgID := rup.deferredMsgID
	rup.deferredMsgID = 0
	rup.mu.Unlock()
	if msgID == 0 {
		return
	}
	// Request, not Send: the API answers deleteMessage with a bool, not a Message.
	if _, err := rup.bot.Request(tgbotapi.NewDeleteMessage(rup.chatID(), msgID)); err != nil {
		logging.FromContextS(ctx).Warnf("Failed to delete message with id %v: %v", msgID, err)
	}
}

func (rup *reqUserProvider) sendText(ctx context.Context, text string) (messageID int, err error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(rup.chatID(), text)
	msg.ReplyToMessageID = rup.msg.MessageID

	logging.FromContextS(ctx).Infow("Sending message to user...",
		"text", msg.Text)

	sentMsg, err := rup.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message %q to chat_id=%d: %w", text, rup.chatID(), err)
	}
	return sentMsg.MessageID, nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context is done while sending message: %w", ctx.Err())
	default:
		return nil
	}
}
