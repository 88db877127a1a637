package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/miikaoskari/dc-bot/internal/commands"
)

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type MsgProcessor struct {
	apiKey    string
	debugMode bool

	bot       *tgbotapi.BotAPI
	container *commands.Container

	updates          tgbotapi.UpdatesChannel
	cancelDispatcher func()
	listenerDone     chan struct{}
	inFlight         sync.WaitGroup

	muLocker     sync.Mutex
	lockByUserID map[int64]*sync.Mutex
}

func NewMsgProcessor(apiKey string, debugMode bool, container *commands.Container) *MsgProcessor {
	return &MsgProcessor{
		apiKey:       apiKey,
		debugMode:    debugMode,
		container:    container,
		lockByUserID: make(map[int64]*sync.Mutex),
	}
}

func (p *MsgProcessor) connect() (err error) {
	if p.bot != nil {
		return nil
	}
	if p.apiKey == "" {
		return errors.New("bot api key is not specified")
	}
	p.bot, err = tgbotapi.NewBotAPI(p.apiKey)
	if err != nil {
		return fmt.Errorf("can't create bot api: %w", err)
	}
	p.bot.Debug = p.debugMode
	return nil
}

// Shutdown stops receiving updates and waits for commands in progress,
// so their downloads are delivered and cleaned up, until ctx is done.
func (p *MsgProcessor) Shutdown(ctx context.Context) error {
	if p.bot != nil {
		p.bot.StopReceivingUpdates()
	}
	if p.cancelDispatcher != nil {
		p.cancelDispatcher()
	}
	// No inFlight.Add may happen after Wait starts.
	if p.listenerDone != nil {
		select {
		case <-p.listenerDone:
		case <-ctx.Done():
			return fmt.Errorf("update listener still running: %w", ctx.Err())
		}
	}
	done := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("commands still in progress: %w", ctx.Err())
	}
}

func (p *MsgProcessor) userLock(userID int64) *sync.Mutex {
	p.muLocker.Lock()
	defer p.muLocker.Unlock()
	mu, ok := p.lockByUserID[userID]
	if !ok {
		mu = new(sync.Mutex)
		p.lockByUserID[userID] = mu
	}
	return mu
}
