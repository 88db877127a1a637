package telegram

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/commands"
	"github.com/miikaoskari/dc-bot/internal/delivery"
	"github.com/miikaoskari/dc-bot/internal/downloader"
)

type fakeBot struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	nextMsgID int
	sendErr   error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	b.sent = append(b.sent, c)
	b.nextMsgID++
	return tgbotapi.Message{MessageID: b.nextMsgID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requested = append(b.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func commandMessage(text string, cmdLen int) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 7,
		Text:      text,
		From:      &tgbotapi.User{ID: 1, UserName: "alice"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func TestCommandFromMessage(t *testing.T) {
	type args struct {
		msg *tgbotapi.Message
	}
	tests := []struct {
		name     string
		args     args
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{
			name:     "should_extract_command_and_url",
			args:     args{msg: commandMessage("/video https://vm.tiktok.com/ZMabc123/", 6)},
			wantName: "video",
			wantArgs: "https://vm.tiktok.com/ZMabc123/",
			wantOK:   true,
		},
		{
			name:     "should_accept_own_bot_mention",
			args:     args{msg: commandMessage("/video@dc_bot  https://reddit.com/r/x ", 13)},
			wantName: "video",
			wantArgs: "https://reddit.com/r/x",
			wantOK:   true,
		},
		{
			name:   "should_skip_other_bot_mention",
			args:   args{msg: commandMessage("/video@other_bot https://reddit.com/r/x", 16)},
			wantOK: false,
		},
		{
			name:     "should_handle_command_without_args",
			args:     args{msg: commandMessage("/add", 4)},
			wantName: "add",
			wantOK:   true,
		},
		{
			name: "should_skip_plain_text",
			args: args{msg: &tgbotapi.Message{Text: "https://reddit.com/r/x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotArgs, gotOK := commandFromMessage(tt.args.msg, "dc_bot")
			if gotOK != tt.wantOK || gotName != tt.wantName || gotArgs != tt.wantArgs {
				t.Errorf("commandFromMessage() = (%q, %q, %v), want (%q, %q, %v)",
					gotName, gotArgs, gotOK, tt.wantName, tt.wantArgs, tt.wantOK)
			}
		})
	}
}

func TestReqUserProvider_deferredFlow(t *testing.T) {
	ctx := context.Background()
	bot := &fakeBot{}
	rup := NewReqUserProvider(bot, commandMessage("/video x", 6))

	if err := rup.DeferReply(ctx); err != nil {
		t.Fatalf("DeferReply() error = %v", err)
	}
	if err := rup.FollowUpVideo(ctx, "here is your video", "/tmp/a.mp4"); err != nil {
		t.Fatalf("FollowUpVideo() error = %v", err)
	}

	if len(bot.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(bot.sent))
	}
	ack, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok || ack.Text != deferredText || ack.ReplyToMessageID != 7 || ack.ChatID != 42 {
		t.Errorf("ack = %+v", bot.sent[0])
	}
	video, ok := bot.sent[1].(tgbotapi.VideoConfig)
	if !ok {
		t.Fatalf("second message is %T, want VideoConfig", bot.sent[1])
	}
	if video.Caption != "here is your video" || video.File != tgbotapi.FilePath("/tmp/a.mp4") {
		t.Errorf("video = %+v", video)
	}

	if len(bot.requested) != 2 {
		t.Fatalf("requested %d, want chat action and delete", len(bot.requested))
	}
	if action, ok := bot.requested[0].(tgbotapi.ChatActionConfig); !ok || action.Action != tgbotapi.ChatUploadVideo {
		t.Errorf("first request = %+v", bot.requested[0])
	}
	if del, ok := bot.requested[1].(tgbotapi.DeleteMessageConfig); !ok || del.MessageID != 1 {
		t.Errorf("second request = %+v", bot.requested[1])
	}
}

func TestReqUserProvider_FollowUpWithoutDefer(t *testing.T) {
	bot := &fakeBot{}
	rup := NewReqUserProvider(bot, commandMessage("/video x", 6))
	if err := rup.FollowUp(context.Background(), "oops"); err != nil {
		t.Fatal(err)
	}
	if len(bot.requested) != 0 {
		t.Errorf("nothing to delete, got requests %v", bot.requested)
	}
}

func TestReqUserProvider_errors(t *testing.T) {
	bot := &fakeBot{sendErr: errors.New("Forbidden: bot was blocked by the user")}
	rup := NewReqUserProvider(bot, commandMessage("/video x", 6))
	if err := rup.DeferReply(context.Background()); err == nil {
		t.Error("DeferReply() error = nil")
	}
	if err := rup.FollowUpVideo(context.Background(), "c", "/tmp/a.mp4"); err == nil {
		t.Error("FollowUpVideo() error = nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewReqUserProvider(&fakeBot{}, commandMessage("/add", 4)).Reply(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Reply() on done context error = %v", err)
	}
}

type stubCommand struct {
	name string
	err  error
	args string
}

func (c *stubCommand) Name() string        { return c.name }
func (c *stubCommand) Description() string { return c.name + " description" }

func (c *stubCommand) Execute(ctx context.Context, rup app.ReqUserProvider, args string) error {
	c.args = args
	return c.err
}

func TestDeployCommands(t *testing.T) {
	bot := &fakeBot{}
	cmds := []app.Command{&stubCommand{name: "video"}, &stubCommand{name: "add"}}
	if err := deployCommands(context.Background(), bot, cmds); err != nil {
		t.Fatalf("deployCommands() error = %v", err)
	}
	if len(bot.requested) != 2 {
		t.Fatalf("requested %d, want 2", len(bot.requested))
	}
	if _, ok := bot.requested[0].(tgbotapi.DeleteMyCommandsConfig); !ok {
		t.Errorf("first request is %T, want DeleteMyCommandsConfig", bot.requested[0])
	}
	set, ok := bot.requested[1].(tgbotapi.SetMyCommandsConfig)
	if !ok {
		t.Fatalf("second request is %T, want SetMyCommandsConfig", bot.requested[1])
	}
	want := []tgbotapi.BotCommand{
		{Command: "video", Description: "video description"},
		{Command: "add", Description: "add description"},
	}
	if !reflect.DeepEqual(set.Commands, want) {
		t.Errorf("commands = %+v, want %+v", set.Commands, want)
	}
}

func TestMsgProcessor_handleCommand(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		wantReply string
	}{
		{
			name:      "should_reply_rejection_for_unsupported_link",
			command:   "video",
			wantReply: "only reddit, tiktok and youtube links are supported",
		},
		{
			name:      "should_reply_unknown_command",
			command:   "play",
			wantReply: "Unknown command. Available commands: /video, /add",
		},
		{
			name:      "should_run_add",
			command:   "add",
			wantReply: "value added",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container := commands.NewContainer(downloader.New(downloader.Config{}), delivery.New(0), t.TempDir())
			p := NewMsgProcessor("", false, container)
			bot := &fakeBot{}
			msg := commandMessage("/"+tt.command+" https://example.com/foo", len(tt.command)+1)

			p.handleCommand(context.Background(), NewReqUserProvider(bot, msg), msg, tt.command, "https://example.com/foo")

			if len(bot.sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(bot.sent))
			}
			if got := bot.sent[0].(tgbotapi.MessageConfig).Text; got != tt.wantReply {
				t.Errorf("reply = %q, want %q", got, tt.wantReply)
			}
		})
	}
}

func TestMsgProcessor_Shutdown_waitsForListener(t *testing.T) {
	container := commands.NewContainer(downloader.New(downloader.Config{}), delivery.New(0), t.TempDir())
	p := NewMsgProcessor("", false, container)
	updates := make(chan tgbotapi.Update)
	p.updates = updates
	p.startDispatcher()

	// An update without a message is skipped; receiving it proves the listener is running.
	updates <- tgbotapi.Update{UpdateID: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case <-p.listenerDone:
	default:
		t.Fatal("Shutdown() returned before the update listener stopped")
	}
}
