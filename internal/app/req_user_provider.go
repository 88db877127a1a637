package app

import (
	"context"
)

// ReqUserProvider is the chat platform side of one incoming command.
type ReqUserProvider interface {
	// Reply answers the command immediately. Must not be mixed with DeferReply.
	Reply(ctx context.Context, text string) error
	// DeferReply tells the user the command is being processed. It has to be
	// sent before any long-running work.
	DeferReply(ctx context.Context) error
	// FollowUp sends a text message after DeferReply.
	FollowUp(ctx context.Context, text string) error
	// FollowUpVideo sends the file at filePath as a video after DeferReply.
	FollowUpVideo(ctx context.Context, caption, filePath string) error
}

// Command is a bot command the user can call as /<Name> <args>.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, rup ReqUserProvider, args string) error
}
