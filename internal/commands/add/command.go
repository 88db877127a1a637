package add

import (
	"context"

	"github.com/miikaoskari/dc-bot/internal/app"
)

const Name = "add"

type Command struct{}

func New() *Command {
	return &Command{}
}

func (c *Command) Name() string        { return Name }
func (c *Command) Description() string { return "add value to user" }

func (c *Command) Execute(ctx context.Context, rup app.ReqUserProvider, args string) error {
	return rup.Reply(ctx, "value added")
}
