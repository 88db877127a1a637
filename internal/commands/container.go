package commands

import (
	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/commands/add"
	"github.com/miikaoskari/dc-bot/internal/commands/video"
	"github.com/miikaoskari/dc-bot/internal/delivery"
)

// Container is DI-container of app
type Container struct {
	commands []app.Command
	byName   map[string]app.Command
}

func NewContainer(downloadService app.DownloadService, deliverer *delivery.Deliverer, downloadDir string) *Container {
	return newContainer(
		video.New(downloadService, deliverer, downloadDir),
		add.New(),
	)
}

func newContainer(cmds ...app.Command) *Container {
	c := &Container{
		commands: cmds,
		byName:   make(map[string]app.Command, len(cmds)),
	}
	for _, cmd := range cmds {
		c.byName[cmd.Name()] = cmd
	}
	return c
}

// Commands returns the registered commands in registration order.
func (c *Container) Commands() []app.Command {
	return c.commands
}

func (c *Container) Find(name string) (app.Command, bool) {
	cmd, ok := c.byName[name]
	return cmd, ok
}
