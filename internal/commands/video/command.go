package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/delivery"
	"github.com/miikaoskari/dc-bot/internal/logging"
	"github.com/miikaoskari/dc-bot/internal/media"
	"github.com/miikaoskari/dc-bot/internal/workspace"
)

const (
	Name        = "video"
	description = "send link to video and send content to channel"
)

type State int

const (
	StateValidating = State(iota)
	StateDownloading
	StateDelivering
	StateCleaningUp
	StateDone
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateDownloading:
		return "downloading"
	case StateDelivering:
		return "delivering"
	case StateCleaningUp:
		return "cleaning_up"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Outcome int

const (
	OutcomeSuccess = Outcome(iota)
	OutcomeRejected
	OutcomeErrorReported
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeErrorReported:
		return "error_reported"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

const stateChangedMsg = "Video command state changed"

type Command struct {
	downloadService app.DownloadService
	deliverer       *delivery.Deliverer
	downloadDir     string
	newID           func() string
}

func New(downloadService app.DownloadService, deliverer *delivery.Deliverer, downloadDir string) *Command {
	return &Command{
		downloadService: downloadService,
		deliverer:       deliverer,
		downloadDir:     downloadDir,
		newID:           uuid.NewString,
	}
}

func (c *Command) Name() string        { return Name }
func (c *Command) Description() string { return description }

func (c *Command) Execute(ctx context.Context, rup app.ReqUserProvider, args string) error {
	_, err := c.Run(ctx, rup, args)
	return err
}

// Run handles one /video invocation. A rejected link is returned as
// *app.UserError before anything is sent to the user. Every other failure is
// reported to the user by Run itself and the returned error is nil. Once a
// workspace exists it is cleaned up on every path, panics included.
func (c *Command) Run(ctx context.Context, rup app.ReqUserProvider, rawURL string) (outcome Outcome, err error) {
	rawURL = strings.TrimSpace(rawURL)
	ctx, log := logging.NewContextSL(ctx, "command", Name)

	enter(ctx, StateValidating)
	provider, ok := media.Match(rawURL)
	if !ok {
		finish(ctx, OutcomeRejected)
		return OutcomeRejected, app.
			NewUserError(unsupportedLinkMessage()).
			WithCause(app.NewFailure(app.ValidationRejected, fmt.Sprintf("unsupported link %q", rawURL)))
	}
	ctx, log = logging.NewContextSL(ctx, "provider", provider.Name)

	if err := rup.DeferReply(ctx); err != nil {
		finish(ctx, OutcomeErrorReported)
		return OutcomeErrorReported, fmt.Errorf("failed to defer reply: %w", err)
	}
	// Once acknowledged, the download runs to completion and is always
	// delivered and cleaned up, whatever happens to the request context.
	ctx = logging.CopyContext(ctx, context.Background())

	ws, err := workspace.New(c.downloadDir, c.newID())
	if err != nil {
		delivery.Report(ctx, rup, app.NewFailure(app.DownloadFailed, "failed to prepare workspace").WithCause(err))
		finish(ctx, OutcomeErrorReported)
		return OutcomeErrorReported, nil
	}
	ctx, log = logging.NewContextSL(ctx, "workspace_id", ws.ID)

	state := StateDownloading
	defer func() {
		if r := recover(); r != nil {
			log.With("recovered_obj", r, "state", state.String()).Error("!!! A PANIC occurred while handling video command !!!")
			delivery.Report(ctx, rup, app.NewFailure(panicFailureKind(state), fmt.Sprintf("panic: %v", r)))
			outcome, err = OutcomeErrorReported, nil
		}
		enter(ctx, StateCleaningUp)
		ws.Cleanup(ctx)
		finish(ctx, outcome)
	}()

	enter(ctx, state)
	res := c.downloadService.Download(ctx, app.DownloadRequest{
		SourceURL:  rawURL,
		OutputPath: ws.OutputPath,
	})

	state = StateDelivering
	enter(ctx, state)
	if f := c.deliverer.Deliver(ctx, rup, res); f != nil {
		return OutcomeErrorReported, nil
	}
	return OutcomeSuccess, nil
}

func panicFailureKind(s State) app.FailureKind {
	if s == StateDownloading {
		return app.DownloadFailed
	}
	return app.DeliveryFailed
}

func enter(ctx context.Context, s State) {
	logging.FromContextS(ctx).Debugw(stateChangedMsg, "state", s.String())
}

func finish(ctx context.Context, o Outcome) {
	logging.FromContextS(ctx).Infow(stateChangedMsg,
		"state", StateDone.String(),
		"outcome", o.String(),
	)
}

func unsupportedLinkMessage() string {
	names := media.SupportedNames()
	if len(names) == 1 {
		return fmt.Sprintf("only %s links are supported", names[0])
	}
	last := len(names) - 1
	return fmt.Sprintf("only %s and %s links are supported", strings.Join(names[:last], ", "), names[last])
}
