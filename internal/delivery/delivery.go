package delivery

import (
	"context"
	"fmt"
	"os"

	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/logging"
)

const (
	VideoCaption       = "here is your video"
	MsgDownloadError   = "There was an error downloading the video."
	MsgUnexpectedError = "An unexpected error occurred."

	// DefaultMaxUploadSize is the Bot API limit for files sent by bots.
	DefaultMaxUploadSize = 50 * oneMB

	oneMB = 1048576
)

// Deliverer ships a download result to the requester.
type Deliverer struct {
	maxUploadSize int64
}

func New(maxUploadSize int64) *Deliverer {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Deliverer{maxUploadSize: maxUploadSize}
}

// Deliver sends the downloaded file, or a generic error message if the
// download failed. It returns the failure that was reported to the user, or
// nil if the file was delivered. Failure details only go to the log.
func (d *Deliverer) Deliver(ctx context.Context, rup app.ReqUserProvider, res app.DownloadResult) *app.Failure {
	f := res.Failure
	if f == nil {
		f = d.sendVideo(ctx, rup, res.FilePath)
	}
	if f != nil {
		Report(ctx, rup, f)
	}
	return f
}

func (d *Deliverer) sendVideo(ctx context.Context, rup app.ReqUserProvider, filePath string) *app.Failure {
	log := logging.FromContextS(ctx)
	st, err := os.Stat(filePath)
	if err != nil {
		return app.NewFailure(app.DeliveryFailed, "failed to stat downloaded file").WithCause(err)
	}
	if st.Size() > d.maxUploadSize {
		return app.NewFailure(app.DeliveryFailed, fmt.Sprintf("file is %.2fMB, upload limit is %.2fMB",
			bytesToMegabytes(st.Size()), bytesToMegabytes(d.maxUploadSize)))
	}
	log.Infof("Uploading video of %.2fMB...", bytesToMegabytes(st.Size()))
	if err := rup.FollowUpVideo(ctx, VideoCaption, filePath); err != nil {
		return app.NewFailure(app.DeliveryFailed, "failed to send video").WithCause(err)
	}
	log.Info("Video delivered!")
	return nil
}

// Report logs f and tells the user something went wrong without exposing f.Message,
// unless f is a validation rejection which is meant for the user.
func Report(ctx context.Context, rup app.ReqUserProvider, f *app.Failure) {
	log := logging.FromContextS(ctx)
	log.Errorw("Command failed",
		"failure_kind", f.Kind.String(),
		"failure", f.Error(),
	)
	if err := rup.FollowUp(ctx, UserMessage(f)); err != nil {
		log.Errorf("Failed to report error to user: %v", err)
	}
}

// UserMessage is the text shown to the requester for f.
func UserMessage(f *app.Failure) string {
	switch f.Kind {
	case app.ValidationRejected:
		return f.Message
	case app.DownloadFailed, app.OutputMissing:
		return MsgDownloadError
	default:
		return MsgUnexpectedError
	}
}

func bytesToMegabytes(bytes int64) float64 {
	return float64(bytes) / float64(oneMB)
}
