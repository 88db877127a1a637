package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/miikaoskari/dc-bot/internal/app"
	"github.com/miikaoskari/dc-bot/internal/logging"
)

const (
	DefaultBinary  = "yt-dlp"
	DefaultFormat  = "best[ext=mp4]/best"
	DefaultTimeout = 5 * time.Minute

	// waitDelay bounds how long Wait keeps reading the pipes after the
	// downloader was killed, for children that escaped its process group.
	waitDelay = 10 * time.Second
)

type Config struct {
	// Binary is the downloader executable name or path.
	Binary string
	// Format is passed as -f. Empty means the downloader's own default.
	Format string
	// MaxFileSize in bytes is passed as --max-filesize. Zero disables the limit.
	MaxFileSize int64
	// Timeout kills the downloader if it runs longer. Zero disables it.
	Timeout time.Duration
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Service runs the external downloader as a child process, one per request.
type Service struct {
	cfg     Config
	command commandFunc
}

func New(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	return &Service{
		cfg:     cfg,
		command: exec.CommandContext,
	}
}

// Download blocks until the downloader exits and maps its outcome to a result.
// A zero exit status is only a success if the output file really exists.
func (s *Service) Download(ctx context.Context, req app.DownloadRequest) app.DownloadResult {
	ctx, log := logging.NewContextSL(ctx,
		"source_url", req.SourceURL,
		"output_path", req.OutputPath,
	)
	if s.cfg.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := s.command(ctx, s.cfg.Binary, s.args(req)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	killProcessGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay

	startT := time.Now()
	log.Infof("Starting %s...", s.cfg.Binary)
	err := cmd.Run()
	log.Infof("%s finished in %v", s.cfg.Binary, time.Since(startT).Round(time.Millisecond))
	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.Debugw("Downloader stdout", "stdout", out)
	}
	errOut := strings.TrimSpace(stderr.String())

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return app.DownloadFailedWith(app.
				NewFailure(app.DownloadFailed, fmt.Sprintf("%s was killed after timeout of %v", s.cfg.Binary, s.cfg.Timeout)).
				WithCause(err))
		}
		msg := errOut
		if msg == "" {
			msg = fmt.Sprintf("failed to run %s", s.cfg.Binary)
		}
		return app.DownloadFailedWith(app.NewFailure(app.DownloadFailed, msg).WithCause(err))
	}
	if errOut != "" {
		log.Warnw("Downloader exited successfully but wrote to stderr", "stderr", errOut)
	}

	st, err := os.Stat(req.OutputPath)
	if err != nil {
		return app.DownloadFailedWith(app.
			NewFailure(app.OutputMissing, fmt.Sprintf("%s exited with 0 but there is no file at %q", s.cfg.Binary, req.OutputPath)).
			WithCause(err))
	}
	if st.IsDir() {
		return app.DownloadFailedWith(app.NewFailure(app.OutputMissing, fmt.Sprintf("%q is a directory", req.OutputPath)))
	}
	log.Infof("Downloaded %d bytes", st.Size())
	return app.DownloadSucceeded(req.OutputPath)
}

func (s *Service) args(req app.DownloadRequest) []string {
	args := []string{"--no-playlist", "--playlist-items", "1", "--no-progress"}
	if s.cfg.MaxFileSize > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(s.cfg.MaxFileSize, 10))
	}
	if s.cfg.Format != "" {
		args = append(args, "-f", s.cfg.Format)
	}
	// "--" keeps a link from ever being read as an option.
	return append(args, "-o", req.OutputPath, "--", req.SourceURL)
}
