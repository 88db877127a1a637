package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/miikaoskari/dc-bot/internal/commands"
	"github.com/miikaoskari/dc-bot/internal/config"
	"github.com/miikaoskari/dc-bot/internal/delivery"
	"github.com/miikaoskari/dc-bot/internal/downloader"
	"github.com/miikaoskari/dc-bot/internal/logging"
	"github.com/miikaoskari/dc-bot/internal/telegram"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const minShutdownTimeout = time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPaths []string

	serve := func(cmd *cobra.Command, args []string) error {
		return runServe(configPaths)
	}
	root := &cobra.Command{
		Use:          "dcbot",
		Short:        "Chat bot that downloads videos from supported links and sends them back",
		SilenceUsage: true,
		RunE:         serve,
	}
	root.PersistentFlags().StringSliceVar(&configPaths, "config-path", config.DefaultPaths, "directories searched for config.env")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot with long polling (default)",
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "deploy-commands",
			Short: "Delete all registered bot commands and register the current ones",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDeploy(configPaths)
			},
		},
	)
	return root
}

type bot struct {
	cfg     config.Config
	logger  *zap.Logger
	msgProc *telegram.MsgProcessor
}

func bootstrap(configPaths []string) (*bot, error) {
	cfg, err := config.Load(config.New(configPaths...))
	if err != nil {
		return nil, err
	}
	logger, err := logging.Build(cfg.Mode, cfg.LogFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	logging.SetLogger(logger)
	log := logger.Sugar()

	if cfg.UsedFile != "" {
		log.Infof("Used config file path: %v", cfg.UsedFile)
	} else {
		log.Info("No config file found. Environment variables are used as config.")
	}
	if cfg.LogFilePath == "" {
		log.Warn("No LOG_FILE_PATH specified! Using 'stderr' only.")
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	debugMode := cfg.Mode != logging.ModeProduction
	container := commands.NewContainer(
		downloader.New(cfg.DownloaderConfig()),
		delivery.New(cfg.UploadMaxFileSize()),
		cfg.DownloadDir,
	)
	return &bot{
		cfg:     cfg,
		logger:  logger,
		msgProc: telegram.NewMsgProcessor(cfg.TelegramAPIKey, debugMode, container),
	}, nil
}

func runServe(configPaths []string) error {
	b, err := bootstrap(configPaths)
	if err != nil {
		return err
	}
	log := b.logger.Sugar()
	defer log.Sync()

	log.Infof("[DC-BOT] Application is running. Environment mode=%q", b.cfg.Mode)

	if b.cfg.DownloadTimeout == 0 {
		log.Warn("DOWNLOAD_TIMEOUT is zero! Downloads are not time limited.")
	}
	if _, err := exec.LookPath(b.cfg.DownloaderBinary); err != nil {
		log.Warnf("Downloader %q is not found: %v", b.cfg.DownloaderBinary, err)
	}
	if err := os.MkdirAll(b.cfg.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir %q: %w", b.cfg.DownloadDir, err)
	}

	if err := b.msgProc.StartLongPolling(b.cfg.LongPollingTimeout); err != nil {
		return fmt.Errorf("failed to start long polling listener: %w", err)
	}
	log.Info("Long polling started. Bot is ready!")

	sigInt := make(chan os.Signal, 1)
	signal.Notify(sigInt, os.Interrupt, syscall.SIGTERM)
	shutSig := <-sigInt
	log.Infof("Signal received: %v. Shutdown server...", shutSig)

	shutdownTimeout := b.cfg.DownloadTimeout + minShutdownTimeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.msgProc.Shutdown(ctx); err != nil {
		log.Errorf("Shutdown is not graceful: %v", err)
	}
	log.Info("Shutdown work is over. Bye :-)")
	return nil
}

func runDeploy(configPaths []string) error {
	b, err := bootstrap(configPaths)
	if err != nil {
		return err
	}
	defer b.logger.Sync()

	ctx := logging.WithLogger(context.Background(), b.logger)
	if err := b.msgProc.DeployCommands(ctx); err != nil {
		b.logger.Sugar().Errorf("Failed to deploy commands: %v", err)
		return err
	}
	return nil
}
