package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/miikaoskari/dc-bot/internal/downloader"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "DCBOT"

	keyMode                = "MODE"
	keyLogFilePath         = "LOG_FILE_PATH"
	keyTelegramAPIKey      = "TELEGRAM_API_KEY"
	keyLongPollingTimeout  = "TELEGRAM_LONG_POLLING_TIMEOUT"
	keyDownloaderBinary    = "DOWNLOADER_BINARY"
	keyDownloadFormat      = "DOWNLOAD_FORMAT"
	keyDownloadDir         = "DOWNLOAD_DIR"
	keyDownloadTimeout     = "DOWNLOAD_TIMEOUT"
	keyMaxDownloadSizeMB   = "MAX_DOWNLOAD_SIZE_MB"
	keyUploadMaxFileSizeMB = "UPLOAD_MAX_FILE_SIZE_MB"

	oneMB = 1048576
)

// DefaultPaths are searched for config.env in this order.
var DefaultPaths = []string{"/etc/dcbot", "./configs", "."}

var ErrNoAPIKey = errors.New("TELEGRAM_API_KEY can't be empty")

type Config struct {
	Mode        string
	LogFilePath string

	TelegramAPIKey     string
	LongPollingTimeout int

	DownloaderBinary    string
	DownloadFormat      string
	DownloadDir         string
	DownloadTimeout     time.Duration
	MaxDownloadSizeMB   int64
	UploadMaxFileSizeMB int64

	// UsedFile is the config file that was read, empty if only env was used.
	UsedFile string
}

// New returns a viper instance reading config.env from paths and DCBOT_* env vars.
func New(paths ...string) *viper.Viper {
	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault(keyLongPollingTimeout, 60)
	v.SetDefault(keyDownloaderBinary, downloader.DefaultBinary)
	v.SetDefault(keyDownloadFormat, downloader.DefaultFormat)
	v.SetDefault(keyDownloadDir, filepath.Join(os.TempDir(), "dcbot"))
	v.SetDefault(keyDownloadTimeout, downloader.DefaultTimeout)
	v.SetDefault(keyMaxDownloadSizeMB, 50)
	v.SetDefault(keyUploadMaxFileSizeMB, 50)
	return v
}

// Load reads the config file if there is one. A missing file is not an error:
// environment variables are used alone then.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config (used file: %q): %w", v.ConfigFileUsed(), err)
		}
	}
	cfg := Config{
		Mode:                v.GetString(keyMode),
		LogFilePath:         v.GetString(keyLogFilePath),
		TelegramAPIKey:      v.GetString(keyTelegramAPIKey),
		LongPollingTimeout:  v.GetInt(keyLongPollingTimeout),
		DownloaderBinary:    v.GetString(keyDownloaderBinary),
		DownloadFormat:      v.GetString(keyDownloadFormat),
		DownloadDir:         v.GetString(keyDownloadDir),
		DownloadTimeout:     v.GetDuration(keyDownloadTimeout),
		MaxDownloadSizeMB:   v.GetInt64(keyMaxDownloadSizeMB),
		UploadMaxFileSizeMB: v.GetInt64(keyUploadMaxFileSizeMB),
		UsedFile:            v.ConfigFileUsed(),
	}
	if cfg.MaxDownloadSizeMB < 0 || cfg.UploadMaxFileSizeMB < 0 {
		return Config{}, fmt.Errorf("%s and %s can't be negative", keyMaxDownloadSizeMB, keyUploadMaxFileSizeMB)
	}
	return cfg, nil
}

func (c Config) RequireAPIKey() error {
	if c.TelegramAPIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

func (c Config) MaxDownloadSize() int64 {
	return c.MaxDownloadSizeMB * oneMB
}

func (c Config) UploadMaxFileSize() int64 {
	return c.UploadMaxFileSizeMB * oneMB
}

func (c Config) DownloaderConfig() downloader.Config {
	return downloader.Config{
		Binary:      c.DownloaderBinary,
		Format:      c.DownloadFormat,
		MaxFileSize: c.MaxDownloadSize(),
		Timeout:     c.DownloadTimeout,
	}
}
