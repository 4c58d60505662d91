package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Host           string `env:"HOST,required=true"`
	Port           int    `env:"PORT,required=true"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	JWTSecret      string `env:"JWT_SECRET,required=true"`

	BufferSize           int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,required=true"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,required=true"`

	ReaperCron         string `env:"REAPER_CRON"`
	LimitNotifications *int   `env:"LIMIT_NOTIFICATIONS"`
}

// DefaultReaperCron sweeps once an hour.
const DefaultReaperCron = "0 * * * *"

func (c Config) ReaperSchedule() string {
	if c.ReaperCron == "" {
		return DefaultReaperCron
	}
	return c.ReaperCron
}

// LoggerFromLevel builds the process logger from the configured level.
func LoggerFromLevel(level string) (*slog.Logger, error) {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "INFO":
		l = slog.LevelInfo
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})), nil
}
