// Package logging configures the global zerolog logger from the application
// configuration.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/config"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ParseLevel maps a level name onto a zerolog level; unknown names give info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Writer builds the log sink: stdout in the configured format plus, when a file
// path is set, a size-rotated JSON file. APP_ENV=production forces JSON on stdout.
// The returned closer releases the file and is a no-op without one.
func Writer(cfg config.LoggingConfig, stdout io.Writer) (io.Writer, io.Closer) {
	format := cfg.Format
	if os.Getenv("APP_ENV") == "production" {
		format = FormatJSON
	}

	var console io.Writer = stdout
	if format != FormatJSON {
		console = zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: time.RFC3339,
		}
	}

	if cfg.File.Path == "" {
		return console, nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File.Path,
		MaxSize:    cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAge:     cfg.File.MaxAgeDays,
		Compress:   cfg.File.Compress,
	}
	return zerolog.MultiLevelWriter(console, file), file
}

// Setup installs the global logger and level. Call the returned closer on exit.
func Setup(cfg config.LoggingConfig) io.Closer {
	w, closer := Writer(cfg, os.Stdout)
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer
}

// SetLevel changes the global level, e.g. after a config reload.
func SetLevel(level string) {
	l := ParseLevel(level)
	if zerolog.GlobalLevel() != l {
		zerolog.SetGlobalLevel(l)
		log.Info().Str("level", l.String()).Msg("Log level changed")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
