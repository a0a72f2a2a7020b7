package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the supervisor's own operational log. Supervised
// services write to their plain append-mode log files; this config only
// governs where the supervisor itself logs and how that file rotates.
type Config struct {
	Dir        string `toml:"dir" mapstructure:"dir"`   // base directory, file becomes Dir/<name>.log
	Path       string `toml:"path" mapstructure:"path"` // explicit path overrides Dir
	Level      string `toml:"level" mapstructure:"level"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Writer returns a rotating io.WriteCloser for the configured
// destination, or nil when no destination is configured.
func (c Config) Writer(name string) io.WriteCloser {
	path := c.Path
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, name+".log")
	}
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// New builds a slog.Logger for the supervisor. With a file destination
// configured it writes rotated text lines there; otherwise it writes
// colorized lines to stderr for interactive use.
func (c Config) New(name string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.slogLevel()}
	if w := c.Writer(name); w != nil {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(NewColorHandler(os.Stderr, opts))
}

func (c Config) slogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
