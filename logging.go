package filo

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ConfigureLogging installs a colored slog handler on stderr
// as the default logger. Colors are disabled when stderr
// is not a terminal.
func ConfigureLogging(level slog.Level) {
	isTerm := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	handler := tint.NewHandler(colorable.NewColorableStderr(), &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerm,
	})

	slog.SetDefault(slog.New(handler))
}
