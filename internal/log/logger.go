package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/On-Jun9/ShutterMeta/pkg/types"
	"github.com/rs/zerolog"
)

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	zl      zerolog.Logger
}

// New writes JSON lines when logJSON is set, text lines otherwise.
// An empty logFilePath logs to stderr.
func New(logFilePath string, logJSON bool) (*Logger, error) {
	var out io.Writer = os.Stderr
	var file *os.File

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		out = f
		file = f
	}

	if !logJSON {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}
	}

	return &Logger{
		console: os.Stderr,
		file:    file,
		zl:      zerolog.New(out).With().Timestamp().Logger(),
	}, nil
}

// Nop discards everything, console output included.
func Nop() *Logger {
	return &Logger{console: io.Discard, zl: zerolog.Nop()}
}

// SetLevel accepts debug, info, warn or error. Unknown levels mean info.
func (l *Logger) SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	l.zl = l.zl.Level(lvl)
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(msg string, fields map[string]string) {
	ev := l.zl.Debug()
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg(msg)
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

// Warn records a recoverable failure local to one file.
func (l *Logger) Warn(path, msg string, err error) {
	ev := l.zl.Warn().Str("path", path)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

func (l *Logger) Error(msg string, err error) {
	l.zl.Error().Err(err).Msg(msg)
}

// LogOperation records one boundary call.
func (l *Logger) LogOperation(op types.Op, path string, duration time.Duration, err error) {
	if err != nil {
		l.zl.Error().
			Str("op", string(op)).
			Str("path", path).
			Str("kind", string(types.KindOf(err))).
			Dur("duration", duration).
			Err(err).
			Msg(fmt.Sprintf("%s failed: %s", op, filepath.Base(path)))
		return
	}
	l.zl.Info().
		Str("op", string(op)).
		Str("path", path).
		Dur("duration", duration).
		Msg(fmt.Sprintf("%s: %s", op, filepath.Base(path)))
}

func (l *Logger) Summary(summary types.BatchSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, "\n=== ShutterMeta Summary ===")
	fmt.Fprintf(l.console, "Operation:      %s\n", summary.Op)
	fmt.Fprintf(l.console, "Total files:    %d\n", summary.Total)
	fmt.Fprintf(l.console, "Succeeded:      %d\n", summary.Succeeded)
	fmt.Fprintf(l.console, "Failed:         %d\n", summary.Failed)
	fmt.Fprintf(l.console, "Not found:      %d\n", summary.NotFound)
	fmt.Fprintf(l.console, "Duration:       %s\n", summary.Duration.Round(time.Millisecond))
	fmt.Fprintln(l.console, "===========================")
}

func (l *Logger) Progress(current, total int, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filename)
}
