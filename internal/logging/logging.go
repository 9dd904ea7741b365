// Package logging builds the engine's zerolog logger and manages run log files.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"engage-engine/internal/domain"
)

// New returns a timestamped logger at level. An unknown level means info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Console wraps f in a ConsoleWriter when pretty is set or f is a terminal.
func Console(f *os.File, pretty bool) io.Writer {
	if pretty || isatty.IsTerminal(f.Fd()) {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: "15:04:05"}
	}
	return f
}

// FileName is the log file for a run starting at now. Normal runs get one
// file each; instant runs share a file per day.
func FileName(now time.Time, instant bool) string {
	now = domain.ToJST(now)
	if instant {
		return now.Format("20060102") + ".log"
	}
	return now.Format("20060102_150405") + ".log"
}

// OpenFile creates dir and opens the run's log file for appending.
func OpenFile(dir string, now time.Time, instant bool) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName(now, instant))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Cleanup deletes *.log files in dir not named for today's JST date and
// returns the names it removed.
func Cleanup(dir string, now time.Time) ([]string, error) {
	today := domain.ToJST(now).Format("20060102")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".log" || strings.HasPrefix(name, today) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Options configure a run logger.
type Options struct {
	Dir     string
	Instant bool
	Level   string
	Pretty  bool
	Stdout  *os.File
	Now     time.Time
}

// Setup prunes old logs and returns a logger writing to stdout and the run's
// file. The closer flushes the file.
func Setup(o Options) (zerolog.Logger, io.Closer, error) {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	removed, err := Cleanup(o.Dir, o.Now)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("clean log dir: %w", err)
	}
	f, err := OpenFile(o.Dir, o.Now, o.Instant)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	log := New(zerolog.MultiLevelWriter(Console(o.Stdout, o.Pretty), f), o.Level)
	if len(removed) > 0 {
		log.Debug().Strs("files", removed).Msg("removed old log files")
	}
	return log, f, nil
}
