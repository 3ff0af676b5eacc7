// Package logging builds the process logger and the save-record sink.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// New returns a logger writing to out at the named level. Terminals get the
// colored console format, everything else gets one JSON object per line.
func New(level string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	w := out
	if isTerminal(out) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SaveLogger is a session.SaveSink that writes each save record as one
// structured info event. Nothing is persisted.
type SaveLogger struct {
	logger zerolog.Logger
}

// NewSaveLogger creates a SaveLogger writing through logger.
func NewSaveLogger(logger zerolog.Logger) *SaveLogger {
	return &SaveLogger{logger: logger}
}

// Record logs rec.
func (l *SaveLogger) Record(ctx context.Context, rec session.SaveRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	centers := zerolog.Dict()
	for label, p := range rec.Centers {
		centers.Dict(label, zerolog.Dict().Float64("x", p.X).Float64("y", p.Y))
	}
	l.logger.Info().
		Str("session", rec.SessionID).
		Int("image_index", rec.ImageIndex).
		Str("image", rec.ImageRef).
		Int("markers", len(rec.Centers)).
		Dict("centers", centers).
		Time("saved_at", rec.At).
		Msg("keypoints saved")
	return nil
}
