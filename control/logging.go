// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured JSON logger construction.

package control

import (
	"io"
	"os"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/momentics/hioload-loop/api"
	"github.com/ygrebnov/errorc"
)

var levels = map[string]logiface.Level{
	"disabled": logiface.LevelDisabled,
	"off":      logiface.LevelDisabled,
	"err":      logiface.LevelError,
	"error":    logiface.LevelError,
	"warning":  logiface.LevelWarning,
	"warn":     logiface.LevelWarning,
	"notice":   logiface.LevelNotice,
	"info":     logiface.LevelInformational,
	"debug":    logiface.LevelDebug,
	"trace":    logiface.LevelTrace,
}

// ParseLevel maps a level name to a logiface level.
func ParseLevel(name string) (logiface.Level, error) {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl, nil
	}
	return logiface.LevelDisabled, errorc.With(api.ErrInvalidConfiguration, errorc.String("log_level", name))
}

// NewLogger builds a JSON logger writing to w, stderr when w is nil.
func NewLogger(level string, w io.Writer) (*logiface.Logger[logiface.Event], error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(lvl),
	).Logger(), nil
}
