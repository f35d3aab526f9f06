// File: facade/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-async/api"
)

// newLogger builds the runtime logger. An empty level means info.
func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), fmt.Errorf("log_level %q: %w", level, api.ErrInvalidArgument)
		}
	}
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
