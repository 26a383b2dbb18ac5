package log

import (
	"io"
	"os"

	"github.com/luminaworld/lumina-go-node/config"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/cli/flags"
	"github.com/tendermint/tendermint/libs/log"
)

// NewLogger builds the node logger from config: plain or json format,
// stdout or a file destination, module log levels parsed from the
// level string.
func NewLogger(cfg *config.Config) (log.Logger, error) {
	var dest io.Writer = os.Stdout

	if cfg.LogPath != "stdout" {
		file, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, errors.Wrap(err, "cannot open log file")
		}
		dest = file
	}

	var logger log.Logger
	switch cfg.LogFormat {
	case config.LogFormatJSON:
		logger = log.NewTMJSONLogger(log.NewSyncWriter(dest))
	case config.LogFormatPlain:
		logger = log.NewTMLogger(log.NewSyncWriter(dest))
	default:
		return nil, errors.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return flags.ParseLogLevel(cfg.LogLevel, logger, "info")
}
