package cmd

import (
	"context"
	"fmt"

	"github.com/nguyengg/zipsten"
	"github.com/nguyengg/zipsten/internal/config"
	"github.com/nguyengg/zipsten/stego"
)

// ModeOptions are the flags shared by every command that needs a mode.
type ModeOptions struct {
	Extra bool   `short:"e" long:"extra" description:"use the extra field of the first entry instead of the bytes before the central directory; shorthand for --mode=extra"`
	Mode  string `short:"m" long:"mode" description:"where the data is hidden; takes precedence over .zipsten setting" choice:"trailer" choice:"extra"`
	Lock  bool   `long:"lock" description:"hold an advisory lock on <archive>.lock while the archive is modified"`
}

// resolve loads .zipsten then returns the mode and the driver options it implies.
func (m ModeOptions) resolve(ctx context.Context) (mode stego.Mode, optFns []func(*zipsten.Options), err error) {
	if _, err = config.Load(ctx); err != nil {
		return mode, nil, fmt.Errorf("load config error: %w", err)
	}

	settings, err := config.DefaultLoader.Settings()
	if err != nil {
		return mode, nil, fmt.Errorf("load config error: %w", err)
	}

	switch mode = settings.Mode; {
	case m.Extra:
		mode = stego.Extra
	case m.Mode != "":
		if mode, err = stego.ParseMode(m.Mode); err != nil {
			return mode, nil, err
		}
	}

	optFns = append(optFns, func(opts *zipsten.Options) {
		opts.ChunkSize = settings.ChunkSize
		opts.Lock = settings.Lock || m.Lock
	})

	return mode, optFns, nil
}
