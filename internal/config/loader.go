package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-ini/ini"
)

// Name is the name of the configuration file.
const Name = ".zipsten"

// Loader can be used for loading .zipsten configuration as well as overridden with default settings.
type Loader struct {
	// Profile is the AWS profile to use, taking precedence over the [s3] profile setting.
	Profile string

	cfg           *ini.File
	s3clientCache sync.Map
}

// Load will traverse the directory hierarchy upwards from dir to find the first ".zipsten" file available and load
// its contents into the Loader.
//
// If dir is empty, the current working directory is used. The name of the .zipsten file is returned, or empty string
// if none was found in which case the Loader has only default settings.
func (l *Loader) Load(ctx context.Context, dir string) (string, error) {
	l.cfg = ini.Empty()

	cur := dir
	if cur == "" {
		var err error
		if cur, err = os.Getwd(); err != nil {
			return "", err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		path := filepath.Join(cur, Name)
		fi, err := os.Stat(path)
		switch {
		case err == nil && !fi.IsDir():
			cfg, err := ini.Load(path)
			if err != nil {
				return path, err
			}

			l.cfg = cfg
			return path, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur || parent == "." {
			return "", nil
		}

		cur = parent
	}
}

// DefaultLoader is the default Loader instance for package-level methods.
var DefaultLoader = &Loader{cfg: ini.Empty()}

// Load calls Loader.Load on the DefaultLoader instance with the current working directory.
func Load(ctx context.Context) (string, error) {
	return DefaultLoader.Load(ctx, "")
}
