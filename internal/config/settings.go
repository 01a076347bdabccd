package config

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-ini/ini"
	"github.com/nguyengg/zipsten/stego"
)

// Settings contains the [zipsten] settings.
type Settings struct {
	// Mode is the default mode for hide and reveal.
	Mode stego.Mode
	// ChunkSize is the size of the buffer used to copy and move regions; 0 means the library default.
	ChunkSize int
	// Lock indicates whether an advisory lock must be held while an archive is modified.
	Lock bool
}

// Settings returns the [zipsten] settings.
//
// Missing keys keep their zero value. A present but invalid value is an error.
func (l *Loader) Settings() (s Settings, err error) {
	sec, err := l.file().GetSection("zipsten")
	if err != nil {
		return s, nil
	}

	if k := sec.Key("mode"); k.String() != "" {
		if s.Mode, err = stego.ParseMode(k.String()); err != nil {
			return s, fmt.Errorf("invalid mode: %w", err)
		}
	}

	if k := sec.Key("chunk-size"); k.String() != "" {
		v, err := humanize.ParseBytes(k.String())
		if err != nil {
			return s, fmt.Errorf("invalid chunk-size: %w", err)
		}
		if v == 0 || v > 1<<30 {
			return s, fmt.Errorf("invalid chunk-size: %s is not in (0, 1GiB]", k.String())
		}

		s.ChunkSize = int(v)
	}

	if k := sec.Key("lock"); k.String() != "" {
		if s.Lock, err = k.Bool(); err != nil {
			return s, fmt.Errorf("invalid lock: %w", err)
		}
	}

	return s, nil
}

// AWSProfile returns the profile to use for S3: Loader.Profile if set, the [s3] profile setting otherwise.
func (l *Loader) AWSProfile() string {
	if l.Profile != "" {
		return l.Profile
	}

	return l.file().Section("s3").Key("profile").String()
}

func (l *Loader) file() *ini.File {
	if l.cfg == nil {
		l.cfg = ini.Empty()
	}

	return l.cfg
}
