package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/mholt/archives"
	"github.com/nguyengg/zipsten"
	"github.com/nguyengg/zipsten/internal"
	"github.com/nguyengg/zipsten/stego"
)

type Verify struct {
	Args struct {
		Archives []flags.Filename `positional-arg-name:"zip" description:"the ZIP archives to verify" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Verify) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	success := 0
	n := len(c.Args.Archives)
	for i, name := range c.Args.Archives {
		logger := internal.NewLogger(internal.Prefix(i+1, n, string(name)))

		if err := verify(ctx, string(name), logger); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}

			logger.Printf("verify error: %v", err)
			continue
		}

		success++
	}

	log.Printf("successfully verified %d/%d archives", success, n)
	if success != n {
		return fmt.Errorf("%d archives failed verification", n-success)
	}

	return nil
}

// verify reads every entry of the archive with an independent ZIP reader then reports hidden data for every mode.
func verify(ctx context.Context, name string, logger *log.Logger) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		files int
		size  uint64
	)
	if err = (archives.Zip{}).Extract(ctx, f, func(ctx context.Context, info archives.FileInfo) error {
		if info.IsDir() {
			return nil
		}

		r, err := info.Open()
		if err != nil {
			return fmt.Errorf(`open "%s" error: %w`, info.NameInArchive, err)
		}
		defer r.Close()

		// reading to the end checks the CRC-32 of the entry.
		n, err := io.Copy(io.Discard, r)
		if err != nil {
			return fmt.Errorf(`read "%s" error: %w`, info.NameInArchive, err)
		}

		files++
		size += uint64(n)
		return nil
	}); err != nil {
		return err
	}

	logger.Printf("read %d files (%s) without error", files, humanize.IBytes(size))

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	for _, mode := range []stego.Mode{stego.Trailer, stego.Extra} {
		switch data, err := zipsten.RevealFrom(ctx, f, fi.Size(), mode); {
		case err == nil:
			logger.Printf("%s mode: %s of hidden data", mode, humanize.IBytes(uint64(len(data))))
		case errors.Is(err, zipsten.ErrNotFound):
			logger.Printf("%s mode: no hidden data", mode)
		default:
			logger.Printf("%s mode: %v", mode, err)
		}
	}

	return nil
}
