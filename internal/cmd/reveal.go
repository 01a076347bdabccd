package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/zipsten"
	"github.com/nguyengg/zipsten/internal"
	"github.com/nguyengg/zipsten/internal/config"
	"github.com/nguyengg/zipsten/internal/payload"
	"github.com/nguyengg/zipsten/s3reader"
	"github.com/nguyengg/zipsten/stego"
)

type Reveal struct {
	ModeOptions

	File       flags.Filename `short:"f" long:"file" description:"write the hidden data to this file; a numeric suffix is added if it already exists" value-name:"FILE"`
	Text       bool           `short:"t" long:"text" description:"print the hidden data to standard output as text"`
	Remove     bool           `short:"r" long:"remove" description:"also remove the hidden data from the archive"`
	Output     flags.Filename `short:"o" long:"output" description:"with --remove, copy the archive to this path and remove the data from the copy, leaving the original untouched" value-name:"FILE"`
	Decompress string         `short:"d" long:"decompress" description:"decompress the hidden data after revealing it" choice:"none" choice:"xz" choice:"zstd" choice:"gzip" default:"none"`
	Args       struct {
		Archive string `positional-arg-name:"zip" description:"the ZIP archive to reveal data from; can also be an S3 URI in format s3://bucket/key" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Reveal) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}
	if c.File == "" && !c.Text {
		return fmt.Errorf("at least one of --file or --text must be given")
	}
	if c.Output != "" && !c.Remove {
		return fmt.Errorf("--output can only be used with --remove")
	}
	if c.Remove && s3reader.IsURI(c.Args.Archive) {
		return fmt.Errorf("--remove is not supported for S3 archives")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	mode, optFns, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	codec, err := payload.ParseCodec(c.Decompress)
	if err != nil {
		return err
	}

	name := c.Args.Archive
	logger := internal.NewLogger(internal.Prefix(1, 1, name))

	// the archive is only modified once the hidden data has been decoded and saved.
	var hidden []byte
	if s3reader.IsURI(name) {
		hidden, err = c.revealS3(ctx, name, mode)
	} else {
		hidden, err = zipsten.Reveal(ctx, name, mode, optFns...)
	}
	switch {
	case errors.Is(err, zipsten.ErrNotFound):
		logger.Printf("Hidden data not found")
		return err
	case err != nil:
		logger.Printf("reveal error: %v", err)
		return err
	}

	data, err := payload.Decode(hidden, codec)
	if err != nil {
		logger.Printf("decode error: %v", err)
		return err
	}

	var text string
	if c.Text {
		if text, err = payload.Text(data); err != nil {
			logger.Printf("%v", err)
			return err
		}
	}

	if c.File != "" {
		if err = c.write(data, logger); err != nil {
			return err
		}
	}

	if c.Text {
		fmt.Println(text)
	}

	if c.Remove {
		if err = c.remove(ctx, name, mode, hidden, logger, optFns); err != nil {
			logger.Printf("remove error: %v", err)
			return err
		}
	}

	return nil
}

// write saves data to a new file named after c.File.
func (c *Reveal) write(data []byte, logger *log.Logger) error {
	f, err := zipsten.OpenExclFile(string(c.File))
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write hidden data error: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("write hidden data error: %w", err)
	}

	logger.Printf(`wrote %s to "%s"`, humanize.IBytes(uint64(len(data))), f.Name())
	return nil
}

// remove cuts the hidden data out of the named archive, or out of its copy if c.Output is given.
//
// The removed bytes must match those revealed earlier; otherwise the archive changed in between.
func (c *Reveal) remove(ctx context.Context, name string, mode stego.Mode, hidden []byte, logger *log.Logger, optFns []func(*zipsten.Options)) error {
	fi, err := os.Stat(name)
	if err != nil {
		return err
	}

	progress := internal.NewProgress(logger, "wrote", fi.Size(), 5*time.Second)
	defer progress.Close()

	removed, err := zipsten.Reveal(ctx, name, mode, append(optFns, func(opts *zipsten.Options) {
		opts.Remove = true
		opts.Output = string(c.Output)
		opts.Progress = progress
	})...)
	if err != nil {
		return err
	}
	if !bytes.Equal(removed, hidden) {
		return fmt.Errorf("archive changed while revealing: removed %s differ from the revealed data", humanize.IBytes(uint64(len(removed))))
	}

	logger.Printf("removed %s hidden in %s mode", humanize.IBytes(uint64(len(removed))), mode)
	return nil
}

func (c *Reveal) revealS3(ctx context.Context, uri string, mode stego.Mode) ([]byte, error) {
	bucket, key, err := s3reader.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := config.DefaultLoader.NewS3Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("create S3 client error: %w", err)
	}

	r, err := s3reader.New(ctx, client, bucket, key)
	if err != nil {
		return nil, err
	}

	return zipsten.RevealFrom(ctx, r, r.Size(), mode)
}
