package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/zipsten"
	"github.com/nguyengg/zipsten/internal"
	"github.com/nguyengg/zipsten/internal/payload"
)

type Hide struct {
	ModeOptions

	Output   flags.Filename `short:"o" long:"output" description:"copy the archive to this path and hide the data in the copy, leaving the original untouched" value-name:"FILE"`
	File     flags.Filename `short:"f" long:"file" description:"hide the contents of this file" value-name:"FILE"`
	Text     *string        `short:"t" long:"text" description:"hide this text" value-name:"TEXT"`
	Compress string         `short:"c" long:"compress" description:"compress the data before hiding it" choice:"none" choice:"xz" choice:"zstd" choice:"gzip" default:"none"`
	Args     struct {
		Archive flags.Filename `positional-arg-name:"zip" description:"the ZIP archive to hide data in" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Hide) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}
	if (c.Text == nil) == (c.File == "") {
		return fmt.Errorf("exactly one of --file or --text must be given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	mode, optFns, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	codec, err := payload.ParseCodec(c.Compress)
	if err != nil {
		return err
	}

	data, err := payload.Source{Text: c.Text, File: string(c.File)}.Load(codec)
	if err != nil {
		return err
	}

	name := string(c.Args.Archive)
	logger := internal.NewLogger(internal.Prefix(1, 1, name))

	fi, err := os.Stat(name)
	if err != nil {
		return err
	}

	progress := internal.NewProgress(logger, "wrote", fi.Size()+int64(len(data)), 5*time.Second)
	err = zipsten.Hide(ctx, name, mode, data, append(optFns, func(opts *zipsten.Options) {
		opts.Output = string(c.Output)
		opts.Progress = progress
	})...)
	_ = progress.Close()
	if err != nil {
		logger.Printf("hide error: %v", err)
		return err
	}

	if c.Output != "" {
		logger.Printf(`hid %s in %s mode in copy "%s"`, humanize.IBytes(uint64(len(data))), mode, c.Output)
	} else {
		logger.Printf("hid %s in %s mode", humanize.IBytes(uint64(len(data))), mode)
	}

	return nil
}
