package cmd

import (
	"github.com/jessevdk/go-flags"
)

type Zipsten struct {
	Profile string `short:"p" long:"profile" description:"the AWS profile to use for s3:// archives; takes precedence over .zipsten setting"`
	Hide    Hide   `command:"hide" alias:"h" description:"hide data in a ZIP archive"`
	Reveal  Reveal `command:"reveal" alias:"r" description:"reveal data hidden in a ZIP archive"`
	Verify  Verify `command:"verify" alias:"v" description:"check that ZIP archives still open cleanly and report hidden data"`
}

func NewParser() (*flags.Parser, *Zipsten, error) {
	opts := &Zipsten{}

	p := flags.NewNamedParser("zipsten", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, nil, err
	}

	return p, opts, nil
}
