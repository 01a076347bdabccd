package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/zipsten/internal/cmd"
	"github.com/nguyengg/zipsten/internal/config"
	"golang.org/x/term"
)

func main() {
	p, opts, err := cmd.NewParser()
	if err != nil {
		panic(err)
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		if opts.Profile != "" {
			config.DefaultLoader.Profile = opts.Profile
		}

		return command.Execute(args)
	}

	_, err = p.Parse()
	os.Exit(exitCode(err))
}

// exitCode is 0 on success or help output, 1 on any other error including hidden data not found.
func exitCode(err error) int {
	// need this on window to keep the console open.
	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdin.Fd())) {
		_, _ = fmt.Fprintf(os.Stderr, "Press any key to close console\n")
		_, _, _ = bufio.NewReader(os.Stdin).ReadRune()
	}

	if err != nil && !flags.WroteHelp(err) {
		return 1
	}

	return 0
}
