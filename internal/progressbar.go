package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// DefaultBytes is equivalent to progressbar.DefaultBytes but with higher progressbar.OptionThrottle.
func DefaultBytes(maxBytes int64, description string, options ...progressbar.Option) *progressbar.ProgressBar {
	return progressbar.NewOptions64(maxBytes,
		append([]progressbar.Option{
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(1 * time.Second),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true)},
			options...)...)
}

// NewProgress returns a writer that reports the number of bytes written to it out of total.
//
// A progress bar is used if stderr is a terminal; otherwise the logger prints a line at most every interval. The
// returned writer never fails. Close prints the final tally.
func NewProgress(logger *log.Logger, verb string, total int64, interval time.Duration) io.WriteCloser {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return &barLogger{bar: DefaultBytes(total, verb)}
	}

	return &logLogger{
		logger: logger,
		verb:   verb,
		rate:   rateEvery(interval),
		size:   total,
	}
}

type logLogger struct {
	logger       *log.Logger
	verb         string
	rate         *rate.Sometimes
	offset, size int64
}

func (l *logLogger) Write(p []byte) (n int, err error) {
	n = len(p)
	l.offset += int64(n)

	l.rate.Do(func() {
		l.logger.Printf("%s %s / %s so far", l.verb, humanize.IBytes(uint64(l.offset)), humanize.IBytes(uint64(l.size)))
	})

	return n, nil
}

func (l *logLogger) Close() error {
	l.logger.Printf("%s %s in total", l.verb, humanize.IBytes(uint64(l.offset)))
	return nil
}

type barLogger struct {
	bar *progressbar.ProgressBar
}

func (b *barLogger) Write(p []byte) (int, error) {
	// ignore all errors from progress bar.
	_, _ = b.bar.Write(p)
	return len(p), nil
}

func (b *barLogger) Close() error {
	return b.bar.Close()
}

func rateEvery(interval time.Duration) *rate.Sometimes {
	return &rate.Sometimes{Interval: interval}
}
