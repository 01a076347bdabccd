package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Prefix creates a consistent prefix for all archive-based commands to use.
//
// i and n are the one-based ordinal and expected count.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i, n, truncateRight(filepath.Base(name), 30, "..."))
}

// NewLogger creates a new logger writing to stderr using the given prefix.
func NewLogger(prefix string) *log.Logger {
	return log.New(os.Stderr, prefix, 0)
}

// truncateRight keeps the first n runes of text and appends suffix only if truncation happens.
func truncateRight(text string, n int, suffix string) string {
	rs := []rune(text)
	if len(rs) <= n {
		return text
	}

	return string(rs[:n]) + suffix
}
