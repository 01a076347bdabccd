package zipsten

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// OpenExclFile creates a new file for writing at name, or at a sibling of name if name already exists.
//
// Siblings are named by inserting a numeric suffix between the stem and the extension as returned by StemAndExt, so
// "payload.tar.gz" becomes "payload-1.tar.gz" then "payload-2.tar.gz". The file is opened with flag
// `os.O_RDWR|os.O_CREATE|os.O_EXCL` and permission `0666`. Caller is responsible for closing the file upon a
// successful return.
func OpenExclFile(name string) (file *os.File, err error) {
	parent := filepath.Dir(name)
	stem, ext := StemAndExt(name)

	for i := 0; ; {
		switch file, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666); {
		case err == nil:
			return
		case errors.Is(err, os.ErrExist):
			i++
			name = filepath.Join(parent, fmt.Sprintf("%s-%d%s", stem, i, ext))
		default:
			return nil, fmt.Errorf("create file error: %w", err)
		}
	}
}

// StemAndExt is a variant of filepath.Ext that allows extended extension to be detected while also returning the stem.
//
// For example, `filepath.Ext("payload.txt.xz")` would return ".xz", but `StemAndExt("payload.txt.xz")` returns
// ".txt.xz" for the extension and "payload" for the stem.
//
// Only extensions of 5 characters or less are accepted, so if there is no `.` in the last 6 characters the returned
// ext is empty.
func StemAndExt(path string) (stem, ext string) {
	n := len(path) - 1
	for i, j := n, max(0, n-6); i >= j; i-- {
		switch path[i] {
		case '\\', '/':
			stem = path[i+1:]
			return
		case '.':
			ext = path[i:] + ext
			path = path[:i]
			n = len(path)
			i, j = n, max(0, n-6)
			continue
		}
	}

	stem = filepath.Base(path)
	return
}
