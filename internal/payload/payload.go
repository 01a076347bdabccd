// Package payload turns user input into the bytes to hide, and revealed bytes back into user output.
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// ErrNotText is returned by Text if the payload cannot be printed as text.
var ErrNotText = errors.New("hidden data is not valid UTF-8 text")

// Source is where the payload to hide comes from. Exactly one of Text and File must be given.
type Source struct {
	// Text is an inline payload.
	Text *string
	// File is the name of a file whose full contents are the payload.
	File string
}

// Load returns the payload bytes, compressed with c if c is not nil.
func (s Source) Load(c Codec) ([]byte, error) {
	var data []byte
	switch {
	case s.Text != nil && s.File != "":
		return nil, fmt.Errorf("only one of text or file payload can be given")
	case s.Text != nil:
		data = []byte(*s.Text)
	case s.File != "":
		var err error
		if data, err = os.ReadFile(s.File); err != nil {
			return nil, fmt.Errorf("read payload file error: %w", err)
		}
	default:
		return nil, fmt.Errorf("either text or file payload must be given")
	}

	if c == nil {
		return data, nil
	}

	buf := &bytes.Buffer{}
	w, err := c.NewEncoder(buf)
	if err != nil {
		return nil, fmt.Errorf("create %s encoder error: %w", c.Name(), err)
	}
	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%s compress error: %w", c.Name(), err)
	}
	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("%s compress error: %w", c.Name(), err)
	}

	return buf.Bytes(), nil
}

// Decode decompresses a revealed payload with c. If c is nil, data is returned as-is.
func Decode(data []byte, c Codec) ([]byte, error) {
	if c == nil {
		return data, nil
	}

	r, err := c.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create %s decoder error: %w", c.Name(), err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s decompress error: %w", c.Name(), err)
	}

	return out, nil
}

// Text returns data as a string if it is valid UTF-8.
func Text(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrNotText
	}

	return string(data), nil
}
