// Package encoding provides text encoding utilities for model files
// written by tools that do not emit UTF-8.
package encoding

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownCharset is returned for charset names not in the WHATWG index.
var ErrUnknownCharset = errors.New("unknown charset")

// NewReader returns a reader that decodes r from charset to UTF-8.
// An empty name or "utf-8" only strips a byte order mark; a UTF-16 BOM
// switches decoding to UTF-16.
func NewReader(r io.Reader, charset string) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" || name == "utf-8" || name == "utf8" {
		return transform.NewReader(r, unicode.BOMOverride(transform.Nop)), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// ToUTF8 converts data in charset to a UTF-8 string.
func ToUTF8(data []byte, charset string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(TrimBOM(data)), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", charset, err)
	}
	return string(result), nil
}

// TrimBOM removes a leading UTF-8 byte order mark.
func TrimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
