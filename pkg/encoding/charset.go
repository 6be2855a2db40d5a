// Package encoding provides text encoding utilities for asset files.
package encoding

import (
	"errors"
	"fmt"
	"io"
	"strings"

	textencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ErrUnsupportedCharset is returned for charset labels with no known decoder.
var ErrUnsupportedCharset = errors.New("unsupported charset")

// Lookup resolves a charset label (IANA or WHATWG name) to an encoding.
func Lookup(label string) (textencoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	switch name {
	case "euc-kr", "cp949", "uhc", "ks_c_5601-1987":
		return korean.EUCKR, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, label)
	}
	return enc, nil
}

// CharsetReader wraps input so it yields UTF-8. Its signature matches
// xml.Decoder.CharsetReader.
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// ToUTF8 converts data in the named charset to a UTF-8 string.
func ToUTF8(charset string, data []byte) (string, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return "", err
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", charset, err)
	}
	return string(result), nil
}
