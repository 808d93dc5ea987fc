package loader

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported input encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

// Encodings lists the accepted encoding names.
var Encodings = []string{EncodingUTF8, EncodingLatin1, EncodingWindows1252}

// Decoder returns the transformer that turns name-encoded text into UTF-8.
// UTF-8 input has a leading BOM removed.
func Decoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (supported: %s)", name, strings.Join(Encodings, ", "))
	}
}

// Decode wraps r so that it yields UTF-8 text.
func Decode(r io.Reader, name string) (io.Reader, error) {
	dec, err := Decoder(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, dec), nil
}
