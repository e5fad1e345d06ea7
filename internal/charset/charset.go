// Package charset resolves configured character set names to encoders.
package charset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Lookup returns the encoding registered under an IANA name or alias, for
// example "ISO-8859-2", "windows-1250" or "UTF-8". Blank means UTF-8.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	// ianaindex knows some names it has no implementation for.
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
	return enc, nil
}

// NewReader decodes r from enc to UTF-8.
func NewReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// NewWriter encodes UTF-8 written to it into enc. Runes enc cannot represent
// make Write (or Close) fail.
func NewWriter(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	return transform.NewWriter(w, enc.NewEncoder())
}

// Encode converts s to enc, failing on unrepresentable runes.
func Encode(s string, enc encoding.Encoding) ([]byte, error) {
	b, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return b, nil
}
