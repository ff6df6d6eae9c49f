package resource

import (
	"bytes"
	"fmt"
	"mime"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText turns a fetched body into a string. A charset named by contentType is
// honored; otherwise the body must be UTF-8. A leading byte order mark is dropped.
// Bytes the charset cannot decode are an error, never a replacement character.
func decodeText(body []byte, contentType string) (string, error) {
	enc, err := charsetOf(contentType)
	if err != nil {
		return "", err
	}

	validated := false
	if enc == nil {
		// The UTF-8 decoders replace ill-formed input, so validate first.
		if !utf8.Valid(body) {
			return "", fmt.Errorf("body is not valid UTF-8")
		}
		enc = unicode.UTF8BOM
		validated = true
	}

	var dec transform.Transformer = enc.NewDecoder()
	if isUTF16(enc) {
		dec = unicode.BOMOverride(dec)
	}
	text, _, err := transform.Bytes(dec, body)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	// Other decoders substitute U+FFFD for ill-formed input.
	if !validated && bytes.ContainsRune(text, utf8.RuneError) {
		return "", fmt.Errorf("body is not valid %s", charsetName(enc))
	}
	return string(text), nil
}

func isUTF16(enc encoding.Encoding) bool {
	name := charsetName(enc)
	return name == "utf-16le" || name == "utf-16be"
}

func charsetName(enc encoding.Encoding) string {
	name, _ := htmlindex.Name(enc)
	return name
}

// charsetOf returns the encoding named by a Content-Type header, or nil for UTF-8 and
// for headers that do not name a charset.
func charsetOf(contentType string) (encoding.Encoding, error) {
	if contentType == "" {
		return nil, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	cs, ok := params["charset"]
	if !ok {
		return nil, nil
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", cs, err)
	}
	if charsetName(enc) == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
