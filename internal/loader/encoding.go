package loader

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "iso-8859-1"
	EncodingWindows1252 = "windows-1252"
	EncodingUTF8Lossy   = "utf-8-lossy"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type decodeFunc func([]byte) (string, bool)

var decoders = map[string]decodeFunc{
	EncodingUTF8:        decodeUTF8,
	EncodingLatin1:      decodeCharmap(charmap.ISO8859_1),
	EncodingWindows1252: decodeCharmap(charmap.Windows1252),
	EncodingUTF8Lossy:   decodeUTF8Lossy,
}

var aliases = map[string]string{
	"utf8":    EncodingUTF8,
	"latin1":  EncodingLatin1,
	"latin-1": EncodingLatin1,
	"cp1252":  EncodingWindows1252,
	"lossy":   EncodingUTF8Lossy,
}

func DefaultEncodings() []string {
	return []string{EncodingUTF8, EncodingLatin1, EncodingWindows1252, EncodingUTF8Lossy}
}

// CanonicalEncoding resolves aliases and reports whether the name is supported.
func CanonicalEncoding(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = a
	}
	_, ok := decoders[n]
	return n, ok
}

func decodeUTF8(b []byte) (string, bool) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func decodeUTF8Lossy(b []byte) (string, bool) {
	b = bytes.TrimPrefix(b, utf8BOM)
	return strings.ToValidUTF8(string(b), ""), true
}

// mostlyUTF8 reports whether b carries real multibyte UTF-8 text with a few
// stray bytes. Such input is UTF-8 with damage, not a single-byte code page,
// and re-decoding it as one would garble every valid character.
func mostlyUTF8(b []byte) bool {
	b = bytes.TrimPrefix(b, utf8BOM)
	multibyte, invalid := 0, 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size == 1:
			invalid++
		case size > 1:
			multibyte++
		}
		b = b[size:]
	}
	return multibyte > 0 && invalid <= multibyte
}

// decodeCharmap rejects output containing C1 controls or replacement runes:
// those only show up when the bytes belong to a different code page.
func decodeCharmap(cm *charmap.Charmap) decodeFunc {
	return func(b []byte) (string, bool) {
		out, _, err := transform.Bytes(cm.NewDecoder(), b)
		if err != nil {
			return "", false
		}
		s := string(out)
		for _, r := range s {
			if r == utf8.RuneError || (r >= 0x80 && r <= 0x9F) {
				return "", false
			}
		}
		return s, true
	}
}
