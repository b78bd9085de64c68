package naming

import (
	"regexp"
	"strings"
)

var tagEscapes = map[rune]string{
	' ':  "%20",
	'\\': "%5C",
	'?':  "%3F",
	'~':  "%7E",
	'^':  "%5E",
	':':  "%3A",
	'*':  "%2A",
	'[':  "%5B",
	'@':  "%40",
	'/':  "%2F",
}

var tagUnescapes = func() map[string]rune {
	m := make(map[string]rune, len(tagEscapes))
	for c, code := range tagEscapes {
		m[code] = c
	}
	return m
}()

const escapeLen = 3

var (
	rexDashes   = regexp.MustCompile(`-{2,}`)
	rexDots     = regexp.MustCompile(`\.{2,}`)
	rexEndpoint = regexp.MustCompile(`^[.-]+|[.-]+$`)
)

// EncodeVersionName percent-encodes the characters of a custom version name that cannot appear in a tag.
//
// With sanitize, runs of '-' or '.' are collapsed and leading or trailing '-' and '.' are removed.
// Sanitizing is lossy: DecodeVersionName does not restore the removed characters.
func EncodeVersionName(name string, sanitize bool) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if code, ok := tagEscapes[c]; ok {
			b.WriteString(code)
			continue
		}
		b.WriteRune(c)
	}
	encoded := b.String()
	if !sanitize {
		return encoded
	}

	encoded = rexDashes.ReplaceAllString(encoded, "-")
	encoded = rexDots.ReplaceAllString(encoded, ".")
	return rexEndpoint.ReplaceAllString(encoded, "")
}

// DecodeVersionName reverts EncodeVersionName. Unknown %XX sequences are kept verbatim.
func DecodeVersionName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '%' && i+escapeLen <= len(name) {
			if c, ok := tagUnescapes[name[i:i+escapeLen]]; ok {
				b.WriteRune(c)
				i += escapeLen - 1
				continue
			}
		}
		b.WriteByte(name[i])
	}
	return b.String()
}
