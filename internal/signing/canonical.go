package signing

import (
	"bytes"
	"strconv"
	"strings"
)

// Separator joins canonical string fields.
const Separator = '\n'

// FieldCount is the number of fields in a canonical string.
const FieldCount = 5

// Build assembles the canonical string for in:
// METHOD, PATH, BODY, TIMESTAMP, API_KEY joined by single newlines.
func Build(in SignatureInput) []byte {
	ts := strconv.FormatInt(in.Timestamp, 10)

	var buf bytes.Buffer
	buf.Grow(len(in.Method) + len(in.Path) + len(in.Body) + len(ts) + len(in.APIKey) + FieldCount - 1)

	buf.WriteString(string(in.Method))
	buf.WriteByte(Separator)
	buf.WriteString(in.Path)
	buf.WriteByte(Separator)
	buf.WriteString(in.Body)
	buf.WriteByte(Separator)
	buf.WriteString(ts)
	buf.WriteByte(Separator)
	buf.WriteString(in.APIKey)

	return buf.Bytes()
}

// SplitCanonical splits a canonical string into its fields for display. The
// first two and last two separators are taken as field boundaries, so a body
// containing newlines comes back whole. It returns false if the string has
// fewer than four separators.
func SplitCanonical(canonical []byte) ([FieldCount]string, bool) {
	var fields [FieldCount]string
	s := string(canonical)

	first := strings.IndexByte(s, Separator)
	if first < 0 {
		return fields, false
	}
	second := strings.IndexByte(s[first+1:], Separator)
	if second < 0 {
		return fields, false
	}
	second += first + 1

	last := strings.LastIndexByte(s, Separator)
	penultimate := strings.LastIndexByte(s[:last], Separator)
	if penultimate <= second {
		return fields, false
	}

	fields[0] = s[:first]
	fields[1] = s[first+1 : second]
	fields[2] = s[second+1 : penultimate]
	fields[3] = s[penultimate+1 : last]
	fields[4] = s[last+1:]
	return fields, true
}

// UnescapeNewlines turns literal backslash-n sequences into newline bytes, so
// a canonical string typed on one line can be signed the way it reads.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
