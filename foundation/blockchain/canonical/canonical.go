// Package canonical produces the deterministic JSON text that block hashes
// are computed over. Object keys are sorted, items are separated by ", "
// and keys by ": ", non-ASCII runes are written as \uXXXX escapes and
// floats use the shortest text that round trips, always with a fraction or
// exponent. Every node on the network hashes this exact text.
package canonical

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value represents any value that can be written in canonical form.
type Value interface {
	encode(sb *strings.Builder)
}

// Object is a JSON object. Keys are always written in lexicographic order.
type Object map[string]Value

// Array is an ordered JSON array.
type Array []Value

// String is a JSON string.
type String string

// Int is a JSON integer.
type Int int64

// Float is a JSON number written in its shortest round trip form.
type Float float64

// Raw is a number literal that has already been normalized by the caller.
type Raw string

// Encode returns the canonical text for the value.
func Encode(v Value) string {
	var sb strings.Builder
	v.encode(&sb)
	return sb.String()
}

// =============================================================================

func (o Object) encode(sb *strings.Builder) {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		String(k).encode(sb)
		sb.WriteString(": ")

		if o[k] == nil {
			sb.WriteString("null")
			continue
		}
		o[k].encode(sb)
	}
	sb.WriteByte('}')
}

func (a Array) encode(sb *strings.Builder) {
	sb.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			sb.WriteString(", ")
		}

		if v == nil {
			sb.WriteString("null")
			continue
		}
		v.encode(sb)
	}
	sb.WriteByte(']')
}

func (s String) encode(sb *strings.Builder) {
	const hex = "0123456789abcdef"

	writeU := func(r rune) {
		sb.WriteString(`\u`)
		sb.WriteByte(hex[(r>>12)&0xf])
		sb.WriteByte(hex[(r>>8)&0xf])
		sb.WriteByte(hex[(r>>4)&0xf])
		sb.WriteByte(hex[r&0xf])
	}

	sb.WriteByte('"')
	for _, r := range string(s) {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				sb.WriteRune(r)
			case r == utf8.RuneError:
				writeU(0xfffd)
			case r > 0xffff:
				r -= 0x10000
				writeU(0xd800 | ((r >> 10) & 0x3ff))
				writeU(0xdc00 | (r & 0x3ff))
			default:
				writeU(r)
			}
		}
	}
	sb.WriteByte('"')
}

func (i Int) encode(sb *strings.Builder) {
	sb.WriteString(strconv.FormatInt(int64(i), 10))
}

func (f Float) encode(sb *strings.Builder) {
	sb.WriteString(FormatFloat(float64(f)))
}

func (r Raw) encode(sb *strings.Builder) {
	sb.WriteString(string(r))
}

// =============================================================================

// FormatFloat renders a float with the shortest digits that round trip,
// using fixed notation for decimal exponents in [-4, 16) and scientific
// notation otherwise. Whole numbers keep a trailing ".0".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)

	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		panic(fmt.Sprintf("canonical: unexpected float format %q", sci))
	}

	if exp < -4 || exp >= 16 {
		return sci
	}

	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(fixed, '.') {
		fixed += ".0"
	}

	return fixed
}

// NormalizeNumber takes a JSON number literal and returns the text a node
// writes after parsing it. Integer literals are kept as they are,
// everything else is treated as a 64 bit float.
func NormalizeNumber(lit string) (string, error) {
	if lit == "" {
		return "", fmt.Errorf("empty number")
	}

	if isInteger(lit) {
		neg := strings.HasPrefix(lit, "-")
		digits := strings.TrimLeft(strings.TrimPrefix(lit, "-"), "0")
		switch {
		case digits == "":
			return "0", nil
		case neg:
			return "-" + digits, nil
		}
		return digits, nil
	}

	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", fmt.Errorf("invalid number %q: %w", lit, err)
	}

	return FormatFloat(f), nil
}

// isInteger reports whether the literal has only an optional sign and digits.
func isInteger(lit string) bool {
	s := strings.TrimPrefix(lit, "-")
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
