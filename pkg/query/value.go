package query

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindText Kind = iota
	KindBool
	KindNumber
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	default:
		return "text"
	}
}

// Value is a parameter value. The zero Value is an empty Text.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []string
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a numeric value from an integer.
func Int(n int) Value { return Number(float64(n)) }

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// List returns a sequence value. Elements are already in string form.
func List(elems ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), elems...)}
}

// Ints returns a List of integers.
func Ints(ns ...int) Value {
	elems := make([]string, len(ns))
	for i, n := range ns {
		elems[i] = strconv.Itoa(n)
	}
	return Value{kind: KindList, list: elems}
}

// Strings is an alias of [List] for readability at call sites.
func Strings(elems ...string) Value { return List(elems...) }

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// Elems returns a copy of the list elements, or nil if v is not a List.
func (v Value) Elems() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// Encode returns the upstream string form of v.
func (v Value) Encode() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return v.s
	}
}

// String implements fmt.Stringer with the encoded form.
func (v Value) String() string { return v.Encode() }

// Encode returns the upstream string form of v.
func Encode(v Value) string { return v.Encode() }

// ParseValue infers a Value from user input such as a CLI flag or an HTTP
// query parameter. "true"/"false" (any case) become Bool, plain decimal
// numbers become Number, everything else is Text.
//
// Numbers with leading zeros keep their Text form so identifiers like stop
// IDs survive unchanged.
func ParseValue(s string) Value {
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if isPlainNumber(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(n)
		}
	}
	return Text(s)
}

// isPlainNumber accepts an optional sign, digits and an optional fraction,
// and rejects forms that would not survive a round trip through Number.
func isPlainNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if intPart == "" || !allDigits(intPart) {
		return false
	}
	if len(intPart) > 1 && intPart[0] == '0' {
		return false
	}
	if len(intPart) > 15 {
		return false
	}
	if hasFrac {
		if frac == "" || !allDigits(frac) || strings.HasSuffix(frac, "0") {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
