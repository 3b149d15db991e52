package normalize

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

// Tree is a normalized response.
type Tree = any

// Format is an upstream payload format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// Func normalizes a raw payload.
type Func func(raw []byte) (Tree, error)

// ForFormat returns the normalizer for f.
func ForFormat(f Format) (Func, error) {
	switch f {
	case FormatXML:
		return XML, nil
	case FormatJSON:
		return JSON, nil
	default:
		return nil, errors.New(errors.ErrCodeInternal, "no normalizer for format %q", f)
	}
}

// JSON decodes raw into a Tree, preserving numbers as json.Number.
// Empty input, malformed input, trailing data and a top-level null all fail
// with PARSE_FAILURE.
func JSON(raw []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.ErrCodeParseFailure, "empty JSON payload")
		}
		return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "decode JSON payload")
	}
	if v == nil {
		return nil, errors.New(errors.ErrCodeParseFailure, "JSON payload is null")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeParseFailure, "trailing data after JSON payload")
	}
	return v, nil
}

// Marshal serializes a tree for storage.
func Marshal(tree Tree) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode tree")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Unmarshal restores a tree written by [Marshal].
func Unmarshal(payload string) (Tree, error) {
	return JSON([]byte(payload))
}
