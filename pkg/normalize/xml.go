package normalize

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

const (
	attributesKey = "@attributes"
	textKey       = "#text"
)

// XML parses a well-formed XML document into a Tree. CDATA sections are
// treated as plain text. Documents declaring a non-UTF-8 encoding are
// transcoded. Any syntax error, a missing root or a second root element
// fails with PARSE_FAILURE.
func XML(raw []byte) (Tree, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	var (
		rootName string
		root     any
		seenRoot bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "decode XML payload")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if seenRoot {
				return nil, errors.New(errors.ErrCodeParseFailure, "XML payload has more than one root element")
			}
			v, err := element(dec, t)
			if err != nil {
				return nil, err
			}
			rootName, root, seenRoot = t.Name.Local, v, true
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New(errors.ErrCodeParseFailure, "XML payload has text outside the root element")
			}
		}
	}

	if !seenRoot {
		return nil, errors.New(errors.ErrCodeParseFailure, "XML payload has no root element")
	}
	return map[string]any{rootName: root}, nil
}

// node accumulates the content of one element while its tokens are read.
type node struct {
	attrs    map[string]any
	children map[string]any
	counts   map[string]int
	text     strings.Builder
}

func (n *node) addChild(name string, v any) {
	if n.children == nil {
		n.children = make(map[string]any)
		n.counts = make(map[string]int)
	}
	switch n.counts[name] {
	case 0:
		n.children[name] = v
	case 1:
		n.children[name] = []any{n.children[name], v}
	default:
		n.children[name] = append(n.children[name].([]any), v)
	}
	n.counts[name]++
}

func (n *node) value() any {
	text := strings.TrimSpace(n.text.String())
	switch {
	case n.children != nil:
		if n.attrs != nil {
			n.children[attributesKey] = n.attrs
		}
		return n.children
	case n.attrs != nil:
		m := map[string]any{attributesKey: n.attrs}
		if text != "" {
			m[textKey] = text
		}
		return m
	default:
		return text
	}
}

// element reads tokens up to the end of start and returns its tree value.
func element(dec *xml.Decoder, start xml.StartElement) (any, error) {
	n := &node{}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		if n.attrs == nil {
			n.attrs = make(map[string]any)
		}
		n.attrs[a.Name.Local] = a.Value
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(errors.ErrCodeParseFailure, err, "decode XML element <%s>", start.Name.Local)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := element(dec, t)
			if err != nil {
				return nil, err
			}
			n.addChild(t.Name.Local, v)
		case xml.CharData:
			n.text.Write(t)
		case xml.EndElement:
			return n.value(), nil
		}
	}
}
