// Package normalize converts upstream XML and JSON payloads into one tree
// shape.
//
// A [Tree] is built from map[string]any, []any, string, json.Number, bool
// and nil, i.e. exactly what encoding/json produces with UseNumber. XML is
// flattened into that shape:
//
//   - the root element becomes the single top-level key
//   - child elements become keys, repeated siblings become a []any
//   - elements without child elements become their trimmed text
//   - attributes are collected under "@attributes"; an element with both
//     attributes and text keeps the text under "#text"
//
// For example
//
//	<routes><route>Red</route><route>Blue</route></routes>
//
// normalizes to
//
//	map[string]any{"routes": map[string]any{"route": []any{"Red", "Blue"}}}
//
// Trees are stored with [Marshal] and read back with [Unmarshal], which uses
// the same decoder as [JSON] so a cached tree is indistinguishable from a
// freshly normalized one.
package normalize
