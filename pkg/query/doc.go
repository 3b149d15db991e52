// Package query encodes typed request parameters into upstream query strings.
//
// # Values
//
// A parameter value is one of four kinds, see [Value]:
//
//   - [Bool]: encodes as TRUE or FALSE, never omitted
//   - [Number]: shortest decimal form (1993, 41.5)
//   - [Text]: the string itself
//   - [List]: elements joined with a comma
//
// # Building
//
// [Params] keeps insertion order, and [Build] walks it in that order so the
// same parameters always yield byte-identical output. That output is part of
// the cache key, so determinism matters:
//
//	p := query.NewParams().
//	    Set("vid", query.Ints(1993, 1219)).
//	    Set("key", query.Text(""))
//	query.Build(p) // "?vid=1993%2C1219"
//
// Parameters whose encoded value is empty are skipped entirely.
package query
