package query

import (
	"net/url"
	"strings"
)

type param struct {
	name  string
	value Value
}

// Params is an ordered mapping of parameter name to [Value].
// The zero value is an empty, usable Params.
type Params struct {
	items []param
}

// NewParams returns an empty Params.
func NewParams() *Params { return &Params{} }

// Set assigns value to name. An existing name keeps its position; a new name
// is appended. Set returns p for chaining.
func (p *Params) Set(name string, value Value) *Params {
	for i := range p.items {
		if p.items[i].name == name {
			p.items[i].value = value
			return p
		}
	}
	p.items = append(p.items, param{name: name, value: value})
	return p
}

// Get returns the value stored under name.
func (p *Params) Get(name string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	for _, it := range p.items {
		if it.name == name {
			return it.value, true
		}
	}
	return Value{}, false
}

// Has reports whether name is present.
func (p *Params) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Del removes name, preserving the order of the rest.
func (p *Params) Del(name string) {
	for i := range p.items {
		if p.items[i].name == name {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return
		}
	}
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Names returns parameter names in insertion order.
func (p *Params) Names() []string {
	if p.Len() == 0 {
		return nil
	}
	names := make([]string, len(p.items))
	for i, it := range p.items {
		names[i] = it.name
	}
	return names
}

// Each calls fn for every parameter in insertion order.
func (p *Params) Each(fn func(name string, value Value)) {
	if p == nil {
		return
	}
	for _, it := range p.items {
		fn(it.name, it.value)
	}
}

// Clone returns an independent copy. A nil receiver yields an empty Params.
func (p *Params) Clone() *Params {
	c := &Params{}
	if p == nil {
		return c
	}
	c.items = make([]param, len(p.items))
	for i, it := range p.items {
		c.items[i] = param{name: it.name, value: it.value}
		if it.value.kind == KindList {
			c.items[i].value.list = append([]string(nil), it.value.list...)
		}
	}
	return c
}

// Build renders p as a query string. Parameters that encode to "" are
// skipped; the first survivor is prefixed with '?', the rest with '&'.
// Build returns "" when nothing survives.
func Build(p *Params) string {
	var b strings.Builder
	p.Each(func(name string, value Value) {
		enc := value.Encode()
		if enc == "" {
			return
		}
		if b.Len() == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(enc))
	})
	return b.String()
}

// ParseRawQuery converts a raw query string into Params, preserving the order
// in which names first appear. Repeated names are merged into a List of the
// raw values. Single values are inferred with [ParseValue].
func ParseRawQuery(raw string) (*Params, error) {
	var order []string
	values := make(map[string][]string)
	raw = strings.TrimPrefix(raw, "?")
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = append(values[name], value)
	}

	p := NewParams()
	for _, name := range order {
		vs := values[name]
		if len(vs) == 1 {
			p.Set(name, ParseValue(vs[0]))
		} else {
			p.Set(name, List(vs...))
		}
	}
	return p, nil
}
