package normalize

// Lookup walks a tree along map keys and returns the value at the end.
func Lookup(tree Tree, path ...string) (Tree, bool) {
	cur := tree
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// List returns v as a slice. A single element (an XML tag that happened to
// appear once) becomes a one-element slice and nil becomes an empty slice.
func List(v Tree) []Tree {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []Tree{t}
	}
}
