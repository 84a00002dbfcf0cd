package metadata

import (
	"strings"

	"github.com/On-Jun9/ShutterMeta/internal/xmp"
)

// Entry is one flattened property.
type Entry struct {
	Path  string
	Value string
}

// PropertyTree is what the flattener needs from a property tree.
type PropertyTree interface {
	Sort()
	Iterate(fn func(xmp.PropertyInfo) error) error
}

// FlattenProperties sorts the tree and returns its non-blank path/value
// pairs in iteration order. On error nothing is returned, so callers never
// merge a partial walk.
func FlattenProperties(tree PropertyTree) ([]Entry, error) {
	tree.Sort()
	var out []Entry
	err := tree.Iterate(func(p xmp.PropertyInfo) error {
		if strings.TrimSpace(p.Path) == "" || strings.TrimSpace(p.Value) == "" {
			return nil
		}
		out = append(out, Entry{Path: p.Path, Value: p.Value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FlattenDirectory returns the directory's tag map with its property tree
// merged in. A broken tree is reported in err and the generic tags are
// still returned.
func FlattenDirectory(d *Directory) (map[string]string, error) {
	out := d.Map()
	if !d.HasProperties() {
		return out, nil
	}
	m, err := d.Properties()
	if err != nil {
		return out, err
	}
	if m == nil {
		return out, ErrNoProperties
	}
	entries, err := FlattenProperties(m)
	if err != nil {
		return out, err
	}
	for _, e := range entries {
		out[e.Path] = e.Value
	}
	return out, nil
}
