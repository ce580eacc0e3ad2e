package entry

import (
	"reflect"
	"time"

	"dario.cat/mergo"
)

// timeTransformer keeps a set timestamp when the update carries a zero one.
type timeTransformer struct{}

func (timeTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ != reflect.TypeOf(time.Time{}) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && !src.Interface().(time.Time).IsZero() {
			dst.Set(src)
		}
		return nil
	}
}

// Merge deep-merges update into base and returns the result. Non-empty
// fields of update win; slices are replaced, nested meta is merged field-wise.
// Neither argument is modified.
func Merge(base, update DirectoryEntry) DirectoryEntry {
	out := base
	out.Tags = append([]Tag(nil), base.Tags...)
	if base.Meta != nil {
		m := *base.Meta
		m.Tags = append([]Tag(nil), base.Meta.Tags...)
		out.Meta = &m
	}
	if update.Meta != nil {
		m := *update.Meta
		update.Meta = &m
	}
	// Only fails on mismatched types.
	if err := mergo.Merge(&out, update, mergo.WithOverride, mergo.WithTransformers(timeTransformer{})); err != nil {
		return base
	}
	return out
}

// Reduce folds entries sharing one path into a single entry, later values winning.
func Reduce(entries []DirectoryEntry) (DirectoryEntry, bool) {
	if len(entries) == 0 {
		return DirectoryEntry{}, false
	}
	acc := entries[0]
	for _, e := range entries[1:] {
		acc = Merge(acc, e)
	}
	return acc, true
}

// UpdateEntries returns a copy of list where each entry matched by path in
// updates is merged with it. Entries without an update are kept as is and
// updates without a match are ignored.
func UpdateEntries(list []DirectoryEntry, updates []DirectoryEntry) []DirectoryEntry {
	byPath := make(map[string][]DirectoryEntry, len(updates))
	for _, u := range updates {
		byPath[u.Path] = append(byPath[u.Path], u)
	}
	out := make([]DirectoryEntry, len(list))
	for i, e := range list {
		if reduced, ok := Reduce(byPath[e.Path]); ok {
			out[i] = Merge(e, reduced)
		} else {
			out[i] = e
		}
	}
	return out
}

// Clone copies a slice of entries.
func Clone(list []DirectoryEntry) []DirectoryEntry {
	if list == nil {
		return nil
	}
	return append([]DirectoryEntry(nil), list...)
}
