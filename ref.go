package tabula

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Ref is a typed cross-reference to a record in another table: it holds
// only the foreign key, never the resolved record. Resolution is
// recomputed on each call against the owning Context's registry, so a
// reference decoded before its target dataset loads simply resolves once
// the dataset is installed.
//
// On the wire a Ref is a bare scalar (the key value) in every format, so
// data files stay hand-editable.
type Ref[K comparable, R Keyed[K]] struct {
	key K
}

// NewRef builds a reference holding key.
func NewRef[K comparable, R Keyed[K]](key K) Ref[K, R] {
	return Ref[K, R]{key: key}
}

// Key returns the stored foreign key.
func (r Ref[K, R]) Key() K { return r.key }

// IsZero reports whether the reference holds the default/empty key, which
// resolves to "no value".
func (r Ref[K, R]) IsZero() bool {
	var zero K
	return r.key == zero
}

// Resolve looks the reference up in c's registry. The three outcomes stay
// distinct:
//
//   - (zero, false, nil): the stored key is empty; the registry is not
//     consulted.
//   - ErrUnregisteredType: no table repository for R is installed.
//   - ErrKeyNotFound: the table is installed but holds no record for the
//     key.
//
// A nil context is an explicit ErrNilContext, never a panic.
func (r Ref[K, R]) Resolve(c *Context) (R, bool, error) {
	var zero R
	if c == nil {
		return zero, false, ErrNilContext
	}
	if r.IsZero() {
		return zero, false, nil
	}

	typeName := reflect.TypeFor[R]().String()
	repo, ok := c.repoByType(typeName)
	if !ok {
		return zero, false, fmt.Errorf("%w: %s", ErrUnregisteredType, typeName)
	}
	table, ok := repo.(*TableRepo[K, R])
	if !ok {
		return zero, false, fmt.Errorf("%w: %s is not a table", ErrUnregisteredType, typeName)
	}
	record, ok := table.Get(r.key)
	if !ok {
		return zero, false, fmt.Errorf("%w: %s[%v]", ErrKeyNotFound, typeName, r.key)
	}
	return record, true, nil
}

// MarshalJSON writes the key as a bare scalar.
func (r Ref[K, R]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.key)
}

// UnmarshalJSON reads a bare scalar key; null yields the empty reference.
func (r *Ref[K, R]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		var zero K
		r.key = zero
		return nil
	}
	return json.Unmarshal(data, &r.key)
}

// MarshalYAML writes the key as a bare scalar.
func (r Ref[K, R]) MarshalYAML() (any, error) {
	return r.key, nil
}

// UnmarshalYAML reads a bare scalar key; an empty or null node yields the
// empty reference.
func (r *Ref[K, R]) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" || (node.Kind == yaml.ScalarNode && node.Value == "") {
		var zero K
		r.key = zero
		return nil
	}
	return node.Decode(&r.key)
}
