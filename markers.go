package tabula

// TagKey is the struct tag key read from model marker fields. The tag
// value is the storage path, optionally followed by a format override:
//
//	_ tabula.Table[int32] `tabula:"data/items.csv"`
//	_ tabula.Single       `tabula:"data/settings.txt,format=yaml"`
const TagKey = "tabula"

// Table marks a struct as a table model: a record type whose instances are
// indexed by a unique key of type K and loaded as a collection. The marker
// is declared as a blank struct field so it stays invisible to the
// document codecs. Table records must implement Keyed[K].
type Table[K comparable] struct{}

// Single marks a struct as a single model: a record type with exactly one
// persisted instance.
type Single struct{}

// Keyed is implemented by table records: Key returns the record's stable
// identifier without mutating it.
type Keyed[K comparable] interface {
	Key() K
}
