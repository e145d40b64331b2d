// Package tabula provides schema-driven loading, saving, and
// cross-referencing of tabular and singleton data stored as flat text
// files (CSV rows, YAML and JSON documents), giving applications typed
// in-memory access to external data tables without a database server.
//
// A model is a plain struct carrying a blank marker field:
//
//	type Item struct {
//		_ tabula.Table[int32] `tabula:"data/items.csv"`
//
//		ID    int32
//		Name  string
//		Price int32
//	}
//
//	func (i Item) Key() int32 { return i.ID }
//
// The tabula-gen tool discovers marked models at build time and emits an
// aggregator type with one typed repository per model plus the row codecs
// the CSV format needs. At runtime the aggregator's embedded Context loads
// every dataset concurrently, exposes typed lookup, reloads single named
// datasets, and persists changes back through the storage collaborator.
//
// Cross-references between tables are held as tabula.Ref values: a typed
// wrapper around the foreign key, resolved lazily against the Context's
// registry and serialized as a bare scalar so data files stay
// hand-editable.
package tabula
