// Package descriptor holds the build-time model descriptors shared by the
// analyzer and the code generator. Descriptors are produced once per
// analysis run and are immutable afterward.
package descriptor

import (
	"fmt"

	"github.com/vk/tabula/codec"
)

// Kind classifies a model as a keyed collection or a singleton.
type Kind int

const (
	// KindTable is a record type indexed by a unique key and loaded as a
	// collection.
	KindTable Kind = iota + 1
	// KindSingle is a record type with exactly one persisted instance.
	KindSingle
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindSingle:
		return "single"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ScalarKind classifies a row-format-compatible field type.
type ScalarKind int

const (
	ScalarString ScalarKind = iota + 1
	ScalarBool
	ScalarInt
	ScalarUint
	ScalarFloat
)

// RowField carries what the generator needs to convert one field to and
// from a row column. Present only when the field type is expressible as a
// row scalar.
type RowField struct {
	// Elem is the printed base type with any pointer stripped, e.g.
	// "int32" or "tabula.Ref[int32, model.Item]".
	Elem string
	// Scalar and BitSize describe the scalar conversion. BitSize is 0 for
	// platform-sized int/uint. For references they describe the key type.
	Scalar  ScalarKind
	BitSize int
	// IsRef marks a tabula.Ref field; KeyType is the printed key type.
	IsRef   bool
	KeyType string
}

// Field is one publicly readable record field, in declaration order.
type Field struct {
	Name     string
	Type     string // printed type, package-qualified for the generated file
	Nullable bool   // pointer type: absent cells decode to nil
	Row      *RowField
}

// Model is the normalized descriptor for one discovered record type.
type Model struct {
	// Name is the bare type name; it doubles as the aggregator slot name.
	Name    string
	PkgPath string
	PkgName string

	Kind    Kind
	KeyType string // printed key type, Table models only
	Path    string // storage path from the marker tag
	Format  codec.Format

	Fields []Field

	// Imports lists the package paths the printed key type references; the
	// key type appears in the generated repository field and Register call,
	// so these are always needed. FieldImports lists the packages the
	// printed field types reference; field types appear only in generated
	// row codecs, so document-format models must not import them.
	Imports      []string
	FieldImports []string
}

// QualifiedName returns the package-qualified type name used for registry
// type keys and generated code.
func (m Model) QualifiedName() string {
	return m.PkgName + "." + m.Name
}

// Problem is a non-fatal per-model schema failure: the model is reported
// and excluded from generation, and analysis of other models continues.
type Problem struct {
	Model string
	Pos   string // file:line when known
	Msg   string
}

func (p Problem) String() string {
	if p.Pos != "" {
		return fmt.Sprintf("%s: model %s: %s", p.Pos, p.Model, p.Msg)
	}
	return fmt.Sprintf("model %s: %s", p.Model, p.Msg)
}
