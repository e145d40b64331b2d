// Package generator turns model descriptors into compiled artifacts: one
// aggregator type with a typed repository slot per model, and a dedicated
// row codec for every model whose effective format is the row format.
//
// Generation is a pure function of the descriptor list. Identical
// descriptors always produce textually identical output.
package generator

import (
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"

	"github.com/vk/tabula/codec"
	"github.com/vk/tabula/internal/descriptor"
)

const tabulaPkgPath = "github.com/vk/tabula"

// Options configures the generated file.
type Options struct {
	// PackageName is the dedicated package the artifacts are emitted
	// into, reserved so generated names never collide with user code.
	PackageName string
	// ContextName is the aggregator type name.
	ContextName string
}

// Generate emits the source for the aggregator and row codecs. Models
// that cannot be generated (row format with non-scalar fields, duplicate
// names) are reported as Problems and skipped; they never abort the rest.
func Generate(opts Options, models []descriptor.Model) ([]byte, []descriptor.Problem, error) {
	if opts.PackageName == "" {
		opts.PackageName = "tabuladata"
	}
	if opts.ContextName == "" {
		opts.ContextName = "Data"
	}

	data := &fileData{
		Package: opts.PackageName,
		Context: opts.ContextName,
	}
	var problems []descriptor.Problem

	// The aggregator always embeds *tabula.Context; codec is referenced
	// only by Register calls, so it is added once a model survives.
	imports := map[string]bool{
		tabulaPkgPath: true,
	}
	seen := make(map[string]bool)

	for _, m := range models {
		if seen[m.Name] {
			problems = append(problems, descriptor.Problem{
				Model: m.QualifiedName(),
				Msg:   fmt.Sprintf("slot name %q already taken by another model", m.Name),
			})
			continue
		}

		md, problem := buildModel(m)
		if problem != nil {
			problems = append(problems, *problem)
			continue
		}
		seen[m.Name] = true

		imports[tabulaPkgPath+"/codec"] = true
		imports[m.PkgPath] = true
		for _, imp := range m.Imports {
			imports[imp] = true
		}
		// Field types are rendered only inside row codecs; importing their
		// packages for a document-format model would leave the import
		// unused and the generated file uncompilable.
		if md.RowCodec != "" {
			for _, imp := range m.FieldImports {
				imports[imp] = true
			}
		}
		if md.usesStrconv {
			imports["strconv"] = true
		}
		if md.usesFmt {
			imports["fmt"] = true
		}

		data.Models = append(data.Models, md)
	}

	for path, used := range imports {
		if used {
			data.Imports = append(data.Imports, fmt.Sprintf("%q", path))
		}
	}
	sort.Strings(data.Imports)

	var buf strings.Builder
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, problems, fmt.Errorf("execute template: %w", err)
	}
	src, err := format.Source([]byte(buf.String()))
	if err != nil {
		return nil, problems, fmt.Errorf("format generated source: %w", err)
	}
	return src, problems, nil
}

type fileData struct {
	Package string
	Context string
	Imports []string
	Models  []modelData
}

type modelData struct {
	SlotName     string
	TypeName     string
	RepoType     string
	RegisterCall string

	RowCodec    string
	ColumnsList string
	NumCols     int
	EncodeStmts []string
	DecodeStmts []string

	usesStrconv bool
	usesFmt     bool
}

func buildModel(m descriptor.Model) (modelData, *descriptor.Problem) {
	md := modelData{
		SlotName: m.Name,
		TypeName: m.QualifiedName(),
	}

	effective, err := codec.Resolve(m.Format, m.Path)
	rowNeeded := err == nil && effective == codec.FormatCSV

	if rowNeeded {
		for _, f := range m.Fields {
			if f.Row == nil {
				return md, &descriptor.Problem{
					Model: m.QualifiedName(),
					Msg: fmt.Sprintf("field %s has type %s, which has no row-format representation",
						f.Name, f.Type),
				}
			}
		}
		md.RowCodec = rowCodecName(m.Name)
		md.NumCols = len(m.Fields)
		cols := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			cols[i] = fmt.Sprintf("%q", f.Name)
			md.EncodeStmts = append(md.EncodeStmts, encodeStmt(i, f))
			md.DecodeStmts = append(md.DecodeStmts, decodeStmt(i, f))
			if f.Row.Scalar != descriptor.ScalarString {
				md.usesStrconv = true
				md.usesFmt = true
			}
		}
		md.ColumnsList = strings.Join(cols, ", ")
	}

	rowCodecArg := "nil"
	if md.RowCodec != "" {
		rowCodecArg = md.RowCodec + "{}"
	}

	switch m.Kind {
	case descriptor.KindTable:
		md.RepoType = fmt.Sprintf("*tabula.TableRepo[%s, %s]", m.KeyType, md.TypeName)
		md.RegisterCall = fmt.Sprintf(
			"tabula.RegisterTable[%s, %s](d.Context, %q, %q, %s, %s)",
			m.KeyType, md.TypeName, m.Name, m.Path, formatExpr(m.Format), rowCodecArg)
	case descriptor.KindSingle:
		md.RepoType = fmt.Sprintf("*tabula.SingleRepo[%s]", md.TypeName)
		md.RegisterCall = fmt.Sprintf(
			"tabula.RegisterSingle[%s](d.Context, %q, %q, %s, %s)",
			md.TypeName, m.Name, m.Path, formatExpr(m.Format), rowCodecArg)
	default:
		return md, &descriptor.Problem{
			Model: m.QualifiedName(),
			Msg:   fmt.Sprintf("unknown model kind %v", m.Kind),
		}
	}
	return md, nil
}

func rowCodecName(model string) string {
	return strings.ToLower(model[:1]) + model[1:] + "RowCodec"
}

func formatExpr(f codec.Format) string {
	switch f {
	case codec.FormatCSV:
		return "codec.FormatCSV"
	case codec.FormatJSON:
		return "codec.FormatJSON"
	case codec.FormatYAML:
		return "codec.FormatYAML"
	default:
		return "codec.FormatAuto"
	}
}

// encodeStmt emits the statement filling fields[i] from record r.
func encodeStmt(i int, f descriptor.Field) string {
	rf := f.Row
	switch {
	case rf.IsRef && f.Nullable:
		return fmt.Sprintf("if r.%s != nil && !r.%s.IsZero() {\nfields[%d] = %s\n}",
			f.Name, f.Name, i, formatScalar(fmt.Sprintf("(*r.%s).Key()", f.Name), rf.KeyType, rf))
	case rf.IsRef:
		return fmt.Sprintf("if !r.%s.IsZero() {\nfields[%d] = %s\n}",
			f.Name, i, formatScalar(fmt.Sprintf("r.%s.Key()", f.Name), rf.KeyType, rf))
	case f.Nullable:
		return fmt.Sprintf("if r.%s != nil {\nfields[%d] = %s\n}",
			f.Name, i, formatScalar(fmt.Sprintf("(*r.%s)", f.Name), rf.Elem, rf))
	default:
		return fmt.Sprintf("fields[%d] = %s", i, formatScalar("r."+f.Name, rf.Elem, rf))
	}
}

// formatScalar renders the expression converting expr (of printed type
// typeName) to its column string.
func formatScalar(expr, typeName string, rf *descriptor.RowField) string {
	switch rf.Scalar {
	case descriptor.ScalarString:
		if typeName == "string" {
			return expr
		}
		return fmt.Sprintf("string(%s)", expr)
	case descriptor.ScalarBool:
		if typeName != "bool" {
			expr = fmt.Sprintf("bool(%s)", expr)
		}
		return fmt.Sprintf("strconv.FormatBool(%s)", expr)
	case descriptor.ScalarInt:
		return fmt.Sprintf("strconv.FormatInt(int64(%s), 10)", expr)
	case descriptor.ScalarUint:
		return fmt.Sprintf("strconv.FormatUint(uint64(%s), 10)", expr)
	case descriptor.ScalarFloat:
		bits := rf.BitSize
		if bits == 0 {
			bits = 64
		}
		return fmt.Sprintf("strconv.FormatFloat(float64(%s), 'g', -1, %d)", expr, bits)
	default:
		return expr
	}
}

// decodeStmt emits the statement parsing fields[i] into record r.
func decodeStmt(i int, f descriptor.Field) string {
	rf := f.Row
	target := rf.Elem
	if rf.IsRef {
		target = rf.KeyType
	}
	setup, val := parseScalar(i, f.Name, target, rf)
	if rf.IsRef {
		// tabula.Ref[K, R] -> tabula.NewRef[K, R](key)
		val = "tabula.NewRef" + strings.TrimPrefix(rf.Elem, "tabula.Ref") + "(" + val + ")"
	}

	switch {
	case f.Nullable:
		return fmt.Sprintf("if fields[%d] != \"\" {\n%sp%d := %s\nr.%s = &p%d\n}",
			i, setup, i, val, f.Name, i)
	case rf.IsRef:
		return fmt.Sprintf("if fields[%d] != \"\" {\n%sr.%s = %s\n}", i, setup, f.Name, val)
	case setup == "":
		return fmt.Sprintf("r.%s = %s", f.Name, val)
	default:
		return fmt.Sprintf("%sr.%s = %s", setup, f.Name, val)
	}
}

// parseScalar renders the statements parsing fields[i] into a value of the
// printed type target. setup may be empty; val is the final expression.
func parseScalar(i int, col, target string, rf *descriptor.RowField) (setup, val string) {
	errCheck := fmt.Sprintf("if err != nil {\nreturn r, fmt.Errorf(\"column %s: %%w\", err)\n}\n", col)
	conv := func(expr, widened string) string {
		if target == widened {
			return expr
		}
		return fmt.Sprintf("%s(%s)", target, expr)
	}
	switch rf.Scalar {
	case descriptor.ScalarString:
		return "", conv(fmt.Sprintf("fields[%d]", i), "string")
	case descriptor.ScalarBool:
		setup = fmt.Sprintf("v%d, err := strconv.ParseBool(fields[%d])\n%s", i, i, errCheck)
		return setup, conv(fmt.Sprintf("v%d", i), "bool")
	case descriptor.ScalarInt:
		setup = fmt.Sprintf("v%d, err := strconv.ParseInt(fields[%d], 10, %d)\n%s", i, i, rf.BitSize, errCheck)
		return setup, conv(fmt.Sprintf("v%d", i), "int64")
	case descriptor.ScalarUint:
		setup = fmt.Sprintf("v%d, err := strconv.ParseUint(fields[%d], 10, %d)\n%s", i, i, rf.BitSize, errCheck)
		return setup, conv(fmt.Sprintf("v%d", i), "uint64")
	case descriptor.ScalarFloat:
		bits := rf.BitSize
		if bits == 0 {
			bits = 64
		}
		setup = fmt.Sprintf("v%d, err := strconv.ParseFloat(fields[%d], %d)\n%s", i, i, bits, errCheck)
		widened := "float64"
		if bits == 64 {
			return setup, conv(fmt.Sprintf("v%d", i), widened)
		}
		return setup, fmt.Sprintf("%s(v%d)", target, i)
	default:
		return "", fmt.Sprintf("fields[%d]", i)
	}
}

var fileTemplate = template.Must(template.New("tabula_gen").Parse(`// Code generated by tabula-gen. DO NOT EDIT.

package {{.Package}}

import (
{{range .Imports}}	{{.}}
{{end}})

// {{.Context}} aggregates one typed repository per declared model. It
// embeds the orchestrator, so LoadAll, SaveAll, and Reload are available
// directly on the aggregator.
type {{.Context}} struct {
	*tabula.Context
{{range .Models}}	{{.SlotName}} {{.RepoType}}
{{end}}}

// New{{.Context}} declares every dataset on a fresh orchestrator. The
// repositories stay empty until LoadAll installs decoded records.
func New{{.Context}}(opts ...tabula.Option) *{{.Context}} {
	d := &{{.Context}}{Context: tabula.NewContext(opts...)}
{{range .Models}}	d.{{.SlotName}} = {{.RegisterCall}}
{{end}}	return d
}
{{range .Models}}{{if .RowCodec}}
// {{.RowCodec}} maps {{.TypeName}} fields to row columns in declaration
// order.
type {{.RowCodec}} struct{}

func ({{.RowCodec}}) Columns() []string {
	return []string{ {{.ColumnsList}} }
}

func ({{.RowCodec}}) Encode(r {{.TypeName}}) []string {
	fields := make([]string, {{.NumCols}})
{{range .EncodeStmts}}	{{.}}
{{end}}	return fields
}

func ({{.RowCodec}}) Decode(fields []string) ({{.TypeName}}, error) {
	var r {{.TypeName}}
{{range .DecodeStmts}}	{{.}}
{{end}}	return r, nil
}
{{end}}{{end}}`))
