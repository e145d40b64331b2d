// Package analyzer discovers tabula model declarations in Go source. It
// type-checks the requested packages, finds struct types carrying a
// tabula.Table or tabula.Single marker field, and normalizes them into
// descriptors for the code generator.
//
// Per-model failures (missing storage path, undeterminable key type,
// missing Key method) are collected as Problems and never abort analysis
// of the remaining models.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/vk/tabula/codec"
	"github.com/vk/tabula/internal/ctxlog"
	"github.com/vk/tabula/internal/descriptor"
)

// tabulaPkgPath identifies the marker types the analyzer looks for.
const tabulaPkgPath = "github.com/vk/tabula"

// tagKey mirrors tabula.TagKey without importing the runtime package.
const tagKey = "tabula"

// Result is the outcome of one analysis run: descriptors in discovery
// order plus the per-model problems encountered along the way.
type Result struct {
	Models   []descriptor.Model
	Problems []descriptor.Problem
}

// Load type-checks the packages matched by patterns (resolved relative to
// dir when non-empty) and scans them for models. Discovery order follows
// package order, then file order, then declaration order, so re-analysis
// of unchanged input yields an identical descriptor list.
func Load(ctx context.Context, dir string, patterns ...string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:     dir,
		Context: ctx,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var loadErrs []error
	for _, p := range pkgs {
		for _, e := range p.Errors {
			loadErrs = append(loadErrs, e)
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("type-check packages: %w", errors.Join(loadErrs...))
	}

	res := &Result{}
	for _, p := range pkgs {
		scanPackage(p, res)
	}

	for _, problem := range res.Problems {
		logger.Warn("Model excluded from generation.", "problem", problem.String())
	}
	logger.Debug("Analysis complete.", "models", len(res.Models), "problems", len(res.Problems))
	return res, nil
}

func scanPackage(p *packages.Package, res *Result) {
	for _, file := range p.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				scanType(p, ts, res)
			}
		}
	}
}

func scanType(p *packages.Package, ts *ast.TypeSpec, res *Result) {
	obj, ok := p.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		return
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return
	}

	pos := p.Fset.Position(ts.Pos()).String()
	fail := func(format string, args ...any) {
		res.Problems = append(res.Problems, descriptor.Problem{
			Model: obj.Name(),
			Pos:   pos,
			Msg:   fmt.Sprintf(format, args...),
		})
	}

	// Locate at most one schema marker. A struct without one is not a
	// model and is skipped silently.
	markerIdx := -1
	var kind descriptor.Kind
	var keyType types.Type
	for i := 0; i < st.NumFields(); i++ {
		k, key, ok := markerOf(st.Field(i).Type())
		if !ok {
			continue
		}
		if markerIdx >= 0 {
			fail("multiple schema markers declared")
			return
		}
		markerIdx, kind, keyType = i, k, key
	}
	if markerIdx < 0 {
		return
	}

	path, format, err := parseMarkerTag(st.Tag(markerIdx))
	if err != nil {
		fail("%v", err)
		return
	}
	if path == "" {
		fail("marker tag declares no storage path")
		return
	}

	// Key-type and field-type imports are tracked separately: the key type
	// is always printed into the generated file, field types only when a
	// row codec is emitted.
	keyImports := make(map[string]bool)
	fieldImports := make(map[string]bool)
	qualInto := func(set map[string]bool) types.Qualifier {
		return func(pkg *types.Package) string {
			set[pkg.Path()] = true
			return pkg.Name()
		}
	}

	model := descriptor.Model{
		Name:    obj.Name(),
		PkgPath: p.PkgPath,
		PkgName: p.Name,
		Kind:    kind,
		Path:    path,
		Format:  format,
	}

	if kind == descriptor.KindTable {
		if keyType == nil {
			fail("cannot determine key type from table marker")
			return
		}
		model.KeyType = types.TypeString(keyType, qualInto(keyImports))
		if msg := checkKeyMethod(named, keyType); msg != "" {
			fail("%s", msg)
			return
		}
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if i == markerIdx || !f.Exported() {
			continue
		}
		model.Fields = append(model.Fields, fieldOf(f, qualInto(fieldImports)))
	}

	model.Imports = sortedKeys(keyImports)
	model.FieldImports = sortedKeys(fieldImports)
	res.Models = append(res.Models, model)
}

// markerOf reports whether t is one of the schema markers. For a table
// marker the key type argument is returned; a nil key with ok=true means
// the marker was present but the key could not be determined.
func markerOf(t types.Type) (descriptor.Kind, types.Type, bool) {
	n, ok := t.(*types.Named)
	if !ok {
		return 0, nil, false
	}
	obj := n.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != tabulaPkgPath {
		return 0, nil, false
	}
	switch obj.Name() {
	case "Table":
		args := n.TypeArgs()
		if args == nil || args.Len() != 1 {
			return descriptor.KindTable, nil, true
		}
		return descriptor.KindTable, args.At(0), true
	case "Single":
		return descriptor.KindSingle, nil, true
	default:
		return 0, nil, false
	}
}

// parseMarkerTag splits `tabula:"path,format=yaml"` into its parts.
func parseMarkerTag(tag string) (path string, format codec.Format, err error) {
	value := reflect.StructTag(tag).Get(tagKey)
	parts := strings.Split(value, ",")
	path = strings.TrimSpace(parts[0])
	format = codec.FormatAuto
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "format="):
			format, err = codec.ParseFormat(strings.TrimPrefix(part, "format="))
			if err != nil {
				return "", codec.FormatAuto, err
			}
		case part == "":
		default:
			return "", codec.FormatAuto, fmt.Errorf("unknown marker tag option %q", part)
		}
	}
	return path, format, nil
}

// checkKeyMethod verifies the record exposes Key() K on its value method
// set, which is what the generated repositories and row codecs call.
func checkKeyMethod(named *types.Named, keyType types.Type) string {
	sel := types.NewMethodSet(named).Lookup(nil, "Key")
	if sel == nil {
		return fmt.Sprintf("table record must implement Key() %s", keyType)
	}
	sig, ok := sel.Obj().Type().(*types.Signature)
	if !ok || sig.Params().Len() != 0 || sig.Results().Len() != 1 ||
		!types.Identical(sig.Results().At(0).Type(), keyType) {
		return fmt.Sprintf("Key method must have signature Key() %s", keyType)
	}
	return ""
}

func fieldOf(f *types.Var, qual types.Qualifier) descriptor.Field {
	t := f.Type()
	field := descriptor.Field{
		Name: f.Name(),
		Type: types.TypeString(t, qual),
	}
	if ptr, ok := t.(*types.Pointer); ok {
		field.Nullable = true
		t = ptr.Elem()
	}
	field.Row = rowFieldOf(t, qual)
	return field
}

// rowFieldOf classifies a field type for row-format conversion. Types with
// no scalar representation return nil; the generator reports them only for
// models whose effective format is the row format.
func rowFieldOf(t types.Type, qual types.Qualifier) *descriptor.RowField {
	if n, ok := t.(*types.Named); ok {
		obj := n.Obj()
		if obj.Pkg() != nil && obj.Pkg().Path() == tabulaPkgPath && obj.Name() == "Ref" {
			args := n.TypeArgs()
			if args == nil || args.Len() != 2 {
				return nil
			}
			scalar, bits, ok := scalarOf(args.At(0))
			if !ok {
				return nil
			}
			return &descriptor.RowField{
				Elem:    types.TypeString(t, qual),
				Scalar:  scalar,
				BitSize: bits,
				IsRef:   true,
				KeyType: types.TypeString(args.At(0), qual),
			}
		}
	}
	scalar, bits, ok := scalarOf(t)
	if !ok {
		return nil
	}
	return &descriptor.RowField{
		Elem:    types.TypeString(t, qual),
		Scalar:  scalar,
		BitSize: bits,
	}
}

func scalarOf(t types.Type) (descriptor.ScalarKind, int, bool) {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return 0, 0, false
	}
	switch basic.Kind() {
	case types.String:
		return descriptor.ScalarString, 0, true
	case types.Bool:
		return descriptor.ScalarBool, 0, true
	case types.Int:
		return descriptor.ScalarInt, 0, true
	case types.Int8:
		return descriptor.ScalarInt, 8, true
	case types.Int16:
		return descriptor.ScalarInt, 16, true
	case types.Int32:
		return descriptor.ScalarInt, 32, true
	case types.Int64:
		return descriptor.ScalarInt, 64, true
	case types.Uint:
		return descriptor.ScalarUint, 0, true
	case types.Uint8:
		return descriptor.ScalarUint, 8, true
	case types.Uint16:
		return descriptor.ScalarUint, 16, true
	case types.Uint32:
		return descriptor.ScalarUint, 32, true
	case types.Uint64:
		return descriptor.ScalarUint, 64, true
	case types.Float32:
		return descriptor.ScalarFloat, 32, true
	case types.Float64:
		return descriptor.ScalarFloat, 64, true
	default:
		return 0, 0, false
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
