package codec

import (
	"fmt"
	"path"
	"strings"
)

// Format identifies the on-disk encoding of one dataset.
type Format int

const (
	// FormatAuto defers the choice to the storage path's extension.
	FormatAuto Format = iota
	FormatCSV
	FormatJSON
	FormatYAML
)

// String returns the canonical lowercase name of the format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a format name (as written in a marker tag or generator
// config) to a Format. The empty string means FormatAuto.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, &FormatError{Name: name}
	}
}

// FormatError reports a format that cannot be resolved, either because an
// explicit format name is unknown or because a path's extension is not one
// of the recognized dataset extensions.
type FormatError struct {
	Path string // set when inference from a path failed
	Name string // set when an explicit format name was unknown
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("codec: unrecognized extension %q in path %q", path.Ext(e.Path), e.Path)
	}
	return fmt.Sprintf("codec: unknown format %q", e.Name)
}

// Detect infers the format from the path extension. Unrecognized extensions
// are a hard failure for that dataset.
func Detect(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return FormatAuto, &FormatError{Path: p}
	}
}

// Resolve returns the effective format for a dataset: the explicit format
// when one was declared, otherwise the one inferred from the path.
func Resolve(explicit Format, path string) (Format, error) {
	if explicit != FormatAuto {
		return explicit, nil
	}
	return Detect(path)
}
