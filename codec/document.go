package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeList decodes a document holding a top-level sequence of records,
// as used by Table datasets in the document formats.
func DecodeList[R any](format Format, data []byte) ([]R, error) {
	var out []R
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode json list: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode yaml list: %w", err)
		}
	default:
		return nil, fmt.Errorf("codec: %s is not a document format", format)
	}
	return out, nil
}

// EncodeList is the inverse of DecodeList. JSON output is indented and
// YAML output is block-style so data files stay hand-editable.
func EncodeList[R any](format Format, records []R) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json list: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		return marshalYAML(records)
	default:
		return nil, fmt.Errorf("codec: %s is not a document format", format)
	}
}

// DecodeOne decodes a document holding exactly one record, as used by
// Single datasets.
func DecodeOne[R any](format Format, data []byte) (R, error) {
	var out R
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode json document: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode yaml document: %w", err)
		}
	default:
		return out, fmt.Errorf("codec: %s is not a document format", format)
	}
	return out, nil
}

// EncodeOne is the inverse of DecodeOne.
func EncodeOne[R any](format Format, record R) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json document: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		return marshalYAML(record)
	default:
		return nil, fmt.Errorf("codec: %s is not a document format", format)
	}
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
