package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"data/items.csv", FormatCSV},
		{"data/items.json", FormatJSON},
		{"data/items.yaml", FormatYAML},
		{"data/items.yml", FormatYAML},
		{"data/ITEMS.CSV", FormatCSV},
	}
	for _, tt := range tests {
		got, err := Detect(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestDetectUnrecognized(t *testing.T) {
	for _, path := range []string{"data/items.txt", "data/items", "data/items.csv.bak"} {
		_, err := Detect(path)
		var fe *FormatError
		require.ErrorAs(t, err, &fe, path)
		assert.Equal(t, path, fe.Path)
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve(FormatYAML, "data/items.txt")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, got, "explicit format wins over extension")

	got, err = Resolve(FormatAuto, "data/items.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, got)
}

func TestParseFormat(t *testing.T) {
	got, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, got)

	got, err = ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, got)

	_, err = ParseFormat("xml")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

type doc struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level" yaml:"level"`
}

func TestDocumentListRoundTrip(t *testing.T) {
	records := []doc{{Name: "a", Level: 1}, {Name: "b", Level: 2}}
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := EncodeList(format, records)
		require.NoError(t, err, format)

		got, err := DecodeList[doc](format, data)
		require.NoError(t, err, format)
		assert.Equal(t, records, got, format)
	}
}

func TestDocumentOneRoundTrip(t *testing.T) {
	record := doc{Name: "solo", Level: 7}
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := EncodeOne(format, record)
		require.NoError(t, err, format)

		got, err := DecodeOne[doc](format, data)
		require.NoError(t, err, format)
		assert.Equal(t, record, got, format)
	}
}

func TestDocumentRejectsRowFormat(t *testing.T) {
	_, err := DecodeList[doc](FormatCSV, []byte("name,level\n"))
	assert.Error(t, err)
	_, err = EncodeOne(FormatCSV, doc{})
	assert.Error(t, err)
}
