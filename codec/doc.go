// Package codec holds the file format codecs for tabula datasets: a
// structured JSON document codec, a YAML key-value document codec, and the
// row format (delimiter-separated text with quoted-field escaping).
//
// The document codecs are generic over the record type. The row format is
// not: its column mapping depends on field declaration order, so each row
// model gets a generated RowCodec and this package only supplies the shared
// tokenizer and writer.
package codec
