package parsers

import (
	"dataframe-gateway/internal/model"
)

// Built-in parser identifiers
const (
	ParserJSON      = "json"
	ParserJSONLines = "jsonl"
	ParserCSV       = "csv"
	ParserAvro      = "avro"
	ParserParquet   = "parquet"

	// DefaultParser is used when a schema does not name one
	DefaultParser = ParserJSON
)

// ResponseParser turns a raw response body into tabular content.
//
// property locates the payload inside the body (formats without nesting ignore it).
// When columns is non-empty the result has exactly those columns in that order;
// otherwise columns are inferred from the data. The returned dataframe is unnamed.
type ResponseParser interface {
	// Name returns the identifier the parser is registered under
	Name() string

	// Parse converts body into columns and rows
	Parse(body []byte, property string, columns []model.Column) (*model.Dataframe, error)
}
