package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/linkedin/goavro/v2"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

// AvroParser reads an Avro object container file
type AvroParser struct{}

// NewAvroParser creates an Avro parser
func NewAvroParser() *AvroParser {
	return &AvroParser{}
}

// Name returns the parser identifier
func (p *AvroParser) Name() string {
	return ParserAvro
}

// avroField is the part of a record field schema the parser needs
type avroField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

func (f avroField) isUnion() bool {
	trimmed := bytes.TrimSpace(f.Type)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Parse reads every record in the container. Column order follows the
// writer schema; union values are unwrapped. property is ignored.
func (p *AvroParser) Parse(body []byte, property string, columns []model.Column) (*model.Dataframe, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return buildFrame(nil, columns, inferOptions{})
	}

	ocf, err := goavro.NewOCFReader(bytes.NewReader(body))
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: fmt.Errorf("failed to create OCF reader: %w", err)}
	}

	fields, err := recordFields(ocf.Codec().Schema())
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}

	var elements []interface{}
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, &provider.ParseError{Parser: p.Name(), Cause: fmt.Errorf("failed to read Avro record: %w", err)}
		}
		elements = append(elements, avroElement(datum, fields))
	}
	if err := ocf.Err(); err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}

	df, err := buildFrame(elements, columns, inferOptions{})
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}
	return df, nil
}

// recordFields extracts the top-level fields of a record schema. Other
// schemas yield no fields and their values land in a single column.
func recordFields(schema string) ([]avroField, error) {
	var parsed struct {
		Type   interface{} `json:"type"`
		Fields []avroField `json:"fields"`
	}
	trimmed := bytes.TrimSpace([]byte(schema))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return nil, fmt.Errorf("failed to read Avro schema: %w", err)
	}
	if parsed.Type != "record" {
		return nil, nil
	}
	return parsed.Fields, nil
}

func avroElement(datum interface{}, fields []avroField) interface{} {
	record, ok := datum.(map[string]interface{})
	if !ok || len(fields) == 0 {
		return avroValue(datum, false)
	}

	obj := newOrderedObject()
	for _, field := range fields {
		obj.set(field.Name, avroValue(record[field.Name], field.isUnion()))
	}
	return obj
}

// avroValue converts goavro native values into the forms the table builder
// understands. Unions decode as a single-entry map keyed by branch type.
func avroValue(value interface{}, union bool) interface{} {
	if union {
		if branch, ok := value.(map[string]interface{}); ok && len(branch) == 1 {
			for _, inner := range branch {
				return avroValue(inner, false)
			}
		}
	}

	switch v := value.(type) {
	case []byte:
		return string(v)
	case *big.Rat:
		f, _ := v.Float64()
		return f
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			out[key] = avroValue(inner, false)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = avroValue(inner, false)
		}
		return out
	default:
		return v
	}
}
