package parsers

import (
	"bufio"
	"bytes"
	"fmt"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

// JSONParser reads an array out of a JSON document
type JSONParser struct{}

// NewJSONParser creates the default response parser
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Name returns the parser identifier
func (p *JSONParser) Name() string {
	return ParserJSON
}

// Parse locates the array at property and turns its elements into rows.
// Strings are only read as dates; numbers and booleans must be JSON-typed.
func (p *JSONParser) Parse(body []byte, property string, columns []model.Column) (*model.Dataframe, error) {
	root, err := decodeOrderedJSON(body)
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}

	elements, err := resolveArray(root, property)
	if err != nil {
		return nil, err
	}

	df, err := buildFrame(elements, columns, inferOptions{})
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}
	return df, nil
}

// JSONLinesParser reads newline-delimited JSON, one row per line
type JSONLinesParser struct{}

// NewJSONLinesParser creates a JSON Lines parser
func NewJSONLinesParser() *JSONLinesParser {
	return &JSONLinesParser{}
}

// Name returns the parser identifier
func (p *JSONLinesParser) Name() string {
	return ParserJSONLines
}

// Parse decodes every non-blank line as one element. property is ignored.
func (p *JSONLinesParser) Parse(body []byte, property string, columns []model.Column) (*model.Dataframe, error) {
	var elements []interface{}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		value, err := decodeOrderedJSON(line)
		if err != nil {
			return nil, &provider.ParseError{Parser: p.Name(), Cause: fmt.Errorf("line %d: %w", lineNum, err)}
		}
		elements = append(elements, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}

	df, err := buildFrame(elements, columns, inferOptions{})
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}
	return df, nil
}
