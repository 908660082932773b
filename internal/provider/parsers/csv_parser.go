package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

// CSVParserConfig holds CSV parsing configuration
type CSVParserConfig struct {
	Delimiter  rune     // Field delimiter, 0 to detect
	HasHeader  bool     // Whether the first row names the columns
	NullValues []string // Values to treat as null
}

// CSVParser reads delimited text with a header row
type CSVParser struct {
	config *CSVParserConfig
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// NewCSVParser creates a CSV parser; a nil config detects the delimiter
// and expects a header row
func NewCSVParser(config *CSVParserConfig) *CSVParser {
	if config == nil {
		config = &CSVParserConfig{
			HasHeader:  true,
			NullValues: []string{"", "NULL", "null", "NA", "N/A"},
		}
	}

	return &CSVParser{
		config: config,
	}
}

// Name returns the parser identifier
func (p *CSVParser) Name() string {
	return ParserCSV
}

// Parse reads every record as one row. property is ignored.
func (p *CSVParser) Parse(body []byte, property string, columns []model.Column) (*model.Dataframe, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(body)) == 0 {
		return buildFrame(nil, columns, inferOptions{sniffStrings: true})
	}

	delimiter := p.config.Delimiter
	if delimiter == 0 {
		delimiter = detectDelimiter(body)
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header []string
	var elements []interface{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
		}

		if header == nil && p.config.HasHeader {
			header = uniqueHeader(record)
			continue
		}

		elements = append(elements, p.recordElement(header, record))
	}

	var df *model.Dataframe
	var err error
	if len(elements) == 0 && len(columns) == 0 && header != nil {
		df, err = headerFrame(header)
	} else {
		df, err = buildFrame(elements, columns, inferOptions{sniffStrings: true})
	}
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}
	return df, nil
}

// recordElement keys a record by header name. Without a header the record
// stays positional.
func (p *CSVParser) recordElement(header, record []string) interface{} {
	if header == nil {
		values := make([]interface{}, len(record))
		for i, field := range record {
			values[i] = p.cellValue(field)
		}
		return values
	}

	obj := newOrderedObject()
	for i, name := range header {
		if i < len(record) {
			obj.set(name, p.cellValue(record[i]))
		} else {
			obj.set(name, nil)
		}
	}
	for i := len(header); i < len(record); i++ {
		obj.set(positionalName(i), p.cellValue(record[i]))
	}
	return obj
}

func (p *CSVParser) cellValue(field string) interface{} {
	if p.isNull(field) {
		return nil
	}
	return field
}

// isNull checks if a value should be treated as null
func (p *CSVParser) isNull(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, nullVal := range p.config.NullValues {
		if trimmed == nullVal {
			return true
		}
	}
	return false
}

// detectDelimiter picks the candidate that splits the first lines into the
// most fields, consistently
func detectDelimiter(data []byte) rune {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	best := ','
	bestScore := 0
	for _, delim := range candidateDelimiters {
		score := 0
		expected := -1
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			n := strings.Count(line, string(delim))
			if expected == -1 {
				expected = n
			}
			if n == 0 || n != expected {
				score = 0
				break
			}
			score += n
		}
		if score > bestScore {
			best = delim
			bestScore = score
		}
	}

	return best
}

// uniqueHeader trims header names, fills blanks and suffixes duplicates
// until every name is distinct
func uniqueHeader(record []string) []string {
	header := make([]string, len(record))
	used := make(map[string]bool, len(record))
	for i, name := range record {
		name = strings.TrimSpace(name)
		if name == "" {
			name = positionalName(i)
		}
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[candidate] = true
		header[i] = candidate
	}
	return header
}

// headerFrame types every header column as STRING when the body holds no
// data rows
func headerFrame(header []string) (*model.Dataframe, error) {
	columns := make([]model.Column, len(header))
	for i, name := range header {
		columns[i] = model.Column{Name: name, Type: model.ColumnTypeString}
	}
	return model.NewDataframe(columns, []model.Row{})
}
