package model

import (
	"fmt"
	"strings"
)

// ColumnType represents the standardized value type of a dataframe column
type ColumnType string

const (
	ColumnTypeString  ColumnType = "STRING"
	ColumnTypeNumeric ColumnType = "NUMERIC"
	ColumnTypeBoolean ColumnType = "BOOLEAN"
	ColumnTypeDate    ColumnType = "DATE"
	ColumnTypeUnknown ColumnType = "UNKNOWN"
)

// ParseColumnType maps a declared type name to a ColumnType.
// Matching is case-insensitive and accepts the common aliases.
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "STRING", "TEXT", "VARCHAR":
		return ColumnTypeString, nil
	case "NUMERIC", "NUMBER", "INTEGER", "INT", "BIGINT", "FLOAT", "DOUBLE", "DECIMAL":
		return ColumnTypeNumeric, nil
	case "BOOLEAN", "BOOL":
		return ColumnTypeBoolean, nil
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return ColumnTypeDate, nil
	case "UNKNOWN", "MIXED", "ANY":
		return ColumnTypeUnknown, nil
	default:
		return "", fmt.Errorf("unknown column type %q", name)
	}
}

// Column represents a named, typed dataframe column
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Row is a fixed-width tuple aligned to the dataframe columns
type Row []interface{}

// Dataframe is an in-memory table: ordered columns and ordered rows
type Dataframe struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewDataframe assembles a dataframe, checking that every row matches the column count
func NewDataframe(columns []Column, rows []Row) (*Dataframe, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, dup := seen[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		seen[col.Name] = struct{}{}
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}

	if columns == nil {
		columns = []Column{}
	}
	if rows == nil {
		rows = []Row{}
	}

	return &Dataframe{
		Columns: columns,
		Rows:    rows,
	}, nil
}

// ColumnCount returns the number of columns
func (df *Dataframe) ColumnCount() int {
	return len(df.Columns)
}

// RowCount returns the number of rows
func (df *Dataframe) RowCount() int {
	return len(df.Rows)
}

// ColumnNames returns the column names in order
func (df *Dataframe) ColumnNames() []string {
	names := make([]string, len(df.Columns))
	for i, col := range df.Columns {
		names[i] = col.Name
	}
	return names
}
