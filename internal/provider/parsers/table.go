package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"dataframe-gateway/internal/model"
)

const (
	// scalarColumn holds elements that are neither objects nor arrays
	scalarColumn = "value"

	positionalPrefix = "column_"
)

// buildFrame turns located elements into a dataframe. Elements are
// *orderedObject (mapped by key), []interface{} (mapped by position) or scalars.
func buildFrame(elements []interface{}, declared []model.Column, opts inferOptions) (*model.Dataframe, error) {
	if len(declared) > 0 {
		return projectFrame(elements, declared)
	}
	return inferFrame(elements, opts)
}

// projectFrame maps every element onto exactly the declared columns
func projectFrame(elements []interface{}, declared []model.Column) (*model.Dataframe, error) {
	columns := make([]model.Column, len(declared))
	copy(columns, declared)

	rows := make([]model.Row, 0, len(elements))
	for _, elem := range elements {
		row := make(model.Row, len(columns))
		for i, col := range columns {
			raw := declaredCell(elem, col.Name, i, len(columns))
			row[i] = coerceValue(raw, col.Type)
		}
		rows = append(rows, row)
	}

	return model.NewDataframe(columns, rows)
}

// inferFrame derives columns from the union of element keys in first-seen
// order, then types each column by its dominant value type
func inferFrame(elements []interface{}, opts inferOptions) (*model.Dataframe, error) {
	names := inferColumnNames(elements)

	cells := make([][]interface{}, len(elements))
	for r, elem := range elements {
		cells[r] = make([]interface{}, len(names))
		for c, name := range names {
			cells[r][c] = inferredCell(elem, name)
		}
	}

	columns := make([]model.Column, len(names))
	for c, name := range names {
		values := make([]interface{}, len(elements))
		for r := range elements {
			values[r] = cells[r][c]
		}
		columns[c] = model.Column{Name: name, Type: dominantType(values, opts)}
	}

	rows := make([]model.Row, len(elements))
	for r := range elements {
		row := make(model.Row, len(columns))
		for c, col := range columns {
			row[c] = coerceValue(cells[r][c], col.Type)
		}
		rows[r] = row
	}

	return model.NewDataframe(columns, rows)
}

func inferColumnNames(elements []interface{}) []string {
	var names []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, elem := range elements {
		switch e := elem.(type) {
		case nil:
		case *orderedObject:
			for _, key := range e.keys {
				add(key)
			}
		case []interface{}:
			for i := range e {
				add(positionalName(i))
			}
		default:
			add(scalarColumn)
		}
	}

	return names
}

// declaredCell finds the value for a declared column. Objects match by key
// and then by dotted path; arrays match by declaration position.
func declaredCell(elem interface{}, name string, pos, width int) interface{} {
	switch e := elem.(type) {
	case nil:
		return nil
	case *orderedObject:
		if v, ok := e.values[name]; ok {
			return v
		}
		if v, ok := lookupNested(e, name); ok {
			return v
		}
		return nil
	case []interface{}:
		if pos < len(e) {
			return e[pos]
		}
		return nil
	default:
		if name == scalarColumn || width == 1 {
			return e
		}
		return nil
	}
}

func inferredCell(elem interface{}, name string) interface{} {
	switch e := elem.(type) {
	case nil:
		return nil
	case *orderedObject:
		return e.values[name]
	case []interface{}:
		if idx, ok := positionalIndex(name); ok && idx < len(e) {
			return e[idx]
		}
		return nil
	default:
		if name == scalarColumn {
			return e
		}
		return nil
	}
}

func positionalName(i int) string {
	return fmt.Sprintf("%s%d", positionalPrefix, i+1)
}

func positionalIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, positionalPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, positionalPrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
