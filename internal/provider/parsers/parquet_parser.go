package parsers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

// ParquetParser reads a Parquet file through Arrow
type ParquetParser struct {
	mem memory.Allocator
}

// NewParquetParser creates a Parquet parser
func NewParquetParser() *ParquetParser {
	return &ParquetParser{
		mem: memory.NewGoAllocator(),
	}
}

// Name returns the parser identifier
func (p *ParquetParser) Name() string {
	return ParserParquet
}

// Parse reads the whole file into rows. Column order follows the file
// schema. property is ignored.
func (p *ParquetParser) Parse(body []byte, property string, columns []model.Column) (*model.Dataframe, error) {
	if len(body) == 0 {
		return buildFrame(nil, columns, inferOptions{})
	}

	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(body),
		parquet.NewReaderProperties(p.mem), pqarrow.ArrowReadProperties{}, p.mem)
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: fmt.Errorf("failed to read parquet file: %w", err)}
	}
	defer tbl.Release()

	fields := tbl.Schema().Fields()
	numRows := int(tbl.NumRows())

	elements := make([]interface{}, numRows)
	for r := range elements {
		elements[r] = newOrderedObject()
	}

	for c, field := range fields {
		row := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				elements[row].(*orderedObject).set(field.Name, arrowValue(chunk, i))
				row++
			}
		}
	}

	df, err := buildFrame(elements, columns, inferOptions{})
	if err != nil {
		return nil, &provider.ParseError{Parser: p.Name(), Cause: err}
	}
	return df, nil
}

// arrowValue reads the value at index i as a plain Go value
func arrowValue(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC()
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.Date64:
		return a.Value(i).ToTime().UTC()
	default:
		return a.GetOneForMarshal(i)
	}
}
