// Package export converts dataframes into Apache Arrow records.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"dataframe-gateway/internal/model"
)

// MetadataName is the schema metadata key holding the dataframe name
const MetadataName = "dataframe.name"

// ContentType is the media type of an Arrow IPC stream
const ContentType = "application/vnd.apache.arrow.stream"

// ArrowType returns the arrow type a column type is exported as
func ArrowType(t model.ColumnType) arrow.DataType {
	switch t {
	case model.ColumnTypeNumeric:
		return arrow.PrimitiveTypes.Float64
	case model.ColumnTypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case model.ColumnTypeDate:
		return arrow.FixedWidthTypes.Timestamp_ms
	default:
		return arrow.BinaryTypes.String
	}
}

// Schema builds the arrow schema of a dataframe. Every field is nullable.
func Schema(df *model.Dataframe) *arrow.Schema {
	fields := make([]arrow.Field, len(df.Columns))
	for i, col := range df.Columns {
		fields[i] = arrow.Field{Name: col.Name, Type: ArrowType(col.Type), Nullable: true}
	}
	md := arrow.NewMetadata([]string{MetadataName}, []string{df.Name})
	return arrow.NewSchema(fields, &md)
}

// ToArrowRecord converts df into a single record. Cells that do not fit
// their column type become null, except in string columns where they are
// rendered as text. The caller must Release the record.
func ToArrowRecord(df *model.Dataframe, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	schema := Schema(df)
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for r, row := range df.Rows {
		if len(row) != len(df.Columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", r, len(row), len(df.Columns))
		}
		for c, value := range row {
			appendValue(builder.Field(c), value)
		}
	}

	return builder.NewRecord(), nil
}

// WriteIPC writes df to w as an Arrow IPC stream
func WriteIPC(w io.Writer, df *model.Dataframe, mem memory.Allocator) error {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	rec, err := ToArrowRecord(df, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close arrow stream: %w", err)
	}
	return nil
}

func appendValue(b array.Builder, value interface{}) {
	if value == nil {
		b.AppendNull()
		return
	}

	switch fb := b.(type) {
	case *array.Float64Builder:
		if f, ok := toFloat(value); ok {
			fb.Append(f)
			return
		}
	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			fb.Append(v)
			return
		}
	case *array.TimestampBuilder:
		if t, ok := value.(time.Time); ok {
			fb.Append(arrow.Timestamp(t.UTC().UnixMilli()))
			return
		}
	case *array.StringBuilder:
		fb.Append(toText(value))
		return
	}
	b.AppendNull()
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toText(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case json.Number:
		return v.String()
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
