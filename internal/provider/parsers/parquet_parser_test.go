package parsers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

func writeParquet(t *testing.T) []byte {
	t.Helper()

	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "city", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "population", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "capital", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.StringBuilder).AppendValues([]string{"Oslo", "Bergen"}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{709000, 0}, []bool{true, false})
	b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)

	rec := b.NewRecord()
	defer rec.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	err := pqarrow.WriteTable(tbl, &buf, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)

	return buf.Bytes()
}

func TestParquetParserReadsFile(t *testing.T) {
	df, err := NewParquetParser().Parse(writeParquet(t), "", nil)
	require.NoError(t, err)

	assert.Equal(t, []model.Column{
		{Name: "city", Type: model.ColumnTypeString},
		{Name: "population", Type: model.ColumnTypeNumeric},
		{Name: "capital", Type: model.ColumnTypeBoolean},
	}, df.Columns)
	assert.Equal(t, model.Row{"Oslo", int64(709000), true}, df.Rows[0])
	assert.Equal(t, model.Row{"Bergen", nil, false}, df.Rows[1])
}

func TestParquetParserProjection(t *testing.T) {
	columns := []model.Column{{Name: "population", Type: model.ColumnTypeString}}

	df, err := NewParquetParser().Parse(writeParquet(t), "", columns)
	require.NoError(t, err)
	assert.Equal(t, []model.Row{{"709000"}, {nil}}, df.Rows)
}

func TestParquetParserRejectsGarbage(t *testing.T) {
	_, err := NewParquetParser().Parse([]byte("definitely not parquet"), "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrParse))
}
