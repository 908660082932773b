package parsers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataframe-gateway/internal/model"
)

func TestCSVParserInfersTypes(t *testing.T) {
	body := []byte("id,name,active,joined,score\n1,ann,true,2024-01-02,1.5\n2,bob,false,NULL,\n")

	df, err := NewCSVParser(nil).Parse(body, "", nil)
	require.NoError(t, err)

	assert.Equal(t, []model.Column{
		{Name: "id", Type: model.ColumnTypeNumeric},
		{Name: "name", Type: model.ColumnTypeString},
		{Name: "active", Type: model.ColumnTypeBoolean},
		{Name: "joined", Type: model.ColumnTypeDate},
		{Name: "score", Type: model.ColumnTypeNumeric},
	}, df.Columns)

	assert.Equal(t, model.Row{int64(1), "ann", true, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1.5}, df.Rows[0])
	assert.Equal(t, model.Row{int64(2), "bob", false, nil, nil}, df.Rows[1])
}

func TestCSVParserDetectsDelimiter(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"semicolon", "a;b\n1;x\n2;y\n"},
		{"tab", "a\tb\n1\tx\n2\ty\n"},
		{"pipe", "a|b\n1|x\n2|y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df, err := NewCSVParser(nil).Parse([]byte(tt.body), "", nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, df.ColumnNames())
			assert.Equal(t, 2, df.RowCount())
		})
	}
}

func TestCSVParserDeclaredColumns(t *testing.T) {
	body := []byte("name,id\nann,7\nbob,x\n")
	columns := []model.Column{
		{Name: "id", Type: model.ColumnTypeNumeric},
		{Name: "name", Type: model.ColumnTypeString},
	}

	df, err := NewCSVParser(nil).Parse(body, "", columns)
	require.NoError(t, err)

	assert.Equal(t, model.Row{int64(7), "ann"}, df.Rows[0])
	assert.Equal(t, model.Row{"x", "bob"}, df.Rows[1])
}

func TestCSVParserWithoutHeader(t *testing.T) {
	parser := NewCSVParser(&CSVParserConfig{Delimiter: ',', NullValues: []string{""}})

	df, err := parser.Parse([]byte("1,a\n2,b\n"), "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"column_1", "column_2"}, df.ColumnNames())
	assert.Equal(t, model.Row{int64(2), "b"}, df.Rows[1])
}

func TestCSVParserDuplicateAndBlankHeaders(t *testing.T) {
	df, err := NewCSVParser(nil).Parse([]byte("a,a,\n1,2,3\n"), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "column_3"}, df.ColumnNames())
}

func TestCSVParserSuffixedHeaderCollision(t *testing.T) {
	df, err := NewCSVParser(nil).Parse([]byte("a,a,a_2\n1,2,3\n"), "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a_2", "a_2_2"}, df.ColumnNames())
	require.Equal(t, 1, df.RowCount())
	assert.Equal(t, model.Row{int64(1), int64(2), int64(3)}, df.Rows[0])
}

func TestCSVParserHeaderOnly(t *testing.T) {
	df, err := NewCSVParser(nil).Parse([]byte("id,name\n"), "", nil)
	require.NoError(t, err)

	assert.Equal(t, []model.Column{
		{Name: "id", Type: model.ColumnTypeString},
		{Name: "name", Type: model.ColumnTypeString},
	}, df.Columns)
	assert.Equal(t, 0, df.RowCount())
}

func TestCSVParserHeaderOnlyDeclaredColumns(t *testing.T) {
	declared := []model.Column{{Name: "id", Type: model.ColumnTypeNumeric}}

	df, err := NewCSVParser(nil).Parse([]byte("id,name\n"), "", declared)
	require.NoError(t, err)

	assert.Equal(t, declared, df.Columns)
	assert.Equal(t, 0, df.RowCount())
}

func TestCSVParserEmptyBody(t *testing.T) {
	df, err := NewCSVParser(nil).Parse(nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, df.RowCount())
	assert.Equal(t, 0, df.ColumnCount())
}
