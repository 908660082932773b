package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"dataframe-gateway/internal/model"
)

// renderDataframe prints df as a box table, truncated to maxRows rows
func renderDataframe(w io.Writer, df *model.Dataframe, maxRows int) {
	fmt.Fprintf(w, "%s (%d rows, %d columns)\n", df.Name, df.RowCount(), df.ColumnCount())

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, 0, df.ColumnCount())
	for _, col := range df.Columns {
		header = append(header, fmt.Sprintf("%s\n%s", col.Name, col.Type))
	}
	tw.AppendHeader(header)

	rows := df.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		cells := make(table.Row, len(row))
		for i, value := range row {
			cells[i] = cellText(value)
		}
		tw.AppendRow(cells)
	}
	if hidden := df.RowCount() - len(rows); hidden > 0 {
		tw.AppendFooter(table.Row{fmt.Sprintf("... %d more", hidden)})
	}
	tw.Render()
}

func cellText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
