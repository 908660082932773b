package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"dataframe-gateway/internal/provider/parsers"
)

func newParsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parsers",
		Short: "List the registered response parsers",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Parser", "Default"})
			for _, name := range parsers.NewRegistry().List() {
				isDefault := ""
				if name == parsers.DefaultParser {
					isDefault = "yes"
				}
				tw.AppendRow(table.Row{name, isDefault})
			}
			tw.Render()
			return nil
		},
	}
}
