package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/spf13/cobra"

	"dataframe-gateway/internal/export"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider/httpprovider"
	"dataframe-gateway/internal/provider/parsers"
)

type loadFlags struct {
	file     string
	set      []string
	output   string
	table    string
	parallel int
	timeout  time.Duration
	maxRows  int
}

func newLoadCmd() *cobra.Command {
	flags := &loadFlags{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Fetch every schema in a source file and print the dataframes",
		Example: "  dfload load -f orders.yaml\n" +
			"  dfload load -f orders.json5 --set timeout=5000 -o json\n" +
			"  dfload load -f batch.yaml -o arrow --table orders > orders.arrow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Source configuration file (.yaml, .yml, .json, .json5)")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "Override a configuration key (dotted path, e.g. schemas.0.url=http://...)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "table", "Output format (table, json, arrow)")
	cmd.Flags().StringVar(&flags.table, "table", "", "Dataframe to write with -o arrow (default: the first)")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 1, "Number of schemas fetched concurrently")
	cmd.Flags().DurationVar(&flags.timeout, "default-timeout", httpprovider.DefaultTimeout, "Timeout for schemas that do not set one")
	cmd.Flags().IntVar(&flags.maxRows, "max-rows", 20, "Rows printed per dataframe with -o table (0 prints all)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runLoad(cmd *cobra.Command, flags *loadFlags) error {
	switch flags.output {
	case "table", "json", "arrow":
	default:
		return fmt.Errorf("unknown output format %q", flags.output)
	}

	config, err := readSourceFile(flags.file)
	if err != nil {
		return err
	}
	for _, assignment := range flags.set {
		if err := applySet(config, assignment); err != nil {
			return err
		}
	}

	p := httpprovider.NewProvider(
		httpprovider.NewBuilder(parsers.NewRegistry(), flags.timeout),
		httpprovider.NewFetcher(&httpprovider.FetcherConfig{UserAgent: "dfload/" + version}, nil),
		flags.parallel,
	)

	start := time.Now()
	frames, err := p.LoadData(cmd.Context(), config)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	switch flags.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(model.NewLoadResponse("", frames, elapsed))
	case "arrow":
		df, err := selectFrame(frames, flags.table)
		if err != nil {
			return err
		}
		return export.WriteIPC(out, df, memory.DefaultAllocator)
	default:
		for i, df := range frames {
			if i > 0 {
				fmt.Fprintln(out)
			}
			renderDataframe(out, df, flags.maxRows)
		}
		fmt.Fprintf(out, "\n%d dataframe(s) loaded in %s\n", len(frames), elapsed.Round(time.Millisecond))
		return nil
	}
}

func selectFrame(frames []*model.Dataframe, name string) (*model.Dataframe, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("source produced no dataframes")
	}
	if name == "" {
		return frames[0], nil
	}
	for _, df := range frames {
		if df.Name == name {
			return df, nil
		}
	}
	return nil, fmt.Errorf("dataframe %q not found", name)
}
