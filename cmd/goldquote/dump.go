package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"goldquote/internal/extract"
)

var (
	dumpSource string
	dumpOut    string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Save the raw upstream text and show which pattern matched each field.",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(dumpSource)
		if err != nil {
			return err
		}
		text, err := src.Raw.FetchText(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch %s: %w", src.Name, err)
		}
		if dumpOut != "" {
			if err := os.WriteFile(dumpOut, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dumpOut, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(text), dumpOut)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Field", "Pattern", "Raw", "Value"})
		for _, f := range src.Fields {
			m, ok := extract.ExtractMatch(text, f.Patterns)
			if !ok {
				t.AppendRow(table.Row{f.Key, "-", "-", "-"})
				continue
			}
			t.AppendRow(table.Row{f.Key, m.Pattern, m.Raw, m.Value})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpSource, "source", "s", "", "source name; default from config")
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "file to write the raw upstream text to")
}
