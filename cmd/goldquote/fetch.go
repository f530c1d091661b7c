package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"goldquote/internal/config"
	"goldquote/internal/httpx"
	"goldquote/internal/quote"
	"goldquote/internal/sources"
)

var (
	fetchSource string
	fetchJSON   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one quote and print it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(fetchSource)
		if err != nil {
			return err
		}
		p, err := src.Provider.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch %s: %w", src.Name, err)
		}
		if fetchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		renderPayload(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchSource, "source", "s", "", "source name (tgju, navasan, sample); default from config")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the JSON payload instead of a table")
}

// openSource loads config and returns the named source, or the default one.
func openSource(name string) (sources.Source, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return sources.Source{}, fmt.Errorf("config: %w", err)
	}
	if name == "" {
		name = cfg.Server.DefaultSource
	}
	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	if cfg.Tgju.UserAgent != "" {
		hc.UserAgent = cfg.Tgju.UserAgent
	}
	set, err := sources.Build(cfg, hc)
	if err != nil {
		return sources.Source{}, err
	}
	src, ok := set[name]
	if !ok {
		return sources.Source{}, fmt.Errorf("source %q is not enabled (enabled: %v)", name, set.Names())
	}
	return src, nil
}

func renderPayload(w io.Writer, p quote.Payload) {
	keys := make([]string, 0, len(p.Values))
	for k := range p.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, k := range keys {
		v, ok := p.Value(k)
		if !ok {
			v = "-"
		}
		t.AppendRow(table.Row{k, v})
	}
	t.AppendFooter(table.Row{p.Source, p.Timestamp.Format(quote.TimestampLayout)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
