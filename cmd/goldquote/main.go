package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"goldquote/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "goldquote",
	Short:         "goldquote fetches live gold and coin prices from Iranian market sources.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	rootCmd.AddCommand(fetchCmd, dumpCmd)
}

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
