package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/catalogue/internal/config"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:           "catalogue",
	Short:         "Product catalogue API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "path to the yaml config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to the .env file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func loadConfig() (config.Config, error) {
	return config.Load(configFile, envFile)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
