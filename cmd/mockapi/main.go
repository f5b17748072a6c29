package main

import (
	"fmt"
	"os"

	"github.com/platinummonkey/mockapi/pkg/config"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mockapi",
	Short: "Mock eReserve and resource API",
	Long: `mockapi serves a read-only eReserve catalog as JSON:API and a small
CSV-backed resources API, with JWT login and API key authentication.`,
	SilenceUsage: true,
}

// loadConfig reads the --config file (if any) and the environment, then
// builds the logger the config asks for.
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("email", "", "Email of a catalog user")
	_ = tokenCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
