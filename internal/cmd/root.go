package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"aviatorpro/internal/config"
)

var (
	configPath string
	envOnly    bool
)

var rootCmd = &cobra.Command{
	Use:          "signalctl",
	Short:        "Operator tool for the AviatorPro signal service",
	Long:         `signalctl runs the signal pipeline by hand: classify a file of rounds, generate the hourly signal against the database, or show which platform is live.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr("AP_CONFIG", "config/config.yaml"), "config file")
	rootCmd.PersistentFlags().BoolVar(&envOnly, "env-only", false, "skip the config file and read AP_* variables only")
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath, envOnly)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
