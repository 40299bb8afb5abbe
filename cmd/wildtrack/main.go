// Package main provides the wildtrack command line tool: one-off predictions
// and inspection of the model artifact and encoding tables.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wildtrack/config"
	"wildtrack/ml"
	"wildtrack/reload"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	modelPath  string
	modelType  string
	schema     string
	asJSON     bool
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "wildtrack",
		Short: "Species extinction risk prediction",
		Long: `wildtrack runs the extinction risk classifier from the command line.

Settings are read from config.yaml; the model flags override it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "config.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.modelPath, "model", "", "Model artifact path (overrides config)")
	cmd.PersistentFlags().StringVar(&g.modelType, "type", "", "Model type: logistic_regression or decision_tree (overrides config)")
	cmd.PersistentFlags().StringVar(&g.schema, "schema", "", "Feature schema: basic or extended (overrides config)")
	cmd.PersistentFlags().BoolVar(&g.asJSON, "json", false, "Print JSON instead of text")

	cmd.AddCommand(predictCmd(g), inspectCmd(g), tablesCmd(g))
	return cmd
}

// loadConfig reads the config file when present and applies the flag
// overrides. A missing default config file falls back to the defaults.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	path := config.Locate(g.configPath)
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		loaded.ResolvePaths(path)
		cfg = loaded
	} else if g.configPath != "config.yaml" {
		return nil, fmt.Errorf("config %s: %w", g.configPath, err)
	}

	if g.modelPath != "" {
		cfg.Model.Path = g.modelPath
	}
	if g.modelType != "" {
		cfg.Model.Type = g.modelType
	}
	if g.schema != "" {
		cfg.Model.Schema = g.schema
	}
	return cfg, cfg.Validate()
}

func (g *globalFlags) service() (*ml.Service, *config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	opts, err := reload.OptionsFromConfig(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	svc, err := reload.LoadService(opts)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
