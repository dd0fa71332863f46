package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hansollee/lorecheck/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Lorecheck configuration",
	Long: `Manage Lorecheck configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LORECHECK_*)
3. Config file (~/.lorecheck/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration including all sources (defaults, config file, env vars, flags).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		configFile := viper.ConfigFileUsed()
		if configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))

		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (LORECHECK_*, OPENAI_API_KEY)")
		fmt.Println("  3. Config file (~/.lorecheck/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.lorecheck/config.yaml with all available options documented.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.lorecheck"
		configPath := configDir + "/config.yaml"

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'lorecheck config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		// Helper for writing with error checking
		printf := func(format string, a ...interface{}) {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(f, format, a...)
		}

		printf("# Lorecheck Configuration File\n")
		printf("#\n")
		printf("# Configuration hierarchy (highest to lowest priority):\n")
		printf("#   1. CLI flags\n")
		printf("#   2. Environment variables (LORECHECK_*)\n")
		printf("#   3. This config file\n")
		printf("#   4. Built-in defaults\n\n")

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		if err == nil {
			if _, wErr := f.Write(yamlData); wErr != nil {
				return fmt.Errorf("error writing config: %w", wErr)
			}
		}

		printf("\n# API keys (use environment variables, never this file):\n")
		printf("#   export OPENAI_API_KEY=sk-...\n")
		printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")

		if err != nil {
			return err
		}

		fmt.Printf("Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  lorecheck config show\n")
		fmt.Printf("\n")

		return nil
	},
}

// loadConfig builds the runtime config from defaults overlaid with viper
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("oracle.provider"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := viper.GetString("oracle.model"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := viper.GetString("oracle.base_url"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := viper.GetInt("oracle.timeout"); v > 0 {
		cfg.Oracle.Timeout = v
	}
	if v := viper.GetInt("oracle.max_tokens"); v > 0 {
		cfg.Oracle.MaxTokens = v
	}
	if v := viper.GetInt("chunk.max_len"); v > 0 {
		cfg.Chunk.MaxLen = v
	}
	if v := viper.GetInt("chunk.min_len"); v > 0 {
		cfg.Chunk.MinLen = v
	}
	if v := viper.GetInt("concurrency.proposal_workers"); v > 0 {
		cfg.Concurrency.ProposalWorkers = v
	}
	if v := viper.GetInt("concurrency.resolution_batch_size"); v > 0 {
		cfg.Concurrency.ResolutionBatchSize = v
	}
	if v := viper.GetFloat64("concurrency.oracle_rps"); v > 0 {
		cfg.Concurrency.OracleRPS = v
	}
	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}
	if v := viper.GetString("severity_threshold"); v != "" {
		if sev, ok := model.ParseSeverity(v); ok {
			cfg.SeverityThreshold = sev
		}
	}
	cfg.Output.Verbose = viper.GetBool("verbose")

	// API keys come from the environment only
	cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
