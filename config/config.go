package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/meysamhadeli/driftcheck/constants/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config represents the structure of the configuration file
type Config struct {
	Version        string   `mapstructure:"version"`
	Root           string   `mapstructure:"root"`
	StoreDir       string   `mapstructure:"store_dir"`
	Exclusions     []string `mapstructure:"exclusions"`
	MaxFileSize    int64    `mapstructure:"max_file_size"`
	UseCompression bool     `mapstructure:"use_compression"`
	HashAlgorithm  string   `mapstructure:"hash_algorithm"`
	Workers        int      `mapstructure:"workers"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:        "1.0.0",
	HashAlgorithm:  "xxh3",
	UseCompression: false,
	MaxFileSize:    0,
	Workers:        runtime.NumCPU(),
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Set default values using Viper
	setDefaults(cwd)

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		// Use the config file from the flag
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("driftcheck-config")
		viper.AddConfigPath(cwd)

		// Support both JSON and YAML formats
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			// If YAML fails, try JSON
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// If both fail, we'll continue with defaults
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults(cwd string) {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("root", cwd)
	viper.SetDefault("store_dir", filepath.Join(cwd, ".driftcheck"))
	viper.SetDefault("exclusions", []string{})
	viper.SetDefault("max_file_size", DefaultConfig.MaxFileSize)
	viper.SetDefault("use_compression", DefaultConfig.UseCompression)
	viper.SetDefault("hash_algorithm", DefaultConfig.HashAlgorithm)
	viper.SetDefault("workers", DefaultConfig.Workers)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("root", "DRIFTCHECK_ROOT")
	_ = viper.BindEnv("store_dir", "DRIFTCHECK_STORE_DIR")
	_ = viper.BindEnv("exclusions", "DRIFTCHECK_EXCLUSIONS")
	_ = viper.BindEnv("max_file_size", "DRIFTCHECK_MAX_FILE_SIZE")
	_ = viper.BindEnv("use_compression", "DRIFTCHECK_USE_COMPRESSION")
	_ = viper.BindEnv("hash_algorithm", "DRIFTCHECK_HASH_ALGORITHM")
	_ = viper.BindEnv("workers", "DRIFTCHECK_WORKERS")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("store_dir", rootCmd.PersistentFlags().Lookup("store_dir"))
	_ = viper.BindPFlag("exclusions", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("max_file_size", rootCmd.PersistentFlags().Lookup("max_file_size"))
	_ = viper.BindPFlag("use_compression", rootCmd.PersistentFlags().Lookup("use_compression"))
	_ = viper.BindPFlag("hash_algorithm", rootCmd.PersistentFlags().Lookup("hash_algorithm"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("root", "", "Directory tree to check for unexpected modifications. Defaults to the current working directory.")
	rootCmd.PersistentFlags().String("store_dir", "", "Directory where baseline snapshots and change artifacts are stored.")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Paths (files or directories) excluded from scanning. A directory excludes its whole subtree.")
	rootCmd.PersistentFlags().Int64("max_file_size", 0, "Skip files at or above this many bytes. Zero means unlimited.")
	rootCmd.PersistentFlags().Bool("use_compression", false, "Compress persisted snapshot and change artifacts with gzip.")
	rootCmd.PersistentFlags().String("hash_algorithm", DefaultConfig.HashAlgorithm, "Content digest algorithm: 'xxh3' (fast) or 'sha256' (cryptographic).")
	rootCmd.PersistentFlags().Int("workers", DefaultConfig.Workers, "Number of concurrent fingerprinting workers.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}
