package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/huangsam/repoaudit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// positionalAnnotation tells sharedSetup what the single positional argument of a command names.
const (
	positionalAnnotation = "positional"
	reportIDArg          = "report-id"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "repoaudit",
	Short:              "Audit Git repositories for security vulnerabilities.",
	Long:               `Repoaudit clones a repository, asks a language model to assess every text file and stores the scored report for later review.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadConfigFile(); err != nil {
			return err
		}
		configureLogger(viper.GetString(logFilenameKey), viper.GetBool("verbose"))
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigLocation()

	// Set environment variable prefix
	viper.SetEnvPrefix("REPOAUDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("branch", schema.DefaultBranch)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("user", contract.DefaultUser)
	viper.SetDefault("provider", schema.AzureProvider)
	viper.SetDefault("model", contract.DefaultModel)
	viper.SetDefault("request-timeout", contract.DefaultRequestTimeout.String())
	viper.SetDefault("scan-timeout", contract.DefaultScanTimeout.String())
	viper.SetDefault("remove-attempts", contract.DefaultRemoveAttempts)
	viper.SetDefault("remove-delay", contract.DefaultRemoveDelay.String())
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("color", "yes")
	setLogDefaults()
}

// setConfigLocation points Viper at --config or the default .repoaudit.yaml search path.
func setConfigLocation() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".repoaudit") // Name of config file (without extension)
	viper.SetConfigType("yaml")       // We'll use YAML format
	viper.AddConfigPath(".")          // Look in the current directory
	viper.AddConfigPath("$HOME")      // Look in the home directory
}

// sharedSetup unmarshals config, runs validation and opens both stores.
// It leaves an authenticated context in rootCtx.
func sharedSetup(cmd *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.RepoURL = ""
	input.ReportID = ""
	if len(args) == 1 {
		if cmd.Annotations[positionalAnnotation] == reportIDArg {
			input.ReportID = args[0]
		} else {
			input.RepoURL = args[0]
		}
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.StoreBackend, cfg.StoreDBConnect, cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	// 6. Identity stage for everything that follows.
	ctx, err := contract.Authenticate(rootCtx, cfg.UserID)
	if err != nil {
		return err
	}
	rootCtx = ctx
	return nil
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigLocation()

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// backendSetup reads one backend/connection pair without the full shared setup.
// Store and cache maintenance commands use it so they work without assessor credentials.
func backendSetup(backendKey, connectKey string) (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend, err := contract.ParseBackend(viper.GetString(backendKey))
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", backendKey, err)
	}
	connStr := viper.GetString(connectKey)
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
