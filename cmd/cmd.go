// Package cmd defines the command-line interface for repoaudit.
package cmd

import (
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the reports subcommands to the parent reports command
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("user", contract.DefaultUser, "User id that owns scans and reports")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Bool("detail", false, "Print the analysis and suggestion of every file")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Report store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the report store")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Assessment cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for the assessment cache (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("log.filename", "", "Rotating log file path ('-' logs to stderr)")
	rootCmd.PersistentFlags().String("log.level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// scanCmd and mcpCmd share their flags; each binds them to Viper in scanSetup
	for _, c := range []*cobra.Command{scanCmd, mcpCmd} {
		c.Flags().String("branch", schema.DefaultBranch, "Branch to scan; other remote branches are tried when it does not exist")
		c.Flags().String("work-dir", "", "Directory for temporary working copies (default: system temp dir)")
		c.Flags().Int("workers", contract.DefaultWorkers, "Number of concurrent assessment workers")
		c.Flags().String("exclude", "", "Comma-separated list of gitignore-style patterns to skip")
		c.Flags().String("provider", string(schema.AzureProvider), "Assessment service: azure or openai")
		c.Flags().String("endpoint", "", "Assessment service endpoint (required for azure)")
		c.Flags().String("api-key", "", "Assessment service API key")
		c.Flags().String("model", contract.DefaultModel, "Model or deployment name")
		c.Flags().String("request-timeout", contract.DefaultRequestTimeout.String(), "Timeout of one assessment request")
		c.Flags().String("scan-timeout", contract.DefaultScanTimeout.String(), "Timeout of a whole scan")
		c.Flags().Int("remove-attempts", contract.DefaultRemoveAttempts, "Attempts at removing a working copy")
		c.Flags().String("remove-delay", contract.DefaultRemoveDelay.String(), "Delay between removal attempts")
	}

	scanCmd.Flags().String("profile", "", "Enable profiling and write profiles to files with this prefix")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
