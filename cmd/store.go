package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/huangsam/repoaudit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for report store operations.
// It avoids the assessor and identity checks of sharedSetup.
func storeSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := backendSetup("store-backend", "store-db-connect")
	if err != nil {
		return err
	}

	// Initialize the report store only (no assessment cache for store commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize report store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeMigrateSetup loads the report store configuration without opening the store,
// so migrations can run on a fresh or rolled back database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := backendSetup("store-backend", "store-db-connect")
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetReportDBFilePath()
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// sqliteFilePath returns the SQLite file a backend connection string refers to.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// storeCmd focused on report store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the audit report store",
	Long: `Manage the database that keeps every audit report and its file results.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (reports are not kept)

Subcommands:
  status  - Show report store statistics
  export  - Export reports to Parquet for analytics
  clear   - Remove all stored reports
  migrate - Run database schema migrations

Examples:
  # Check store status
  repoaudit store status

  # Export for analysis in pandas/DuckDB
  repoaudit store export --output-file audits`,
}

// storeStatusCmd shows report store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display report store statistics and connection details",
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetReportStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get report store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd clears every stored report.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored audit reports",
	Long: `Delete all stored reports and their file results.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the report tables`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFilePath(cfg.StoreDBConnect, contract.GetReportDBFilePath())
		if err := iocache.ClearReports(cfg.StoreBackend, dbFile, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear reports", err)
		}
		fmt.Println("Report store cleared successfully.")
	},
}

// storeExportCmd exports reports to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored reports to Parquet files",
	Long: `Write every stored report to <output-file>.reports.parquet and every
file result to <output-file>.file_results.parquet.

Examples:
  repoaudit store export --output-file audits`,
	PreRunE: storeSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteReportExport(os.Stdout, iocache.Manager.GetReportStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export reports", err)
		}
	},
}

// storeMigrateCmd runs report schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run report store schema migrations",
	Long: `Apply or roll back the report store schema.

Examples:
  # Migrate to the latest version
  repoaudit store migrate

  # Roll back everything
  repoaudit store migrate --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.MigrateReports(cfg.StoreBackend, cfg.StoreDBConnect, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Failed to migrate report store", err)
		}
	},
}
