package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetReportDBFilePath returns the path to the SQLite DB file for report storage.
func GetReportDBFilePath() string {
	return contract.GetReportDBFilePath()
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the assessment cache.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// InitStores initializes the global manager with the report store and the assessment cache.
// An empty backend leaves the corresponding store unset.
func InitStores(storeBackend schema.DatabaseBackend, storeConnStr string, cacheBackend schema.DatabaseBackend, cacheConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var cacheStore contract.CacheStore
		if cacheBackend != "" {
			store, err := NewCacheStore(assessmentTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize assessment cache: %w", err)
				return
			}
			cacheStore = store
		}

		var reportStore contract.ReportStore
		if storeBackend != "" {
			store, err := NewReportStore(storeBackend, storeConnStr)
			if err != nil {
				if cacheStore != nil {
					_ = cacheStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize report store: %w", err)
				return
			}
			reportStore = store
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.reports = reportStore
		Manager.assessments = cacheStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.assessments != nil {
			_ = Manager.assessments.Close()
		}
		if Manager.reports != nil {
			_ = Manager.reports.Close()
		}
	})
}

// ClearCache clears the assessment cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, assessmentTable)
}

// ClearReports clears all stored reports for the specified backend.
// SQL backends also drop the migration bookkeeping so the schema is recreated on next open.
func ClearReports(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, fileResultsTable, reportsTable, "schema_migrations")
}

func clearTables(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, _ := driverFor(backend)
		for _, table := range tables {
			if err := clearSQLTable(driverName, backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName string, backend schema.DatabaseBackend, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
