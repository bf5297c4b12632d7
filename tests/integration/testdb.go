// Package integration runs the ledger against a real PostgreSQL database.
// Containers come from testcontainers and are migrated with the embedded schema.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Duran117/kibray-sub001/internal/infrastructure/migration"
	"github.com/Duran117/kibray-sub001/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ledgerTables are truncated between tests sharing a container
var ledgerTables = []string{
	"ledger_entries", "cost_layers", "movements", "stock_records", "ledger_items", "locations",
}

// sharedPG is started on first use and terminated by TestMain
var sharedPG struct {
	mu        sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// LedgerDB is a connection to a migrated ledger schema
type LedgerDB struct {
	DB  *gorm.DB
	SQL *sql.DB
	t   *testing.T
}

// OpenIsolated starts a dedicated container for tests that change the schema itself.
// The container is terminated when the test ends.
func OpenIsolated(t *testing.T) *LedgerDB {
	t.Helper()
	skipIfShort(t)

	container, dsn := startPostgres(t, "ledger_isolated")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	ldb := connect(t, dsn)
	migrateUp(t, ldb.SQL)
	return ldb
}

// OpenShared connects to the package-wide container, migrating it once.
// Ledger tables are truncated when the test ends.
func OpenShared(t *testing.T) *LedgerDB {
	t.Helper()
	skipIfShort(t)

	sharedPG.mu.Lock()
	if sharedPG.container == nil {
		sharedPG.container, sharedPG.dsn = startPostgres(t, "ledger_shared")
		boot := connect(t, sharedPG.dsn)
		migrateUp(t, boot.SQL)
	}
	dsn := sharedPG.dsn
	sharedPG.mu.Unlock()

	ldb := connect(t, dsn)
	t.Cleanup(ldb.truncate)
	return ldb
}

// Migrator returns a migrator over the embedded schema, closed when the test ends.
// Closing it also closes ldb.SQL.
func (ldb *LedgerDB) Migrator() *migration.Migrator {
	ldb.t.Helper()

	m, err := migration.New(ldb.SQL, migration.FSSource(migrations.FS, "."), zaptest.NewLogger(ldb.t))
	require.NoError(ldb.t, err)
	ldb.t.Cleanup(func() { _ = m.Close() })
	return m
}

func (ldb *LedgerDB) truncate() {
	for _, table := range ledgerTables {
		if err := ldb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error; err != nil {
			ldb.t.Logf("truncate %s: %v", table, err)
		}
	}
}

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
}

func startPostgres(t *testing.T, dbName string) (*tcpostgres.PostgresContainer, string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return container, dsn
}

// connect opens a pool sized for the concurrent apply tests to contend on row locks.
// TEST_DB_DEBUG=1 prints every statement.
func connect(t *testing.T, dsn string) *LedgerDB {
	t.Helper()

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	require.NoError(t, err, "connect to postgres")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &LedgerDB{DB: db, SQL: sqlDB, t: t}
}

func migrateUp(t *testing.T, sqlDB *sql.DB) {
	t.Helper()
	m, err := migration.New(sqlDB, migration.FSSource(migrations.FS, "."), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "migrate ledger schema")
}

// terminateShared stops the package-wide container if one was started
func terminateShared() {
	sharedPG.mu.Lock()
	defer sharedPG.mu.Unlock()
	if sharedPG.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedPG.container.Terminate(ctx)
	sharedPG.container = nil
}
