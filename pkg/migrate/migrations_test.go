package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/laundrydesk-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no %s migration found", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func assertContainsAll(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_orders"), []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"code text NOT NULL UNIQUE",
		"CHECK (status IN ('pending', 'in_process', 'ready', 'delivered', 'cancelled'))",
		"CHECK (final_amount >= 0)",
		"CREATE TABLE IF NOT EXISTS order_lines",
		"CHECK (quantity > 0)",
		"CREATE TABLE IF NOT EXISTS order_tracking",
		"DROP TABLE IF EXISTS orders",
	})
}

func TestInventoryMigrationsContainLedger(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_inventory_items"), []string{
		"CREATE TABLE IF NOT EXISTS inventory_items",
		"FOREIGN KEY (unit_id) REFERENCES units_of_measure(id)",
		"CHECK (current_stock >= 0)",
	})
	assertContainsAll(t, readMigration(t, "create_inventory_movements"), []string{
		"CHECK (movement_type IN ('entry', 'exit', 'return', 'adjustment'))",
		"balance_after numeric(12,3) NOT NULL",
	})
}

func TestCashMigrationEnforcesSingleOpenRegister(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_cash"), []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_registers_single_open",
		"WHERE is_open",
		"CHECK (amount > 0)",
		"CHECK (movement_type IN ('income', 'expense'))",
	})
}

func TestNotificationsMigrationDedupesEvents(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_notifications"), []string{
		"CREATE TABLE IF NOT EXISTS notifications",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_event_id",
		"DROP TABLE IF EXISTS notifications",
	})
}

func TestValidateDirAcceptsRepositoryMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestValidateEmbeddedMatchesDisk(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())

	files, err := migrate.ListDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i := 1; i < len(files); i++ {
		require.Less(t, files[i-1].Version, files[i].Version)
	}
	require.Equal(t, "20250301090000_create_customers.sql", files[0].Name)
}

func TestValidateDirRejectsUnbalancedBlocks(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250301090000_broken.sql"), []byte(body), 0o644))
	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unbalanced")
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Pickup-Date!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_order_pickup_date.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	second, err := migrate.CreateSQLMigration(dir, "add order pickup date")
	require.NoError(t, err)
	require.NotEqual(t, path, second)

	files, err := migrate.ListDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Less(t, files[0].Version, files[1].Version)
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	_, err := migrate.CreateSQLMigration(t.TempDir(), " !! ")
	require.Error(t, err)
}
