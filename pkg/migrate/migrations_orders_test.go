package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ooprato/ooprato-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_orders")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_tenant_number ON orders (tenant_id, order_number)",
		"version integer NOT NULL DEFAULT 1",
		"loyalty_points_earned integer,",
		"CHECK (is_online = (status IN ('available', 'on_delivery')))",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_courier_availability_courier ON courier_availability (courier_id)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationEnforcesIdempotencyKey(t *testing.T) {
	content := readMigration(t, "create_outbox")

	checks := []string{
		"idempotency_key text",
		"ux_outbox_events_idempotency_key",
		"'order_cancelled'",
		"DROP TABLE IF EXISTS outbox_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateDir(""); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestCreateSQLMigrationStaysAheadOfExistingVersions(t *testing.T) {
	dir := t.TempDir()
	future := "29990101000000_later.sql"
	if err := os.WriteFile(filepath.Join(dir, future), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}
	path, err := migrate.CreateSQLMigration(dir, "next")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "29990101000001_") {
		t.Fatalf("expected version after %s, got %q", future, filepath.Base(path))
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("directory should still validate: %v", err)
	}
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_bad.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected unbalanced statement markers to fail")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Courier Index!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_courier_index.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestTemplateSeedCoversEveryMessage(t *testing.T) {
	content := readMigration(t, "seed_message_templates")

	for _, key := range []string{"order_confirmed", "order_ready", "order_out_for_delivery", "order_delivered", "order_cancelled"} {
		if !strings.Contains(content, "('"+key+"'") {
			t.Errorf("missing seeded template %q", key)
		}
	}
	if !strings.Contains(content, "WHERE NOT EXISTS") {
		t.Error("seed must not duplicate existing global templates")
	}
}
