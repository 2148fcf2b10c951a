package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	if err := conn.Exec("DELETE FROM test_models").Error; err != nil {
		t.Fatalf("failed to reset sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewSQLiteBootstrapsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	client, err := NewSQLite(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer client.Close()

	for _, table := range []string{"orders", "courier_availability", "loyalty_points_history", "audit_logs", "outbox_events"} {
		var count int64
		if err := client.DB().Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count).Error; err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	// bootstrapping twice is harmless
	if err := BootstrapSQLite(context.Background(), client.DB()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"postgres any", errors.New(`ERROR: duplicate key value violates unique constraint "ux_orders_tenant_number" (SQLSTATE 23505)`), "", true},
		{"postgres named", errors.New(`ERROR: duplicate key value violates unique constraint "ux_orders_tenant_number" (SQLSTATE 23505)`), "ux_orders_tenant_number", true},
		{"postgres other constraint", errors.New(`ERROR: duplicate key value violates unique constraint "ux_outbox_dlq_event" (SQLSTATE 23505)`), "ux_orders_tenant_number", false},
		{"sqlite", fmt.Errorf("insert: %w", errors.New("UNIQUE constraint failed: orders.tenant_id, orders.order_number")), "ux_orders_tenant_number", true},
		{"unrelated", errors.New("connection refused"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}
