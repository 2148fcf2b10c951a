package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors pkg/migrate/migrations for local sqlite runs and tests.
// Enum columns are plain TEXT and money is stored as decimal strings.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		whatsapp_instance TEXT,
		whatsapp_auto_messages BOOLEAN,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		phone TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT,
		points_balance INTEGER NOT NULL DEFAULT 0,
		lifetime_points INTEGER NOT NULL DEFAULT 0,
		tier TEXT NOT NULL DEFAULT 'bronze',
		created_at DATETIME,
		updated_at DATETIME,
		CHECK (points_balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS customer_addresses (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		label TEXT NOT NULL,
		street TEXT NOT NULL,
		phone TEXT,
		is_default BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		order_number INTEGER NOT NULL,
		customer_id TEXT,
		customer_name TEXT NOT NULL,
		customer_phone TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		mode TEXT NOT NULL,
		total TEXT NOT NULL,
		delivery_fee TEXT NOT NULL DEFAULT '0',
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		payment_method TEXT NOT NULL,
		loyalty_points_used INTEGER NOT NULL DEFAULT 0,
		loyalty_points_earned INTEGER,
		courier_id TEXT,
		courier_assigned_at DATETIME,
		motoboy_accepted_at DATETIME,
		delivery_started_at DATETIME,
		delivered_at DATETIME,
		cancelled_at DATETIME,
		cancellation_reason TEXT,
		preparation_minutes INTEGER,
		delivery_distance_km TEXT,
		estimated_ready_at DATETIME,
		estimated_delivery_at DATETIME,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_tenant_number ON orders (tenant_id, order_number)`,
	`CREATE TABLE IF NOT EXISTS courier_availability (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		courier_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'offline',
		is_online BOOLEAN NOT NULL DEFAULT 0,
		last_activity_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_courier_availability_courier ON courier_availability (courier_id)`,
	`CREATE TABLE IF NOT EXISTS loyalty_points_history (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		points INTEGER NOT NULL,
		type TEXT NOT NULL,
		reason TEXT NOT NULL,
		order_id TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS referrals (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		referrer_customer_id TEXT NOT NULL,
		referred_customer_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		expires_at DATETIME,
		completed_at DATETIME,
		order_id TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		subject_type TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		metadata BLOB,
		ip_address TEXT,
		user_agent TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS message_templates (
		id TEXT PRIMARY KEY,
		tenant_id TEXT,
		key TEXT NOT NULL,
		body TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS whatsapp_message_logs (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		order_id TEXT,
		phone TEXT NOT NULL,
		template_key TEXT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		order_id TEXT,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		read_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		idempotency_key TEXT,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_idempotency_key ON outbox_events (idempotency_key) WHERE idempotency_key IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL,
		topic TEXT,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// BootstrapSQLite creates every table the services touch.
func BootstrapSQLite(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
