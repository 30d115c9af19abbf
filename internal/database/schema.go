package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS units (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		serial VARCHAR(64) NOT NULL,
		brand VARCHAR(100) NOT NULL,
		brand_slug VARCHAR(120) NOT NULL,
		model VARCHAR(150) NOT NULL,
		color VARCHAR(50) NOT NULL DEFAULT '',
		storage VARCHAR(50) NOT NULL DEFAULT '',
		ram VARCHAR(50) NOT NULL DEFAULT '',
		condition_grade VARCHAR(50) NOT NULL DEFAULT '',
		cost DECIMAL(12,2) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		previous_price DECIMAL(12,2) NULL,
		on_promotion BOOLEAN NOT NULL DEFAULT FALSE,
		margin DECIMAL(12,2) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
		sold_at DATETIME(6) NULL,
		created_by BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_units_serial (serial),
		KEY idx_units_brand_slug (brand_slug),
		KEY idx_units_status (status)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS sales (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		unit_id BIGINT NOT NULL,
		recorded_by BIGINT NOT NULL DEFAULT 0,
		customer_name VARCHAR(150) NOT NULL,
		notes TEXT NOT NULL,
		sale_price DECIMAL(12,2) NOT NULL,
		cost DECIMAL(12,2) NOT NULL,
		margin DECIMAL(12,2) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_sales_unit (unit_id),
		CONSTRAINT fk_sales_unit FOREIGN KEY (unit_id) REFERENCES units (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS quote_requests (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		brand VARCHAR(100) NOT NULL,
		model VARCHAR(150) NOT NULL,
		storage VARCHAR(50) NOT NULL DEFAULT '',
		condition_grade VARCHAR(50) NOT NULL DEFAULT '',
		details TEXT NOT NULL,
		images JSON NOT NULL,
		contact_name VARCHAR(150) NOT NULL,
		contact_phone VARCHAR(50) NOT NULL DEFAULT '',
		contact_email VARCHAR(150) NOT NULL DEFAULT '',
		user_id BIGINT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		final_price DECIMAL(12,2) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_quotes_status (status)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS repair_tickets (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		ticket_number VARCHAR(32) NOT NULL,
		device_model VARCHAR(150) NOT NULL,
		service_type VARCHAR(16) NOT NULL,
		issue_description TEXT NOT NULL,
		staff_notes TEXT NULL,
		estimated_cost DECIMAL(12,2) NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'RECEIVED',
		owner_id BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_tickets_number (ticket_number),
		KEY idx_tickets_service_type (service_type),
		KEY idx_tickets_status (status)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		actor_id BIGINT NOT NULL DEFAULT 0,
		action VARCHAR(16) NOT NULL,
		entity_type VARCHAR(16) NOT NULL,
		entity_id BIGINT NOT NULL,
		detail TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_audit_created (created_at)
	) ENGINE=InnoDB`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
