package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(128) PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(32) NOT NULL DEFAULT 'EMPLOYEE',
		organization_id BIGINT,
		department_id BIGINT
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (LOWER(email));`,
	`CREATE TABLE IF NOT EXISTS requests (
		request_key VARCHAR(64) PRIMARY KEY,
		summary TEXT NOT NULL DEFAULT '',
		status VARCHAR(64) NOT NULL DEFAULT '',
		requester_id VARCHAR(128) NOT NULL DEFAULT '',
		requester_name VARCHAR(255) NOT NULL DEFAULT '',
		requester_email VARCHAR(255) NOT NULL DEFAULT '',
		organization_id BIGINT,
		department_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_requests_org_dept ON requests (organization_id, department_id);`,
	`CREATE TABLE IF NOT EXISTS proposals (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		request_key VARCHAR(64) NOT NULL,
		seq_no INT NOT NULL,
		unit_price NUMERIC(18,4) NOT NULL,
		quantity INT NOT NULL,
		total NUMERIC(18,2) NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		is_final BOOLEAN NOT NULL DEFAULT FALSE,
		final_submitted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_proposals_request_seq ON proposals (request_key, seq_no);`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_request_key ON proposals (request_key);`,
	`CREATE TABLE IF NOT EXISTS negotiation_snapshots (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		request_key VARCHAR(64) NOT NULL,
		vendor VARCHAR(255) NOT NULL DEFAULT '',
		product VARCHAR(255) NOT NULL DEFAULT '',
		requester_name VARCHAR(255) NOT NULL DEFAULT '',
		requester_email VARCHAR(255) NOT NULL DEFAULT '',
		organization_id BIGINT,
		department_id BIGINT,
		current_count INT NOT NULL DEFAULT 0,
		new_count INT NOT NULL DEFAULT 0,
		unit VARCHAR(64) NOT NULL DEFAULT '',
		profit NUMERIC(18,2) NOT NULL DEFAULT 0,
		due_date DATE,
		renewal_date DATE,
		duration_months INT,
		comment TEXT NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'completed',
		completed_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_snapshots_request_key ON negotiation_snapshots (request_key);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		request_key VARCHAR(64) NOT NULL DEFAULT '',
		recipient_user_id VARCHAR(128),
		recipient_role VARCHAR(32),
		recipient_department_id BIGINT,
		recipient_organization_id BIGINT,
		sender_id VARCHAR(128) NOT NULL DEFAULT '',
		sender_name VARCHAR(255) NOT NULL DEFAULT '',
		from_status VARCHAR(64),
		to_status VARCHAR(64),
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_user ON notifications (recipient_user_id) WHERE recipient_user_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_request_key ON notifications (request_key);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
