package database

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// schema is applied in order at startup.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'ADMIN',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seating_tables (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		capacity INT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CONSTRAINT chk_table_capacity CHECK (capacity >= 1)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS guests (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NULL,
		email VARCHAR(255) NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		table_id CHAR(36) NULL,
		companions INT NOT NULL DEFAULT 0,
		unique_url VARCHAR(64) NOT NULL,
		invitation_sent_at DATETIME NULL,
		rsvp_deadline DATETIME NULL,
		version INT NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_guests_unique_url (unique_url),
		KEY idx_guests_table (table_id),
		UNIQUE KEY uq_guests_phone (phone),
		UNIQUE KEY uq_guests_email (email),
		CONSTRAINT fk_guests_table FOREIGN KEY (table_id) REFERENCES seating_tables(id) ON DELETE SET NULL,
		CONSTRAINT chk_guest_companions CHECK (companions >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// uniqueKeys are checked on every start so databases created before a key
// existed receive it.  NULL phone or email values never collide.
var uniqueKeys = []struct {
	table, name, ddl string
}{
	{"guests", "uq_guests_phone", "ALTER TABLE guests ADD UNIQUE KEY uq_guests_phone (phone)"},
	{"guests", "uq_guests_email", "ALTER TABLE guests ADD UNIQUE KEY uq_guests_email (email)"},
}

// Migrate creates any missing tables and unique keys.  A key that cannot
// be added because existing rows already collide is logged and skipped;
// the duplicate check in the guest repository still applies.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	for _, k := range uniqueKeys {
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM information_schema.statistics
			 WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`,
			k.table, k.name).Scan(&n)
		if err != nil {
			return fmt.Errorf("inspect index %s: %w", k.name, err)
		}
		if n > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, k.ddl); err != nil {
			log.WithError(err).WithField("index", k.name).Warn("could not add unique key; resolve duplicate rows and restart")
			continue
		}
		log.WithField("index", k.name).Info("unique key added")
	}
	log.WithField("statements", len(schema)).Info("database schema up to date")
	return nil
}
