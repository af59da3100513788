package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config, log zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("connected to PostgreSQL")

	return &DB{Pool: pool, log: log.With().Str("component", "database").Logger()}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info().Msg("database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	db.log.Info().Msg("running database migrations")

	migrations := []string{
		// Staff / HR records. status drives the licensed seat count.
		`CREATE TABLE IF NOT EXISTS staff (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'staff',
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			designation VARCHAR(100),
			phone VARCHAR(20),
			joined_on DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_email ON staff(email)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_status ON staff(status)`,

		// Firm clients.
		`CREATE TABLE IF NOT EXISTS clients (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			pan VARCHAR(20),
			gstin VARCHAR(20),
			email VARCHAR(255),
			phone VARCHAR(20),
			address TEXT,
			assigned_staff_id UUID REFERENCES staff(id) ON DELETE SET NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_assigned ON clients(assigned_staff_id)`,

		// Work assignments.
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			client_id UUID REFERENCES clients(id) ON DELETE CASCADE,
			assignee_id UUID REFERENCES staff(id) ON DELETE SET NULL,
			priority VARCHAR(10) NOT NULL DEFAULT 'normal',
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			due_date DATE,
			completed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_client ON tasks(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

		// Invoicing.
		`CREATE TABLE IF NOT EXISTS invoices (
			id UUID PRIMARY KEY,
			invoice_number VARCHAR(30) UNIQUE NOT NULL,
			client_id UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			description TEXT,
			amount DECIMAL(14, 2) NOT NULL,
			tax_amount DECIMAL(14, 2) NOT NULL DEFAULT 0,
			total DECIMAL(14, 2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
			issued_on DATE NOT NULL,
			due_on DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status)`,

		`CREATE TABLE IF NOT EXISTS receipts (
			id UUID PRIMARY KEY,
			receipt_number VARCHAR(30) UNIQUE NOT NULL,
			invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
			amount DECIMAL(14, 2) NOT NULL,
			mode VARCHAR(20) NOT NULL DEFAULT 'bank',
			received_on DATE NOT NULL,
			notes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_invoice ON receipts(invoice_id)`,

		// Attendance: one row per staff per day.
		`CREATE TABLE IF NOT EXISTS attendance (
			id UUID PRIMARY KEY,
			staff_id UUID NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			check_in TIMESTAMP,
			check_out TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (staff_id, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance(day)`,

		// Audit trail of mutating requests.
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			actor_id UUID,
			actor_email VARCHAR(255),
			action VARCHAR(50) NOT NULL,
			entity VARCHAR(50) NOT NULL,
			entity_id VARCHAR(64),
			detail JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at)`,

		// Activated licenses. At most one row is 'active'; activation demotes
		// the rest inside one transaction.
		`CREATE TABLE IF NOT EXISTS licenses (
			id BIGSERIAL PRIMARY KEY,
			token TEXT NOT NULL,
			company VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			license_id UUID NOT NULL,
			license_type VARCHAR(20) NOT NULL,
			max_users INTEGER NOT NULL,
			issued_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status)`,

		// updated_at trigger function shared by the tables above.
		`CREATE OR REPLACE FUNCTION update_updated_at_column()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = CURRENT_TIMESTAMP;
			RETURN NEW;
		END;
		$$ language 'plpgsql'`,

		`DROP TRIGGER IF EXISTS update_staff_updated_at ON staff`,
		`CREATE TRIGGER update_staff_updated_at BEFORE UPDATE ON staff
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_clients_updated_at ON clients`,
		`CREATE TRIGGER update_clients_updated_at BEFORE UPDATE ON clients
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_tasks_updated_at ON tasks`,
		`CREATE TRIGGER update_tasks_updated_at BEFORE UPDATE ON tasks
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_invoices_updated_at ON invoices`,
		`CREATE TRIGGER update_invoices_updated_at BEFORE UPDATE ON invoices
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_licenses_updated_at ON licenses`,
		`CREATE TRIGGER update_licenses_updated_at BEFORE UPDATE ON licenses
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	db.log.Info().Msg("database migrations completed")
	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
