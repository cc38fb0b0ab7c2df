package database

import (
	"database/sql"
	"log"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/servicehand/internal/models"
)

const sqlitePrefix = "sqlite://"

var db *gorm.DB

// Connect initializes the database connection and runs migrations.
// DSNs starting with sqlite:// open a local SQLite file instead of Postgres.
func Connect(dsn string) *gorm.DB {
	if db != nil {
		return db
	}

	var (
		conn *gorm.DB
		err  error
	)
	if strings.HasPrefix(dsn, sqlitePrefix) {
		conn, err = OpenSQLite(strings.TrimPrefix(dsn, sqlitePrefix), logger.Info)
	} else {
		conn, err = openPostgres(dsn)
	}
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	db = conn
	return db
}

// DB exposes the initialized gorm.DB instance.
func DB() *gorm.DB {
	return db
}

func openPostgres(dsn string) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, err
	}

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})
}

// OpenSQLite opens a SQLite database and migrates it. The pool is limited to
// a single connection so that ":memory:" databases stay shared.
func OpenSQLite(path string, level logger.LogLevel) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table the application owns.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.Account{},
		&models.ProviderProfile{},
		&models.ServiceCategory{},
		&models.Booking{},
		&models.BookingSequence{},
		&models.PasswordResetToken{},
		&models.CompanyInfo{},
		&models.AuditLogEntry{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
