package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// DefaultDSN is used when DB_DSN_PRIMARY is not set.
const DefaultDSN = "root:root@tcp(127.0.0.1:3306)/resell?parseTime=true"

// OpenDB initializes and returns the primary Read/Write connection pool.
func OpenDB(dsn string, log logrus.FieldLogger) (*sql.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	return OpenDBWithDSN(dsn, log)
}

// NormalizeDSN forces the driver options the repositories depend on:
// DATETIME columns scan into time.Time, and UPDATE reports matched rows
// rather than changed rows so compare-and-set statements stay reliable.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// OpenDBWithDSN creates and configures a connection pool for dsn.
func OpenDBWithDSN(dsn string, log logrus.FieldLogger) (*sql.DB, error) {
	// 1. Normalize the DSN.
	dsn, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	// 2. Open a new connection pool.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// 3. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 4. Ping the database to verify the connection.
	if err := db.Ping(); err != nil {
		log.WithError(err).Error("Error connecting to database")
		db.Close()
		return nil, err
	}

	log.Info("Database connection pool established successfully")
	return db, nil
}
