package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookcatalog/internal/storage"

	"github.com/ClickHouse/clickhouse-go/v2"
)

var _ storage.KV = (*ClickHouseKV)(nil)

// ClickHouseKV stores catalog snapshots in the catalog_snapshots table.
// Every Set inserts a new row; the row with the highest version wins.
type ClickHouseKV struct {
	conn clickhouse.Conn
	now  func() time.Time

	mu          sync.Mutex
	lastVersion uint64
}

// NewClickHouseKV creates a new ClickHouse connection
func NewClickHouseKV(host string, port int, database, user, password string, useTLS bool) (*ClickHouseKV, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseKV{conn: conn, now: time.Now}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseKV) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the latest snapshot stored under key
func (db *ClickHouseKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow(ctx,
		`SELECT value FROM catalog_snapshots WHERE key = ? ORDER BY version DESC LIMIT 1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get snapshot %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts value as the newest version of key. A single-row INSERT is
// atomic, so readers never see a partially written snapshot.
func (db *ClickHouseKV) Set(ctx context.Context, key, value string) error {
	now := db.now().UTC()
	err := db.conn.Exec(ctx, `INSERT INTO catalog_snapshots (key, value, version, updated_at) VALUES (?, ?, ?, ?)`,
		key, value, db.nextVersion(now), now)
	if err != nil {
		return fmt.Errorf("failed to set snapshot %q: %w", key, err)
	}
	return nil
}

// nextVersion returns a strictly increasing version even when the clock
// does not advance between two writes
func (db *ClickHouseKV) nextVersion(now time.Time) uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	version := uint64(now.UnixNano())
	if version <= db.lastVersion {
		version = db.lastVersion + 1
	}
	db.lastVersion = version
	return version
}

// Close closes the database connection
func (db *ClickHouseKV) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
