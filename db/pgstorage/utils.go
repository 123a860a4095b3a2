package pgstorage

import (
	"context"
	"database/sql"
	"os"
	"strconv"

	// register the postgres driver for the migration runner
	_ "github.com/lib/pq"
	"github.com/mayanlabs/swap-watcher/log"
	migrate "github.com/rubenv/sql-migrate"
)

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "0001_initial",
			Up: []string{`
CREATE SCHEMA watcher;

CREATE TABLE watcher.orders (
	id VARCHAR PRIMARY KEY,
	service VARCHAR NOT NULL,
	status VARCHAR NOT NULL,
	trader VARCHAR NOT NULL DEFAULT '',
	source_chain INTEGER NOT NULL,
	source_tx_hash VARCHAR NOT NULL DEFAULT '',
	dest_chain INTEGER NOT NULL,
	from_token VARCHAR NOT NULL DEFAULT '',
	from_token_symbol VARCHAR NOT NULL DEFAULT '',
	from_amount VARCHAR NOT NULL DEFAULT '',
	to_token VARCHAR NOT NULL DEFAULT '',
	to_token_symbol VARCHAR NOT NULL DEFAULT '',
	to_amount VARCHAR NOT NULL DEFAULT '',
	min_amount_out VARCHAR NOT NULL DEFAULT '',
	order_hash BYTEA,
	cctp_nonce BIGINT NOT NULL DEFAULT 0,
	cctp_domain BIGINT NOT NULL DEFAULT 0,
	transfer_sequence BIGINT NOT NULL DEFAULT 0,
	redeem_sequence BIGINT NOT NULL DEFAULT 0,
	dest_address VARCHAR NOT NULL DEFAULT '',
	referrer_addr VARCHAR NOT NULL DEFAULT '',
	referrer_bps SMALLINT NOT NULL DEFAULT 0,
	mayan_bps SMALLINT NOT NULL DEFAULT 0,
	gas_drop BIGINT NOT NULL DEFAULT 0,
	redeem_fee BIGINT NOT NULL DEFAULT 0,
	refund_fee BIGINT NOT NULL DEFAULT 0,
	deadline TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	state_addr VARCHAR NOT NULL DEFAULT '',
	winner VARCHAR NOT NULL DEFAULT '',
	custom_payload BYTEA
);

CREATE INDEX idx_orders_state_addr ON watcher.orders (state_addr);
CREATE INDEX idx_orders_status ON watcher.orders (status);

CREATE TABLE watcher.checkpoint (
	target VARCHAR PRIMARY KEY,
	signature VARCHAR NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE TABLE watcher.token_metadata (
	chain_id INTEGER NOT NULL,
	contract VARCHAR NOT NULL,
	symbol VARCHAR NOT NULL,
	decimals SMALLINT NOT NULL,
	PRIMARY KEY (chain_id, contract)
);`},
			Down: []string{`DROP SCHEMA watcher CASCADE;`},
		},
	},
}

// RunMigrations will execute pending migrations if needed to keep
// the database updated with the latest changes
func RunMigrations(cfg Config) error {
	db, err := sql.Open("postgres", "postgres://"+cfg.User+":"+cfg.Password+"@"+cfg.Host+":"+cfg.Port+"/"+cfg.Name+"?sslmode=disable")
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	nMigrations, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return err
	}

	log.Info("successfully ran ", nMigrations, " migrations Up")
	return nil
}

// InitOrReset will initialize the db running the migrations or
// will reset all the known data and rerun the migrations
func InitOrReset(cfg Config) error {
	pgStorage, err := NewPostgresStorage(cfg)
	if err != nil {
		return err
	}
	defer pgStorage.db.Close()

	if _, err := pgStorage.db.Exec(context.Background(), "DROP TABLE IF EXISTS gorp_migrations CASCADE;"); err != nil {
		return err
	}
	if _, err := pgStorage.db.Exec(context.Background(), "DROP SCHEMA IF EXISTS watcher CASCADE;"); err != nil {
		return err
	}

	return RunMigrations(cfg)
}

// NewConfigFromEnv creates config from standard postgres environment variables,
func NewConfigFromEnv() Config {
	maxConns, _ := strconv.Atoi(getEnv("SWAPWATCHER_DATABASE_MAXCONNS", "20"))
	return Config{
		User:     getEnv("SWAPWATCHER_DATABASE_USER", "test_user"),
		Password: getEnv("SWAPWATCHER_DATABASE_PASSWORD", "test_password"),
		Name:     getEnv("SWAPWATCHER_DATABASE_NAME", "test_db"),
		Host:     getEnv("SWAPWATCHER_DATABASE_HOST", "localhost"),
		Port:     getEnv("SWAPWATCHER_DATABASE_PORT", "5433"),
		MaxConns: maxConns,
	}
}

func getEnv(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if exists {
		return value
	}
	return defaultValue
}
