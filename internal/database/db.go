package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds the DDL for the three tables. The unique index on
// events.user_id is the authority for "one hosted event per user"
// (MySQL unique indexes admit multiple NULLs, so anonymous events are
// unbounded), and uq_review_author enforces one review per user per
// event. Reviews are owned by their event via the cascading FK.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id    VARCHAR(64)  NOT NULL,
		name  VARCHAR(191) NULL,
		image VARCHAR(512) NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id          CHAR(36)     NOT NULL,
		title       VARCHAR(64)  NOT NULL,
		description VARCHAR(512) NOT NULL,
		lat         VARCHAR(32)  NOT NULL,
		lng         VARCHAR(32)  NOT NULL,
		starts_at   DATETIME     NOT NULL,
		ends_at     DATETIME     NOT NULL,
		user_id     VARCHAR(64)  NULL,
		review_code VARCHAR(16)  NULL,
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_events_host (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS event_reviews (
		id         CHAR(36)     NOT NULL,
		event_id   CHAR(36)     NOT NULL,
		user_id    VARCHAR(64)  NOT NULL,
		rating     TINYINT      NOT NULL,
		body       VARCHAR(256) NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_review_author (user_id, event_id),
		KEY ix_reviews_event (event_id),
		CONSTRAINT fk_reviews_event FOREIGN KEY (event_id)
			REFERENCES events (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables when they do not exist yet. It is
// idempotent and safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
