// Package storage persists crawl results into a relational contact store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Ametist3d/jobhunter/internal/config"
	"github.com/Ametist3d/jobhunter/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id           BIGSERIAL PRIMARY KEY,
	website      TEXT        NOT NULL,
	email        TEXT        NOT NULL,
	rank         INT         NOT NULL DEFAULT 0,
	evidence_url TEXT        NOT NULL DEFAULT '',
	discovered   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (website, email)
);
CREATE TABLE IF NOT EXISTS site_contexts (
	website   TEXT        PRIMARY KEY,
	context   JSONB       NOT NULL,
	crawled   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const upsertContact = `
INSERT INTO contacts (website, email, rank, evidence_url, discovered)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (website, email) DO UPDATE
SET rank = EXCLUDED.rank, evidence_url = EXCLUDED.evidence_url
`

const upsertContext = `
INSERT INTO site_contexts (website, context, crawled)
VALUES ($1, $2, $3)
ON CONFLICT (website) DO UPDATE
SET context = EXCLUDED.context, crawled = EXCLUDED.crawled
`

// ContactStore writes crawl results to Postgres.
type ContactStore struct {
	db          *sql.DB
	autoMigrate bool
	logger      *slog.Logger
}

// NewContactStore opens the database and optionally creates the schema.
func NewContactStore(cfg config.SQLConfig, logger *slog.Logger) (*ContactStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("db.dsn must be set")
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := &ContactStore{db: db, autoMigrate: cfg.AutoMigrate, logger: logger}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

// SaveResult upserts every contact of a crawl result plus the site context.
// The rank column records the position in the ranked email list.
func (s *ContactStore) SaveResult(ctx context.Context, result types.CrawlResult) error {
	now := time.Now().UTC()
	evidence := ""
	if len(result.EvidenceURLs) > 0 {
		evidence = result.EvidenceURLs[0]
	}

	for rank, email := range result.Emails {
		if err := s.exec(ctx, upsertContact, result.Website, email, rank, evidence, now); err != nil {
			return fmt.Errorf("save contact %s: %w", email, err)
		}
	}

	if result.SiteContext != nil {
		raw, err := json.Marshal(result.SiteContext)
		if err != nil {
			return fmt.Errorf("encode site context: %w", err)
		}
		if err := s.exec(ctx, upsertContext, result.Website, raw, now); err != nil {
			return fmt.Errorf("save site context: %w", err)
		}
	}
	return nil
}

// exec runs one statement, creating the schema and retrying once when the
// table is missing. "42P01" is the Postgres undefined-table code.
func (s *ContactStore) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "42P01" && s.autoMigrate {
		s.logger.Warn("table missing, creating schema", "code", pqErr.Code)
		if mErr := s.ensureSchema(ctx); mErr != nil {
			return mErr
		}
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	return err
}

func (s *ContactStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *ContactStore) Close() error {
	return s.db.Close()
}
