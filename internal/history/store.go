// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package history records every DNE tree the service has applied.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	dlog "github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/persistence/sqlite"
	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when no revision matches.
	ErrNotFound = errors.New("revision not found")

	// ErrDisabled is returned by callers that have no store configured.
	ErrDisabled = errors.New("revision history disabled")
)

const (
	schemaVersion = 1

	// DefaultListLimit bounds List when the caller passes a non-positive limit.
	DefaultListLimit = 20
	// MaxListLimit caps List regardless of the requested limit.
	MaxListLimit = 500
)

const ddl = `
CREATE TABLE IF NOT EXISTS revisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	epoch INTEGER NOT NULL,
	sha256 TEXT NOT NULL,
	applied_at_ms INTEGER NOT NULL,
	source TEXT NOT NULL,
	document TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_sha ON revisions(sha256);
`

// Revision is one applied configuration. Epochs restart with every process,
// so ID is the stable key.
type Revision struct {
	ID        int64           `json:"id"`
	Epoch     uint64          `json:"epoch"`
	SHA256    string          `json:"sha256"`
	AppliedAt time.Time       `json:"applied_at"`
	Source    string          `json:"source"`
	Document  json.RawMessage `json:"document"`
}

// Config decodes the stored document.
func (r Revision) Config() (schema.Config, error) {
	var cfg schema.Config
	if err := json.Unmarshal(r.Document, &cfg); err != nil {
		return schema.Config{}, fmt.Errorf("decode revision %d: %w", r.ID, err)
	}
	return cfg, nil
}

// Store is a SQLite backed revision log.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger

	// mu serialises Record so the duplicate check and insert are atomic.
	mu sync.Mutex
}

// Open opens (and migrates) the revision database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, schemaVersion, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}
	return &Store{
		db:     db,
		path:   path,
		logger: dlog.WithComponent("history"),
	}, nil
}

// Digest returns the hex SHA-256 of the canonical JSON encoding of cfg,
// together with that encoding.
func Digest(cfg schema.Config) (string, []byte, error) {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return "", nil, fmt.Errorf("encode config: %w", err)
	}
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:]), doc, nil
}

// Record stores cfg unless it is identical to the latest revision.
// The boolean reports whether a new row was written.
func (s *Store) Record(ctx context.Context, epoch uint64, source string, appliedAt time.Time, cfg schema.Config) (Revision, bool, error) {
	sum, doc, err := Digest(cfg)
	if err != nil {
		return Revision{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.Latest(ctx)
	switch {
	case err == nil && latest.SHA256 == sum:
		s.logger.Debug().
			Str("event", "history.skip_identical").
			Uint64(dlog.FieldEpoch, epoch).
			Int64("revision", latest.ID).
			Msg("configuration unchanged, revision not recorded")
		return latest, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return Revision{}, false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO revisions (epoch, sha256, applied_at_ms, source, document) VALUES (?, ?, ?, ?, ?)`,
		int64(epoch), sum, appliedAt.UnixMilli(), source, string(doc),
	)
	if err != nil {
		return Revision{}, false, fmt.Errorf("insert revision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Revision{}, false, fmt.Errorf("revision id: %w", err)
	}

	rev := Revision{
		ID:        id,
		Epoch:     epoch,
		SHA256:    sum,
		AppliedAt: time.UnixMilli(appliedAt.UnixMilli()).UTC(),
		Source:    source,
		Document:  doc,
	}
	s.logger.Info().
		Str("event", "history.recorded").
		Uint64(dlog.FieldEpoch, epoch).
		Int64("revision", id).
		Str("source", source).
		Str("sha256", sum).
		Msg("configuration revision recorded")
	return rev, true, nil
}

const selectRevision = `SELECT id, epoch, sha256, applied_at_ms, source, document FROM revisions`

// Latest returns the newest revision.
func (s *Store) Latest(ctx context.Context) (Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+` ORDER BY id DESC LIMIT 1`)
	return scanRevision(row)
}

// Get returns the revision with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+` WHERE id = ?`, id)
	return scanRevision(row)
}

// List returns up to limit revisions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	rows, err := s.db.QueryContext(ctx, selectRevision+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	out := make([]Revision, 0, limit)
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return out, nil
}

// Verify runs a quick integrity check of the database.
func (s *Store) Verify(ctx context.Context) error {
	if err := sqlite.Check(ctx, s.db, false); err != nil {
		return fmt.Errorf("history database %s: %w", s.path, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (Revision, error) {
	var (
		rev       Revision
		epoch     int64
		appliedMS int64
		doc       string
	)
	err := row.Scan(&rev.ID, &epoch, &rev.SHA256, &appliedMS, &rev.Source, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, ErrNotFound
	}
	if err != nil {
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}
	rev.Epoch = uint64(epoch)
	rev.AppliedAt = time.UnixMilli(appliedMS).UTC()
	rev.Document = json.RawMessage(doc)
	return rev, nil
}
