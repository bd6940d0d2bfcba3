// Package database stores the generation log in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"tripweaver/planner"
)

// Store is the generation log backed by a *sql.DB.
type Store struct {
	db *sql.DB
}

// ─── Models ──────────────────────────────────────────────────────────────────

// Generation is one persisted generation log row.
type Generation struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id,omitempty"`
	Kind            string    `json:"kind"`
	Destination     string    `json:"destination,omitempty"`
	DayCount        int       `json:"day_count"`
	WeatherDegraded bool      `json:"weather_degraded"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	LatencyMS       int64     `json:"latency_ms"`
	Model           string    `json:"model,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// Open connects to dsn, waiting for the server to come up, and applies the
// migrations.
func Open(ctx context.Context, dsn string, attempts int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... attempt %d/%d: %v", i+1, attempts, err)
		if i+1 < attempts {
			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database after %d attempts: %w", attempts, err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("✅ Database connected and migrated")
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS generation_log (
			id               TEXT PRIMARY KEY,
			session_id       TEXT,
			kind             TEXT NOT NULL,
			destination      TEXT,
			day_count        INTEGER NOT NULL DEFAULT 0,
			weather_degraded BOOLEAN NOT NULL DEFAULT FALSE,
			status           TEXT NOT NULL,
			error            TEXT,
			latency_ms       BIGINT NOT NULL DEFAULT 0,
			model            TEXT,
			created_at       TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_generation_log_created_at
			ON generation_log(created_at DESC)`,

		`CREATE INDEX IF NOT EXISTS idx_generation_log_session_id
			ON generation_log(session_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ─── Generation log ───────────────────────────────────────────────────────────

// RecordGeneration implements planner.Recorder.
func (s *Store) RecordGeneration(ctx context.Context, rec planner.GenerationRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_log
			(id, session_id, kind, destination, day_count, weather_degraded, status, error, latency_ms, model, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.New().String(), nullString(rec.SessionID), rec.Kind, nullString(rec.Destination),
		rec.DayCount, rec.WeatherDegraded, rec.Status, nullString(rec.Error),
		rec.Latency.Milliseconds(), nullString(rec.Model), createdAt)
	if err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}

// RecentGenerations returns the newest entries first.
func (s *Store) RecentGenerations(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(session_id, ''), kind, COALESCE(destination, ''), day_count,
		        weather_degraded, status, COALESCE(error, ''), latency_ms, COALESCE(model, ''), created_at
		   FROM generation_log
		  ORDER BY created_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generation log: %w", err)
	}
	defer rows.Close()

	out := []Generation{}
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Kind, &g.Destination, &g.DayCount,
			&g.WeatherDegraded, &g.Status, &g.Error, &g.LatencyMS, &g.Model, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation log: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ planner.Recorder = (*Store)(nil)
