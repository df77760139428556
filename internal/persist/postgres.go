package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praetor-ai/praetor/internal/model"
)

// PostgresStore keeps the audit trail in Postgres. Transitions, verdicts
// and appeals land in append-only tables as they happen; the terminal
// archive is a JSONB document keyed by debate ID.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS debate_transitions (
	id         BIGSERIAL PRIMARY KEY,
	debate_id  TEXT        NOT NULL,
	from_state TEXT        NOT NULL,
	to_state   TEXT        NOT NULL,
	reason     TEXT        NOT NULL,
	occurred   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_debate ON debate_transitions (debate_id);

CREATE TABLE IF NOT EXISTS debate_verdicts (
	id         BIGSERIAL PRIMARY KEY,
	debate_id  TEXT        NOT NULL,
	verdict    JSONB       NOT NULL,
	created    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdicts_debate ON debate_verdicts (debate_id);

CREATE TABLE IF NOT EXISTS debate_appeals (
	debate_id  TEXT PRIMARY KEY,
	appeal     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS debate_archive (
	debate_id  TEXT PRIMARY KEY,
	record     JSONB       NOT NULL,
	archived   TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore connects to Postgres and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// AppendTransition implements Store.
func (s *PostgresStore) AppendTransition(ctx context.Context, debateID string, tr model.TransitionRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO debate_transitions (debate_id, from_state, to_state, reason, occurred)
		 VALUES ($1, $2, $3, $4, $5)`,
		debateID, tr.From, tr.To, tr.Reason, tr.At)
	if err != nil {
		return fmt.Errorf("postgres store: append transition: %w", err)
	}
	return nil
}

// SaveVerdict implements Store.
func (s *PostgresStore) SaveVerdict(ctx context.Context, debateID string, v model.Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("postgres store: encode verdict: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO debate_verdicts (debate_id, verdict, created) VALUES ($1, $2, $3)`,
		debateID, data, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres store: save verdict: %w", err)
	}
	return nil
}

// SaveAppeal implements Store.
func (s *PostgresStore) SaveAppeal(ctx context.Context, debateID string, ap model.Appeal) error {
	data, err := json.Marshal(ap)
	if err != nil {
		return fmt.Errorf("postgres store: encode appeal: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO debate_appeals (debate_id, appeal) VALUES ($1, $2)
		 ON CONFLICT (debate_id) DO UPDATE SET appeal = EXCLUDED.appeal`,
		debateID, data)
	if err != nil {
		return fmt.Errorf("postgres store: save appeal: %w", err)
	}
	return nil
}

// ArchiveDebate implements Store.
func (s *PostgresStore) ArchiveDebate(ctx context.Context, rec DebateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("postgres store: encode archive: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO debate_archive (debate_id, record, archived) VALUES ($1, $2, $3)
		 ON CONFLICT (debate_id) DO UPDATE SET record = EXCLUDED.record, archived = EXCLUDED.archived`,
		rec.ID, data, rec.ArchivedAt)
	if err != nil {
		return fmt.Errorf("postgres store: archive debate: %w", err)
	}
	return nil
}

// LoadDebate implements Store.
func (s *PostgresStore) LoadDebate(ctx context.Context, debateID string) (DebateRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM debate_archive WHERE debate_id = $1`, debateID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return DebateRecord{}, ErrDebateNotFound
	}
	if err != nil {
		return DebateRecord{}, fmt.Errorf("postgres store: load debate: %w", err)
	}
	var rec DebateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return DebateRecord{}, fmt.Errorf("postgres store: decode archive: %w", err)
	}
	return rec, nil
}
