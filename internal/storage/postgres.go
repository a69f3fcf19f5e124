package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dshills/phraseclip/pkg/types"
)

// PostgresSchema is the DDL for the phrases table on PostgreSQL. pg_trgm
// backs the substring search with a trigram GIN index.
const PostgresSchema = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS phrases (
    id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    text            TEXT NOT NULL CHECK (length(trim(text)) > 0),
    text_normalized TEXT NOT NULL,
    start_time      TEXT NOT NULL,
    end_time        TEXT NOT NULL,
    clip_filename   TEXT NOT NULL,
    clip_duration   DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (clip_duration >= 0),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_phrases_text_normalized_trgm ON phrases USING GIN (text_normalized gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_phrases_text ON phrases(text);
CREATE INDEX IF NOT EXISTS idx_phrases_clip_filename ON phrases(clip_filename);
`

// DB is the database interface used by [PostgresStorage]. *pgxpool.Pool,
// *pgx.Conn and pgx.Tx all satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// beginner is implemented by connections that can open a transaction
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pinger is implemented by *pgxpool.Pool and *pgx.Conn
type pinger interface {
	Ping(ctx context.Context) error
}

// PostgresStorage implements Storage on PostgreSQL
type PostgresStorage struct {
	db   DB
	pool *pgxpool.Pool
}

// Compile-time interface checks.
var (
	_ Storage = (*PostgresStorage)(nil)
	_ Tx      = (*pgTx)(nil)
)

// NewPostgresStorage wraps an existing connection or pool. The caller is
// responsible for calling [PostgresStorage.Migrate] and for closing db.
func NewPostgresStorage(db DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// OpenPostgres connects a pool to dsn and migrates the schema
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	s := &PostgresStorage{db: pool, pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate executes [PostgresSchema]
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

// Close releases the pool when this storage opened it
func (s *PostgresStorage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return pingDB(ctx, s.db)
}

func (s *PostgresStorage) BeginTx(ctx context.Context) (Tx, error) {
	b, ok := s.db.(beginner)
	if !ok {
		return nil, errors.New("connection does not support transactions")
	}
	tx, err := b.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (s *PostgresStorage) InsertPhrase(ctx context.Context, phrase *types.Phrase) error {
	return pgInsertPhrase(ctx, s.db, phrase)
}

func (s *PostgresStorage) GetPhrase(ctx context.Context, id int64) (*types.Phrase, error) {
	return pgGetPhrase(ctx, s.db, id)
}

func (s *PostgresStorage) DeleteAllPhrases(ctx context.Context) (int64, error) {
	return pgDeleteAllPhrases(ctx, s.db)
}

func (s *PostgresStorage) SearchPhrases(ctx context.Context, needle string, limit int) ([]*types.Phrase, error) {
	return pgSearchPhrases(ctx, s.db, needle, limit)
}

func (s *PostgresStorage) GetStats(ctx context.Context) (*types.Stats, error) {
	return pgGetStats(ctx, s.db)
}

// pgTx wraps a pgx transaction
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

func (t *pgTx) InsertPhrase(ctx context.Context, phrase *types.Phrase) error {
	return pgInsertPhrase(ctx, t.tx, phrase)
}

func (t *pgTx) GetPhrase(ctx context.Context, id int64) (*types.Phrase, error) {
	return pgGetPhrase(ctx, t.tx, id)
}

func (t *pgTx) DeleteAllPhrases(ctx context.Context) (int64, error) {
	return pgDeleteAllPhrases(ctx, t.tx)
}

func (t *pgTx) SearchPhrases(ctx context.Context, needle string, limit int) ([]*types.Phrase, error) {
	return pgSearchPhrases(ctx, t.tx, needle, limit)
}

func (t *pgTx) GetStats(ctx context.Context) (*types.Stats, error) {
	return pgGetStats(ctx, t.tx)
}

func (t *pgTx) Ping(ctx context.Context) error {
	return pingDB(ctx, t.tx)
}

func (t *pgTx) Close() error {
	return nil
}

func (t *pgTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func pingDB(ctx context.Context, db DB) error {
	if p, ok := db.(pinger); ok {
		return p.Ping(ctx)
	}
	var one int
	return db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func pgInsertPhrase(ctx context.Context, db DB, phrase *types.Phrase) error {
	err := db.QueryRow(ctx, `
		INSERT INTO phrases (text, text_normalized, start_time, end_time, clip_filename, clip_duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		phrase.Text, phrase.TextNormalized, phrase.StartTime, phrase.EndTime,
		phrase.ClipFilename, phrase.ClipDuration,
	).Scan(&phrase.ID, &phrase.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert phrase: %w", err)
	}
	return nil
}

func pgScanPhrase(row pgx.Row) (*types.Phrase, error) {
	var phrase types.Phrase
	err := row.Scan(
		&phrase.ID, &phrase.Text, &phrase.TextNormalized, &phrase.StartTime,
		&phrase.EndTime, &phrase.ClipFilename, &phrase.ClipDuration, &phrase.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &phrase, nil
}

func pgGetPhrase(ctx context.Context, db DB, id int64) (*types.Phrase, error) {
	phrase, err := pgScanPhrase(db.QueryRow(ctx, `SELECT `+phraseColumns+` FROM phrases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phrase %d: %w", id, err)
	}
	return phrase, nil
}

func pgDeleteAllPhrases(ctx context.Context, db DB) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM phrases`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete phrases: %w", err)
	}
	return tag.RowsAffected(), nil
}

func pgSearchPhrases(ctx context.Context, db DB, needle string, limit int) ([]*types.Phrase, error) {
	rows, err := db.Query(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases
		WHERE text_normalized LIKE $1 ESCAPE '\'
		ORDER BY id
		LIMIT $2`,
		containsPattern(needle), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search phrases: %w", err)
	}
	defer rows.Close()

	phrases := make([]*types.Phrase, 0)
	for rows.Next() {
		phrase, err := pgScanPhrase(rows)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, phrase)
	}
	return phrases, rows.Err()
}

func pgGetStats(ctx context.Context, db DB) (*types.Stats, error) {
	var (
		count int64
		stats types.Stats
	)
	err := db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(clip_duration), 0) FROM phrases`).
		Scan(&count, &stats.TotalDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	stats.TotalPhrases = int(count)
	return &stats, nil
}
