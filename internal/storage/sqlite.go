package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/phraseclip/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// Compile-time interface checks.
var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Tx      = (*sqliteTx)(nil)
)

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for concurrent readers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; ":memory:" also needs a single
	// connection so every query sees the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Phrase operations

// insertPhraseWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertPhraseWithQuerier(ctx context.Context, q querier, phrase *types.Phrase) error {
	query := `
		INSERT INTO phrases (text, text_normalized, start_time, end_time, clip_filename, clip_duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		phrase.Text, phrase.TextNormalized, phrase.StartTime, phrase.EndTime,
		phrase.ClipFilename, phrase.ClipDuration, now)
	if err != nil {
		return fmt.Errorf("failed to insert phrase: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	phrase.ID = id
	phrase.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertPhrase(ctx context.Context, phrase *types.Phrase) error {
	return s.insertPhraseWithQuerier(ctx, s.querier(), phrase)
}

const phraseColumns = `id, text, text_normalized, start_time, end_time, clip_filename, clip_duration, created_at`

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPhrase(row rowScanner) (*types.Phrase, error) {
	var phrase types.Phrase
	var createdAt sql.NullTime
	err := row.Scan(
		&phrase.ID, &phrase.Text, &phrase.TextNormalized, &phrase.StartTime,
		&phrase.EndTime, &phrase.ClipFilename, &phrase.ClipDuration, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		phrase.CreatedAt = createdAt.Time
	}
	return &phrase, nil
}

// getPhraseWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getPhraseWithQuerier(ctx context.Context, q querier, id int64) (*types.Phrase, error) {
	query := `SELECT ` + phraseColumns + ` FROM phrases WHERE id = ?`
	phrase, err := scanPhrase(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return phrase, nil
}

func (s *SQLiteStorage) GetPhrase(ctx context.Context, id int64) (*types.Phrase, error) {
	return s.getPhraseWithQuerier(ctx, s.querier(), id)
}

// deleteAllPhrasesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteAllPhrasesWithQuerier(ctx context.Context, q querier) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM phrases`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete phrases: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLiteStorage) DeleteAllPhrases(ctx context.Context) (int64, error) {
	return s.deleteAllPhrasesWithQuerier(ctx, s.querier())
}

// Search operations

// searchPhrasesWithQuerier returns phrases whose normalized text contains
// needle, in ascending id order
func (s *SQLiteStorage) searchPhrasesWithQuerier(ctx context.Context, q querier, needle string, limit int) ([]*types.Phrase, error) {
	query := `
		SELECT ` + phraseColumns + `
		FROM phrases
		WHERE text_normalized LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, containsPattern(needle), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search phrases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	phrases := make([]*types.Phrase, 0)
	for rows.Next() {
		phrase, err := scanPhrase(rows)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, phrase)
	}
	return phrases, rows.Err()
}

func (s *SQLiteStorage) SearchPhrases(ctx context.Context, needle string, limit int) ([]*types.Phrase, error) {
	return s.searchPhrasesWithQuerier(ctx, s.querier(), needle, limit)
}

// Status operations

// getStatsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getStatsWithQuerier(ctx context.Context, q querier) (*types.Stats, error) {
	var stats types.Stats
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(clip_duration), 0.0)
		FROM phrases
	`).Scan(&stats.TotalPhrases, &stats.TotalDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return &stats, nil
}

func (s *SQLiteStorage) GetStats(ctx context.Context) (*types.Stats, error) {
	return s.getStatsWithQuerier(ctx, s.querier())
}

// Transaction implementations. Every call goes through the transaction's
// querier: the pool holds a single connection, which the transaction owns.

func (t *sqliteTx) InsertPhrase(ctx context.Context, phrase *types.Phrase) error {
	return t.storage.insertPhraseWithQuerier(ctx, t.querier(), phrase)
}

func (t *sqliteTx) GetPhrase(ctx context.Context, id int64) (*types.Phrase, error) {
	return t.storage.getPhraseWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) DeleteAllPhrases(ctx context.Context) (int64, error) {
	return t.storage.deleteAllPhrasesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SearchPhrases(ctx context.Context, needle string, limit int) ([]*types.Phrase, error) {
	return t.storage.searchPhrasesWithQuerier(ctx, t.querier(), needle, limit)
}

func (t *sqliteTx) GetStats(ctx context.Context) (*types.Stats, error) {
	return t.storage.getStatsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Ping(ctx context.Context) error {
	var one int
	return t.tx.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
