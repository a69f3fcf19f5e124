// Package storage persists phrase records and answers substring lookups
// over their normalized text.
//
// Two backends implement [Storage]:
//   - SQLite (default), with the driver chosen at build time: modernc.org/sqlite
//     normally, mattn/go-sqlite3 with the sqlite_cgo build tag
//   - PostgreSQL through pgx, with a pg_trgm index on the normalized text
//
// # Database Schema
//
// Tables:
//   - phrases: id, text, text_normalized, start_time, end_time,
//     clip_filename, clip_duration, created_at
//   - schema_version: applied migrations (SQLite only)
//
// Records are immutable once inserted. The only way to correct the corpus
// is to delete everything and reload it inside one transaction.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, storage.Config{Path: "~/.phraseclip/phrases.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	matches, err := store.SearchPhrases(ctx, "nasılsın", 50)
//
// # Transactions
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for _, p := range phrases {
//	    if err := tx.InsertPhrase(ctx, p); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// SearchPhrases treats its needle as a literal substring: "%", "_" and "\"
// are escaped before they reach LIKE.
package storage
