package storage

import (
	"context"
	"strings"

	"github.com/dshills/phraseclip/pkg/types"
)

// Storage defines the interface for persisting and querying phrase records
type Storage interface {
	// Phrase operations
	InsertPhrase(ctx context.Context, phrase *types.Phrase) error
	GetPhrase(ctx context.Context, id int64) (*types.Phrase, error)
	DeleteAllPhrases(ctx context.Context) (int64, error)

	// Search operations
	SearchPhrases(ctx context.Context, needle string, limit int) ([]*types.Phrase, error)

	// Status operations
	GetStats(ctx context.Context) (*types.Stats, error)

	// Database operations
	Ping(ctx context.Context) error
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// likeEscape is the escape character used in LIKE patterns
const likeEscape = `\`

// containsPattern builds a LIKE pattern matching needle as a literal substring
func containsPattern(needle string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(needle) + "%"
}
