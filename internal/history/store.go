// Package history persists the rolling record of past analyses. The record
// is kept newest-first and bounded to domain.MaxHistoryEntries; every backend
// treats absent or unreadable persisted state as an empty history rather than
// a fatal condition.
package history

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// DefaultKey is the name of the persisted history blob when the configuration
// leaves it empty.
const DefaultKey = "wellness:history"

// Store defines the interface for analysis-history persistence.
type Store interface {
	// List returns the persisted entries, newest first.
	List(ctx context.Context) ([]domain.HistoryEntry, error)

	// Append validates the entry, prepends it and evicts anything beyond
	// domain.MaxHistoryEntries. The prepend, trim and persist steps are
	// atomic relative to List.
	Append(ctx context.Context, entry domain.HistoryEntry) error

	// Clear removes all persisted entries.
	Clear(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}

// New opens the configured history backend.
func New(cfg domain.HistoryConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "redis":
		return NewRedisStore(cfg, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresStoreFromDSN(cfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// prependBounded places entry at the head of entries and drops anything
// beyond domain.MaxHistoryEntries.
func prependBounded(entries []domain.HistoryEntry, entry domain.HistoryEntry) []domain.HistoryEntry {
	bounded := make([]domain.HistoryEntry, 0, len(entries)+1)
	bounded = append(bounded, entry)
	bounded = append(bounded, entries...)
	if len(bounded) > domain.MaxHistoryEntries {
		bounded = bounded[:domain.MaxHistoryEntries]
	}
	return bounded
}
