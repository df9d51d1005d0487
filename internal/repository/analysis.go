// Package repository persists analyses to the long-term archive. Unlike the
// rolling history in internal/history, archive rows are never evicted.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// AnalysisRepository handles archived-analysis persistence
type AnalysisRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *pgxpool.Pool, logger *logrus.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:  db,
		log: logger,
	}
}

// encodeVitals returns the JSON document for the vitals column, nil when the
// entry carries no reading.
func encodeVitals(v *domain.VitalsReading) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// encodeSources returns the JSON document for the sources column, nil when
// the analysis cited nothing.
func encodeSources(s []domain.SourceRef) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal(s)
}

// Save archives one analysis. Re-archiving the same entry is a no-op.
func (r *AnalysisRepository) Save(ctx context.Context, entry domain.HistoryEntry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("archiving analysis: invalid entry ID %q: %w", entry.ID, err)
	}

	vitals, err := encodeVitals(entry.Vitals)
	if err != nil {
		return fmt.Errorf("archiving analysis: encoding vitals: %w", err)
	}
	sources, err := encodeSources(entry.Result.Sources)
	if err != nil {
		return fmt.Errorf("archiving analysis: encoding sources: %w", err)
	}

	query := `
		INSERT INTO analyses (
			id, symptoms, language, confidence_score, confidence_label,
			content, vitals, sources, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (id) DO NOTHING`

	_, err = r.db.Exec(ctx, query,
		id,
		entry.Symptoms,
		entry.Result.Language,
		entry.Result.Confidence.Score,
		string(entry.Result.Confidence.Label),
		entry.Result.Content,
		vitals,
		sources,
		entry.Timestamp,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"analysis_id": entry.ID,
			"error":       err,
		}).Error("Failed to archive analysis")
		return fmt.Errorf("archiving analysis: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"analysis_id": entry.ID,
		"confidence":  entry.Result.Confidence.Label,
	}).Info("Analysis archived")

	return nil
}

// GetByID retrieves an archived analysis by its ID
func (r *AnalysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	query := `
		SELECT id, symptoms, language, confidence_score, confidence_label,
			   content, vitals, sources, created_at
		FROM analyses
		WHERE id = $1`

	entry, err := scanAnalysis(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("analysis not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"analysis_id": id,
			"error":       err,
		}).Error("Failed to get archived analysis")
		return nil, fmt.Errorf("getting archived analysis: %w", err)
	}

	return entry, nil
}

// ListRecent retrieves archived analyses newest first, with pagination
func (r *AnalysisRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.HistoryEntry, error) {
	query := `
		SELECT id, symptoms, language, confidence_score, confidence_label,
			   content, vitals, sources, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.WithError(err).Error("Failed to list archived analyses")
		return nil, fmt.Errorf("listing archived analyses: %w", err)
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		entry, err := scanAnalysis(rows)
		if err != nil {
			r.log.WithError(err).Error("Failed to scan analysis row")
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analysis rows: %w", err)
	}

	return entries, nil
}

// CountByConfidenceLabel returns how many archived analyses fall in each
// confidence bucket.
func (r *AnalysisRepository) CountByConfidenceLabel(ctx context.Context) (map[domain.ConfidenceLevel]int64, error) {
	query := `
		SELECT confidence_label, COUNT(*)
		FROM analyses
		GROUP BY confidence_label`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to count archived analyses")
		return nil, fmt.Errorf("counting archived analyses: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ConfidenceLevel]int64)
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[domain.ConfidenceLevel(label)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating count rows: %w", err)
	}

	return counts, nil
}

// scanAnalysis reconstructs a history entry from an archive row.
func scanAnalysis(row pgx.Row) (*domain.HistoryEntry, error) {
	var (
		id         uuid.UUID
		entry      domain.HistoryEntry
		label      string
		vitalsRaw  []byte
		sourcesRaw []byte
		createdAt  time.Time
	)

	err := row.Scan(
		&id,
		&entry.Symptoms,
		&entry.Result.Language,
		&entry.Result.Confidence.Score,
		&label,
		&entry.Result.Content,
		&vitalsRaw,
		&sourcesRaw,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ID = id.String()
	entry.Timestamp = createdAt
	entry.Result.Confidence.Label = domain.ConfidenceLevel(label)

	if len(vitalsRaw) > 0 {
		var vitals domain.VitalsReading
		if err := json.Unmarshal(vitalsRaw, &vitals); err != nil {
			return nil, fmt.Errorf("decoding vitals: %w", err)
		}
		entry.Vitals = &vitals
	}
	if len(sourcesRaw) > 0 {
		if err := json.Unmarshal(sourcesRaw, &entry.Result.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources: %w", err)
		}
	}

	return &entry, nil
}
