package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kwdetect/internal/detector"
)

// Snapshot is a persisted histogram. Entries is nil in List results.
type Snapshot struct {
	ID                string           `json:"id"`
	Feature           detector.Feature `json:"feature"`
	SearchesProcessed int64            `json:"searches_processed"`
	DistinctTokens    int              `json:"distinct_tokens"`
	TotalCount        int              `json:"total_count"`
	TakenAt           time.Time        `json:"taken_at"`
	Entries           []detector.Entry `json:"entries,omitempty"`
}

const snapshotColumns = "id, feature, searches_processed, distinct_tokens, total_count, taken_at"

// Save writes entries as a new snapshot of feature. entries are stored in the
// order given, which for detector snapshots is descending count.
func (s *Store) Save(ctx context.Context, feature detector.Feature, searchesProcessed int64, entries []detector.Entry) (Snapshot, error) {
	ctx = ensureContext(ctx)
	if !feature.Valid() {
		return Snapshot{}, fmt.Errorf("save snapshot: %w: %d", detector.ErrUnknownFeature, int(feature))
	}

	snap := Snapshot{
		ID:                uuid.NewString(),
		Feature:           feature,
		SearchesProcessed: searchesProcessed,
		DistinctTokens:    len(entries),
		TakenAt:           s.now().UTC(),
		Entries:           append([]detector.Entry(nil), entries...),
	}
	for _, e := range entries {
		snap.TotalCount += e.Count
	}

	err := retryOnBusy(ctx, func() error {
		return s.insertSnapshot(ctx, snap)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) insertSnapshot(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots ("+snapshotColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		snap.ID, snap.Feature.String(), snap.SearchesProcessed, snap.DistinctTokens, snap.TotalCount, snap.TakenAt.UnixNano(),
	); err != nil {
		return err
	}

	if len(snap.Entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO snapshot_entries (snapshot_id, rank, token, count) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for rank, e := range snap.Entries {
			if _, err := stmt.ExecContext(ctx, snap.ID, rank, e.Token, e.Count); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Get loads a snapshot and its entries by ID.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", strings.TrimSpace(id))
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	if err := s.loadEntries(ctx, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Latest loads the most recent snapshot of feature.
func (s *Store) Latest(ctx context.Context, feature detector.Feature) (Snapshot, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE feature = ? ORDER BY seq DESC LIMIT 1",
		feature.String(),
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest %s snapshot: %w", feature, err)
	}
	if err := s.loadEntries(ctx, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ListOptions filters List.
type ListOptions struct {
	Feature *detector.Feature
	Limit   int
}

// List returns snapshot summaries, newest first, without entries.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Snapshot, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + snapshotColumns + " FROM snapshots"
	var args []any
	if opts.Feature != nil {
		query += " WHERE feature = ?"
		args = append(args, opts.Feature.String())
	}
	query += " ORDER BY seq DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}

// Prune deletes all but the newest keep snapshots of feature and returns the
// number removed. keep <= 0 removes nothing.
func (s *Store) Prune(ctx context.Context, feature detector.Feature, keep int) (int64, error) {
	ctx = ensureContext(ctx)
	if keep <= 0 {
		return 0, nil
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots
WHERE feature = ? AND seq NOT IN (
    SELECT seq FROM snapshots WHERE feature = ? ORDER BY seq DESC LIMIT ?
)`, feature.String(), feature.String(), keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune %s snapshots: %w", feature, err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap    Snapshot
		feature string
		takenAt int64
	)
	err := row.Scan(&snap.ID, &feature, &snap.SearchesProcessed, &snap.DistinctTokens, &snap.TotalCount, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Feature, err = detector.ParseFeature(feature); err != nil {
		return Snapshot{}, err
	}
	snap.TakenAt = time.Unix(0, takenAt).UTC()
	return snap, nil
}

func (s *Store) loadEntries(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token, count FROM snapshot_entries WHERE snapshot_id = ? ORDER BY rank",
		snap.ID,
	)
	if err != nil {
		return fmt.Errorf("load snapshot entries: %w", err)
	}
	defer rows.Close()

	snap.Entries = make([]detector.Entry, 0, snap.DistinctTokens)
	for rows.Next() {
		var e detector.Entry
		if err := rows.Scan(&e.Token, &e.Count); err != nil {
			return fmt.Errorf("scan snapshot entry: %w", err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	return rows.Err()
}
