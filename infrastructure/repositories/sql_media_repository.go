package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"medianav/database"
	"medianav/domain/contracts"
	"medianav/domain/media"
)

// SQLMediaRepository implements contracts.MediaRepository with read/write separation.
type SQLMediaRepository struct {
	*BaseRepository
}

// NewSQLMediaRepository creates a new media repository.
func NewSQLMediaRepository(database *database.Database) contracts.MediaRepository {
	return &SQLMediaRepository{
		BaseRepository: NewBaseRepository(database),
	}
}

// Count returns the number of catalog entries.
func (r *SQLMediaRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.ReadDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM media_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("count media items: %w", err)
	}
	return n, nil
}

// ListRange returns up to limit entries ordered by position, starting at offset.
func (r *SQLMediaRepository) ListRange(ctx context.Context, offset, limit int) ([]media.Item, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("list range offset=%d limit=%d: %w", offset, limit, contracts.ErrInvalidRange)
	}

	rows, err := r.ReadDB().QueryContext(ctx, `
		SELECT id, position, title, kind, year, poster_url
		FROM media_items
		ORDER BY position
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list media items: %w", err)
	}
	defer rows.Close()

	items := make([]media.Item, 0, limit)
	for rows.Next() {
		var (
			item   media.Item
			kind   string
			year   sql.NullInt64
			poster sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Position, &item.Title, &kind, &year, &poster); err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		item.Kind = media.Kind(kind)
		item.Year = int(r.FromNullInt64(year))
		item.PosterURL = r.FromNullString(poster)
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveBatch upserts entries keyed by position in one transaction.
func (r *SQLMediaRepository) SaveBatch(ctx context.Context, items []media.Item) error {
	seen := make(map[int]int64, len(items))
	for _, item := range items {
		if prev, dup := seen[item.Position]; dup {
			return ErrDuplicatePosition{Position: item.Position, FirstID: prev, SecondID: item.ID}
		}
		seen[item.Position] = item.ID
	}

	return r.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO media_items (position, id, title, kind, year, poster_url)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(position) DO UPDATE SET
				id = excluded.id,
				title = excluded.title,
				kind = excluded.kind,
				year = excluded.year,
				poster_url = excluded.poster_url,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return fmt.Errorf("prepare media upsert: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			if _, err := stmt.ExecContext(ctx,
				item.Position,
				item.ID,
				item.Title,
				string(item.Kind),
				r.ToNullInt64(int64(item.Year)),
				r.ToNullString(item.PosterURL),
			); err != nil {
				return fmt.Errorf("save media item %d: %w", item.ID, err)
			}
		}
		return nil
	})
}

// DeleteAll empties the catalog.
func (r *SQLMediaRepository) DeleteAll(ctx context.Context) error {
	return r.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM media_items"); err != nil {
			return fmt.Errorf("delete media items: %w", err)
		}
		return nil
	})
}
