package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/creatorhub/apiserver/types"
)

// ContentRepository handles persistence for marketplace content items.
type ContentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db, now: time.Now}
}

// List returns every content item in insertion order.
func (r *ContentRepository) List(ctx context.Context) ([]types.Content, error) {
	const query = `
		SELECT id, creator_id, type, status, views, sales, created_at
		FROM content_items
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.Content, 0)
	for rows.Next() {
		var item types.Content
		if err := rows.Scan(
			&item.ID,
			&item.CreatorID,
			&item.Type,
			&item.Status,
			&item.Views,
			&item.Sales,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts an item. A zero CreatedAt is replaced by the current time.
func (r *ContentRepository) Create(ctx context.Context, item types.Content) (types.Content, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now().UTC()
	}

	const query = `
		INSERT INTO content_items (creator_id, type, status, views, sales, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		item.CreatorID,
		item.Type,
		item.Status,
		item.Views,
		item.Sales,
		item.CreatedAt,
	).Scan(&item.ID); err != nil {
		return types.Content{}, translateError(err)
	}
	return item, nil
}
