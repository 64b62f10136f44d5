package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creatorhub/apiserver/types"
)

// UserTypeRepository handles persistence for user type options.
type UserTypeRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserTypeRepository(db *sql.DB) *UserTypeRepository {
	return &UserTypeRepository{db: db, now: time.Now}
}

const userTypeColumns = `id, name, description, is_active, created_at, updated_at`

func scanUserTypeOptions(rows *sql.Rows) ([]types.UserTypeOption, error) {
	options := make([]types.UserTypeOption, 0)
	for rows.Next() {
		var option types.UserTypeOption
		if err := rows.Scan(
			&option.ID,
			&option.Name,
			&option.Description,
			&option.IsActive,
			&option.CreatedAt,
			&option.UpdatedAt,
		); err != nil {
			return nil, err
		}
		options = append(options, option)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return options, nil
}

// ListActive returns the options with is_active set, ordered by id.
func (r *UserTypeRepository) ListActive(ctx context.Context) ([]types.UserTypeOption, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userTypeColumns+` FROM user_type_options WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserTypeOptions(rows)
}

func (r *UserTypeRepository) Get(ctx context.Context, id int64) (types.UserTypeOption, error) {
	var option types.UserTypeOption
	err := r.db.QueryRowContext(ctx, `SELECT `+userTypeColumns+` FROM user_type_options WHERE id = $1`, id).Scan(
		&option.ID,
		&option.Name,
		&option.Description,
		&option.IsActive,
		&option.CreatedAt,
		&option.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.UserTypeOption{}, ErrNotFound
		}
		return types.UserTypeOption{}, err
	}
	return option, nil
}

func (r *UserTypeRepository) Create(ctx context.Context, option types.UserTypeOption) (types.UserTypeOption, error) {
	now := r.now().UTC()
	option.CreatedAt = now
	option.UpdatedAt = now

	const query = `
		INSERT INTO user_type_options (name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		option.Name,
		option.Description,
		option.IsActive,
		option.CreatedAt,
		option.UpdatedAt,
	).Scan(&option.ID); err != nil {
		return types.UserTypeOption{}, translateError(err)
	}
	return option, nil
}

func (r *UserTypeRepository) Update(ctx context.Context, option types.UserTypeOption) (types.UserTypeOption, error) {
	option.UpdatedAt = r.now().UTC()

	const query = `
		UPDATE user_type_options
		SET name = $1,
			description = $2,
			is_active = $3,
			updated_at = $4
		WHERE id = $5
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		option.Name,
		option.Description,
		option.IsActive,
		option.UpdatedAt,
		option.ID,
	).Scan(&option.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.UserTypeOption{}, ErrNotFound
		}
		return types.UserTypeOption{}, translateError(err)
	}
	return option, nil
}
