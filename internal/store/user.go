package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creatorhub/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

const userColumns = `
		id, username, email, password_hash, is_active, role, permissions_level,
		affiliate_id, referring_affiliate_id, full_name, bio, profile_picture_url,
		social_links, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.Role,
		&user.PermissionsLevel,
		&user.AffiliateID,
		&user.ReferringAffiliateID,
		&user.FullName,
		&user.Bio,
		&user.ProfilePictureURL,
		&user.SocialLinks,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	return r.getOne(ctx, r.db, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.getOne(ctx, r.db, `SELECT`+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.getOne(ctx, r.db, `SELECT`+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByAffiliateID(ctx context.Context, affiliateID string) (types.User, error) {
	return r.getOne(ctx, r.db, `SELECT`+userColumns+` FROM users WHERE affiliate_id = $1`, affiliateID)
}

func (r *UserRepository) getOne(ctx context.Context, q queryer, query string, arg any) (types.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	userTypes, err := r.userTypesFor(ctx, q, user.ID)
	if err != nil {
		return types.User{}, err
	}
	user.UserTypes = userTypes
	return user, nil
}

// List returns every user ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT`+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	index := make(map[string]int)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		user.UserTypes = []types.UserTypeOption{}
		index[user.ID] = len(users)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const assocQuery = `
		SELECT a.user_id, o.id, o.name, o.description, o.is_active, o.created_at, o.updated_at
		FROM user_user_type_options a
		JOIN user_type_options o ON o.id = a.user_type_option_id
		ORDER BY a.user_id, o.id`
	assocRows, err := r.db.QueryContext(ctx, assocQuery)
	if err != nil {
		return nil, err
	}
	defer assocRows.Close()
	for assocRows.Next() {
		var userID string
		var option types.UserTypeOption
		if err := assocRows.Scan(
			&userID,
			&option.ID,
			&option.Name,
			&option.Description,
			&option.IsActive,
			&option.CreatedAt,
			&option.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if i, ok := index[userID]; ok {
			users[i].UserTypes = append(users[i].UserTypes, option)
		}
	}
	return users, assocRows.Err()
}

// Create inserts the user and its user type associations in one transaction.
// The ID and timestamps are assigned here.
func (r *UserRepository) Create(ctx context.Context, user types.User, userTypeIDs []int64) (types.User, error) {
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO users (
			id, username, email, password_hash, is_active, role, permissions_level,
			affiliate_id, referring_affiliate_id, full_name, bio, profile_picture_url,
			social_links, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := tx.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.Role,
		user.PermissionsLevel,
		user.AffiliateID,
		user.ReferringAffiliateID,
		user.FullName,
		user.Bio,
		user.ProfilePictureURL,
		user.SocialLinks,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return types.User{}, translateError(err)
	}

	if err := replaceUserTypes(ctx, tx, user.ID, userTypeIDs, false); err != nil {
		return types.User{}, err
	}
	userTypes, err := r.userTypesFor(ctx, tx, user.ID)
	if err != nil {
		return types.User{}, err
	}
	user.UserTypes = userTypes

	if err := tx.Commit(); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of upd and bumps updated_at.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd types.ProfileUpdate) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		UPDATE users
		SET email = COALESCE($1, email),
			password_hash = COALESCE($2, password_hash),
			full_name = COALESCE($3, full_name),
			bio = COALESCE($4, bio),
			profile_picture_url = COALESCE($5, profile_picture_url),
			social_links = COALESCE($6, social_links),
			updated_at = $7
		WHERE id = $8`
	result, err := tx.ExecContext(
		ctx,
		query,
		upd.Email,
		upd.PasswordHash,
		upd.FullName,
		upd.Bio,
		upd.ProfilePictureURL,
		upd.SocialLinks,
		r.now().UTC(),
		id,
	)
	if err != nil {
		return types.User{}, translateError(err)
	}
	if err := expectOneRow(result); err != nil {
		return types.User{}, err
	}

	if upd.UserTypeIDs != nil {
		if err := replaceUserTypes(ctx, tx, id, upd.UserTypeIDs, true); err != nil {
			return types.User{}, err
		}
	}

	user, err := r.getOne(ctx, tx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return types.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role types.Role) (types.User, error) {
	return r.setColumn(ctx, id, `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, role)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) (types.User, error) {
	return r.setColumn(ctx, id, `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`, active)
}

func (r *UserRepository) setColumn(ctx context.Context, id, query string, value any) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	result, err := r.db.ExecContext(ctx, query, value, r.now().UTC(), id)
	if err != nil {
		return types.User{}, translateError(err)
	}
	if err := expectOneRow(result); err != nil {
		return types.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) userTypesFor(ctx context.Context, q queryer, userID string) ([]types.UserTypeOption, error) {
	const query = `
		SELECT o.id, o.name, o.description, o.is_active, o.created_at, o.updated_at
		FROM user_type_options o
		JOIN user_user_type_options a ON a.user_type_option_id = o.id
		WHERE a.user_id = $1
		ORDER BY o.id`
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserTypeOptions(rows)
}

func replaceUserTypes(ctx context.Context, tx *sql.Tx, userID string, ids []int64, clear bool) error {
	if clear {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_user_type_options WHERE user_id = $1`, userID); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		return nil
	}
	const query = `
		INSERT INTO user_user_type_options (user_id, user_type_option_id)
		SELECT $1::uuid, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, userID, pq.Array(ids)); err != nil {
		return translateError(err)
	}
	return nil
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
