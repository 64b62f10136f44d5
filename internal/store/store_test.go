package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/creatorhub/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func newUserRepo(db *sql.DB) *UserRepository {
	repo := NewUserRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo
}

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "is_active", "role", "permissions_level",
	"affiliate_id", "referring_affiliate_id", "full_name", "bio", "profile_picture_url",
	"social_links", "created_at", "updated_at",
}

var optionColumns = []string{"id", "name", "description", "is_active", "created_at", "updated_at"}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"username", &pq.Error{Code: "23505", Constraint: "users_username_key"}, ErrUsernameTaken},
		{"email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, ErrEmailTaken},
		{"affiliate", &pq.Error{Code: "23505", Constraint: "users_affiliate_id_key"}, ErrAffiliateTaken},
		{"option name", &pq.Error{Code: "23505", Constraint: "user_type_options_name_key"}, ErrNameTaken},
		{"user type", &pq.Error{Code: "23503", Constraint: "user_user_type_options_user_type_option_id_fkey"}, ErrUnknownUserType},
		{"referrer", &pq.Error{Code: "23503", Constraint: "users_referring_affiliate_id_fkey"}, ErrUnknownReferrer},
		{"other foreign key", &pq.Error{Code: "23503", Constraint: "content_items_creator_id_fkey"}, ErrInvalidReference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tc.in), tc.want)
		})
	}

	assert.NotErrorIs(t, translateError(&pq.Error{Code: "23503", Constraint: "users_referring_affiliate_id_fkey"}), ErrUnknownUserType)

	other := errors.New("boom")
	assert.Same(t, other, translateError(other))

	unknown := &pq.Error{Code: "23505", Constraint: "something_else"}
	assert.Equal(t, error(unknown), translateError(unknown))
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := newUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_user_type_options")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_type_options o")).
		WillReturnRows(sqlmock.NewRows(optionColumns).
			AddRow(int64(1), "Artist", nil, true, fixedNow, fixedNow).
			AddRow(int64(2), "Musician", nil, true, fixedNow, fixedNow))
	mock.ExpectCommit()

	user, err := repo.Create(context.Background(), types.User{
		Username:         "alice",
		Email:            "alice@x.com",
		PasswordHash:     "hash",
		IsActive:         true,
		Role:             types.RoleRegistered,
		PermissionsLevel: types.DefaultPermissionsLevel,
	}, []int64{1, 2})
	require.NoError(t, err)

	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixedNow, user.CreatedAt)
	assert.Equal(t, fixedNow, user.UpdatedAt)
	require.Len(t, user.UserTypes, 2)
	assert.Equal(t, "Musician", user.UserTypes[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicateRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := newUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), types.User{Username: "bob", Email: "alice@x.com"}, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateUnknownUserTypeRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := newUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_user_type_options")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "user_user_type_options_user_type_option_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), types.User{Username: "bob", Email: "bob@x.com"}, []int64{99})
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := newUserRepo(db)
	id := uuid.NewString()
	code := "ALICE1"

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			id, "alice", "alice@x.com", "hash", true, "affiliate", "standard_user",
			code, nil, "Alice A", nil, nil, nil, fixedNow, fixedNow,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_type_options o")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(optionColumns))

	user, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, types.RoleAffiliate, user.Role)
	require.NotNil(t, user.AffiliateID)
	assert.Equal(t, code, *user.AffiliateID)
	assert.Nil(t, user.ReferringAffiliateID)
	require.NotNil(t, user.FullName)
	assert.Equal(t, "Alice A", *user.FullName)
	assert.Empty(t, user.UserTypes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := newUserRepo(db)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	id := uuid.NewString()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetActiveUnknownUser(t *testing.T) {
	db, mock := newMock(t)
	repo := newUserRepo(db)
	id := uuid.NewString()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = $1")).
		WithArgs(false, fixedNow, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.SetActive(context.Background(), id, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserTypeRepositoryCreateDuplicateName(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_type_options")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "user_type_options_name_key"})

	_, err := repo.Create(context.Background(), types.UserTypeOption{Name: "Artist", IsActive: true})
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserTypeRepositoryUpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE user_type_options")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), types.UserTypeOption{ID: 42, Name: "Painter"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContentRepository(db)
	creator := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("FROM content_items")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_id", "type", "status", "views", "sales", "created_at"}).
			AddRow(int64(1), creator, "Art", "published", int64(1500), 150.0, fixedNow).
			AddRow(int64(2), nil, "Music", "draft", int64(10), 0.0, fixedNow))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].CreatorID)
	assert.Equal(t, creator, *items[0].CreatorID)
	assert.Nil(t, items[1].CreatorID)
	assert.Equal(t, int64(1500), items[0].Views)
	assert.InDelta(t, 150.0, items[0].Sales, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
