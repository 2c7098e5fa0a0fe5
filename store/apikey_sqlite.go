package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/users"
)

var _ apikeys.Repo = (*SQLiteAPIKeyRepo)(nil)

type SQLiteAPIKeyRepo struct {
	db *sql.DB
}

func NewSQLiteAPIKeyRepo(db *sql.DB) *SQLiteAPIKeyRepo {
	return &SQLiteAPIKeyRepo{db: db}
}

func (kr *SQLiteAPIKeyRepo) Create(ctx context.Context, key *apikeys.APIKey) error {
	permissions, err := json.Marshal(key.Permissions)
	if err != nil {
		return errors.Wrap(err, "[SQLiteAPIKeyRepo.Create] encoding permissions")
	}

	_, err = kr.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, name, key, user_id, permissions, created_at, updated_at)
		 VALUES (@id, @name, @key, @user_id, @permissions, @created_at, @updated_at)`,
		sql.Named("id", key.ID),
		sql.Named("name", key.Name),
		sql.Named("key", key.KeyFingerprint),
		sql.Named("user_id", key.UserID),
		sql.Named("permissions", string(permissions)),
		sql.Named("created_at", key.CreatedAt),
		sql.Named("updated_at", key.UpdatedAt))
	if err != nil {
		return errors.Wrap(err, "[SQLiteAPIKeyRepo.Create] inserting key")
	}
	return nil
}

// GetByKeyFingerprint joins the owning user in a single round trip. Keys of
// soft-deleted users do not resolve.
func (kr *SQLiteAPIKeyRepo) GetByKeyFingerprint(ctx context.Context, fingerprint string) (*apikeys.KeyWithUser, error) {
	row := kr.db.QueryRowContext(ctx,
		`SELECT k.id, k.name, k.key, k.user_id, k.permissions, k.created_at, k.updated_at,
		        `+prefixedUserColumns("u")+`
		 FROM api_keys k
		 JOIN users u ON u.id = k.user_id
		 WHERE k.key = @key AND u.deleted_at IS NULL`,
		sql.Named("key", fingerprint))

	var key apikeys.APIKey
	var user users.User
	var permissions, status string
	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.KeyFingerprint,
		&key.UserID,
		&permissions,
		&key.CreatedAt,
		&key.UpdatedAt,
		&user.ID,
		&user.Email,
		&user.Name,
		&user.IsAdmin,
		&user.PasswordHash,
		&user.ShouldChangePassword,
		&status,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apikeys.KeyNotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteAPIKeyRepo.GetByKeyFingerprint] scanning key row")
	}
	if err := json.Unmarshal([]byte(permissions), &key.Permissions); err != nil {
		return nil, errors.Wrap(err, "[SQLiteAPIKeyRepo.GetByKeyFingerprint] decoding permissions")
	}
	user.Status = users.UserStatus(status)
	return &apikeys.KeyWithUser{APIKey: key, User: user}, nil
}

func (kr *SQLiteAPIKeyRepo) ListByUser(ctx context.Context, userID string) ([]*apikeys.APIKey, error) {
	rows, err := kr.db.QueryContext(ctx,
		`SELECT id, name, key, user_id, permissions, created_at, updated_at
		 FROM api_keys WHERE user_id = @user_id ORDER BY created_at`,
		sql.Named("user_id", userID))
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteAPIKeyRepo.ListByUser] querying keys")
	}
	defer rows.Close()

	list := make([]*apikeys.APIKey, 0)
	for rows.Next() {
		var key apikeys.APIKey
		var permissions string
		err := rows.Scan(
			&key.ID,
			&key.Name,
			&key.KeyFingerprint,
			&key.UserID,
			&permissions,
			&key.CreatedAt,
			&key.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "[SQLiteAPIKeyRepo.ListByUser] scanning key row")
		}
		if err := json.Unmarshal([]byte(permissions), &key.Permissions); err != nil {
			return nil, errors.Wrap(err, "[SQLiteAPIKeyRepo.ListByUser] decoding permissions")
		}
		list = append(list, &key)
	}
	return list, errors.Wrap(rows.Err(), "[SQLiteAPIKeyRepo.ListByUser] iterating rows")
}

func (kr *SQLiteAPIKeyRepo) Delete(ctx context.Context, id string) error {
	result, err := kr.db.ExecContext(ctx,
		"DELETE FROM api_keys WHERE id = @id", sql.Named("id", id))
	if err != nil {
		return errors.Wrap(err, "[SQLiteAPIKeyRepo.Delete] deleting key")
	}
	return rowsAffectedOrNotFound(result, apikeys.KeyNotFoundErr)
}
