package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/lumen-media/lumen-server/sessions"
	"github.com/lumen-media/lumen-server/users"
)

var _ sessions.Repo = (*SQLiteSessionRepo)(nil)

type SQLiteSessionRepo struct {
	db *sql.DB
}

func NewSQLiteSessionRepo(db *sql.DB) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: db}
}

func (sr *SQLiteSessionRepo) Create(ctx context.Context, session *sessions.Session) error {
	_, err := sr.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, user_id, parent_id, device_type, device_os, created_at, updated_at, pin_expires_at, expires_at)
		 VALUES (@id, @token, @user_id, @parent_id, @device_type, @device_os, @created_at, @updated_at, @pin_expires_at, @expires_at)`,
		sql.Named("id", session.ID),
		sql.Named("token", session.TokenFingerprint),
		sql.Named("user_id", session.UserID),
		sql.Named("parent_id", session.ParentID),
		sql.Named("device_type", session.DeviceType),
		sql.Named("device_os", session.DeviceOS),
		sql.Named("created_at", session.CreatedAt),
		sql.Named("updated_at", session.UpdatedAt),
		sql.Named("pin_expires_at", session.PinExpiresAt),
		sql.Named("expires_at", session.ExpiresAt))
	if err != nil {
		return errors.Wrap(err, "[SQLiteSessionRepo.Create] inserting session")
	}
	return nil
}

// GetByTokenFingerprint joins the owning user in a single round trip so the
// hot authentication path costs one query. Sessions of soft-deleted users do
// not resolve.
func (sr *SQLiteSessionRepo) GetByTokenFingerprint(ctx context.Context, fingerprint string) (*sessions.SessionWithUser, error) {
	row := sr.db.QueryRowContext(ctx,
		`SELECT s.id, s.token, s.user_id, s.parent_id, s.device_type, s.device_os,
		        s.created_at, s.updated_at, s.pin_expires_at, s.expires_at,
		        `+prefixedUserColumns("u")+`
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token = @token AND u.deleted_at IS NULL`,
		sql.Named("token", fingerprint))

	var session sessions.Session
	var user users.User
	var status string
	err := row.Scan(
		&session.ID,
		&session.TokenFingerprint,
		&session.UserID,
		&session.ParentID,
		&session.DeviceType,
		&session.DeviceOS,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.PinExpiresAt,
		&session.ExpiresAt,
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
		return nil, sessions.SessionNotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteSessionRepo.GetByTokenFingerprint] scanning session row")
	}
	user.Status = users.UserStatus(status)
	return &sessions.SessionWithUser{Session: session, User: user}, nil
}

func (sr *SQLiteSessionRepo) Update(ctx context.Context, id string, update sessions.Update) error {
	assignments := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if update.UpdatedAt != nil {
		assignments = append(assignments, "updated_at = @updated_at")
		args = append(args, sql.Named("updated_at", *update.UpdatedAt))
	}
	if update.PinExpiresAt != nil {
		assignments = append(assignments, "pin_expires_at = @pin_expires_at")
		args = append(args, sql.Named("pin_expires_at", *update.PinExpiresAt))
	}
	if len(assignments) == 0 {
		return nil
	}
	args = append(args, sql.Named("id", id))

	result, err := sr.db.ExecContext(ctx,
		"UPDATE sessions SET "+strings.Join(assignments, ", ")+" WHERE id = @id",
		args...)
	if err != nil {
		return errors.Wrap(err, "[SQLiteSessionRepo.Update] updating session")
	}
	return rowsAffectedOrNotFound(result, sessions.SessionNotFoundErr)
}

func (sr *SQLiteSessionRepo) Delete(ctx context.Context, id string) error {
	result, err := sr.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE id = @id", sql.Named("id", id))
	if err != nil {
		return errors.Wrap(err, "[SQLiteSessionRepo.Delete] deleting session")
	}
	return rowsAffectedOrNotFound(result, sessions.SessionNotFoundErr)
}

func (sr *SQLiteSessionRepo) ListByUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	rows, err := sr.db.QueryContext(ctx,
		`SELECT id, token, user_id, parent_id, device_type, device_os, created_at, updated_at, pin_expires_at, expires_at
		 FROM sessions WHERE user_id = @user_id ORDER BY created_at`,
		sql.Named("user_id", userID))
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteSessionRepo.ListByUser] querying sessions")
	}
	defer rows.Close()

	list := make([]*sessions.Session, 0)
	for rows.Next() {
		var session sessions.Session
		err := rows.Scan(
			&session.ID,
			&session.TokenFingerprint,
			&session.UserID,
			&session.ParentID,
			&session.DeviceType,
			&session.DeviceOS,
			&session.CreatedAt,
			&session.UpdatedAt,
			&session.PinExpiresAt,
			&session.ExpiresAt)
		if err != nil {
			return nil, errors.Wrap(err, "[SQLiteSessionRepo.ListByUser] scanning session row")
		}
		list = append(list, &session)
	}
	return list, errors.Wrap(rows.Err(), "[SQLiteSessionRepo.ListByUser] iterating rows")
}

func (sr *SQLiteSessionRepo) DeleteByUser(ctx context.Context, userID string, exceptID string) error {
	_, err := sr.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id = @user_id AND id != @except_id",
		sql.Named("user_id", userID),
		sql.Named("except_id", exceptID))
	if err != nil {
		return errors.Wrap(err, "[SQLiteSessionRepo.DeleteByUser] deleting sessions")
	}
	return nil
}

func prefixedUserColumns(alias string) string {
	columns := strings.Split(userColumns, ", ")
	for i, column := range columns {
		columns[i] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}
