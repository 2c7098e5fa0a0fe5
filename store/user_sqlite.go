package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/lumen-media/lumen-server/users"
)

var _ users.Repo = (*SQLiteUserRepo)(nil)

const userColumns = "id, email, name, is_admin, password, should_change_password, status, created_at, updated_at, deleted_at"

type SQLiteUserRepo struct {
	db *sql.DB
}

func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

func (ur *SQLiteUserRepo) Create(ctx context.Context, user *users.User) error {
	_, err := ur.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (@id, @email, @name, @is_admin, @password, @should_change_password, @status, @created_at, @updated_at, NULL)`,
		sql.Named("id", user.ID),
		sql.Named("email", user.Email),
		sql.Named("name", user.Name),
		sql.Named("is_admin", user.IsAdmin),
		sql.Named("password", user.PasswordHash),
		sql.Named("should_change_password", user.ShouldChangePassword),
		sql.Named("status", string(user.Status)),
		sql.Named("created_at", user.CreatedAt),
		sql.Named("updated_at", user.UpdatedAt))
	if err != nil {
		return errors.Wrap(err, "[SQLiteUserRepo.Create] inserting user")
	}
	return nil
}

func (ur *SQLiteUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := ur.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = @id AND deleted_at IS NULL`,
		sql.Named("id", id))
	return scanUser(row)
}

func (ur *SQLiteUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := ur.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = @email AND deleted_at IS NULL`,
		sql.Named("email", email))
	return scanUser(row)
}

// GetAdmin returns (nil, nil) when no admin account exists yet.
func (ur *SQLiteUserRepo) GetAdmin(ctx context.Context) (*users.User, error) {
	row := ur.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_admin = 1 AND deleted_at IS NULL LIMIT 1`)
	user, err := scanUser(row)
	if errors.Is(err, users.UserNotFoundErr) {
		return nil, nil
	}
	return user, err
}

func (ur *SQLiteUserRepo) List(ctx context.Context) ([]*users.User, error) {
	rows, err := ur.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteUserRepo.List] querying users")
	}
	defer rows.Close()

	list := make([]*users.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, errors.Wrap(rows.Err(), "[SQLiteUserRepo.List] iterating rows")
}

func (ur *SQLiteUserRepo) Update(ctx context.Context, user *users.User) error {
	result, err := ur.db.ExecContext(ctx,
		`UPDATE users
		 SET email = @email,
		     name = @name,
		     is_admin = @is_admin,
		     password = @password,
		     should_change_password = @should_change_password,
		     status = @status,
		     updated_at = @updated_at
		 WHERE id = @id AND deleted_at IS NULL`,
		sql.Named("email", user.Email),
		sql.Named("name", user.Name),
		sql.Named("is_admin", user.IsAdmin),
		sql.Named("password", user.PasswordHash),
		sql.Named("should_change_password", user.ShouldChangePassword),
		sql.Named("status", string(user.Status)),
		sql.Named("updated_at", user.UpdatedAt),
		sql.Named("id", user.ID))
	if err != nil {
		return errors.Wrap(err, "[SQLiteUserRepo.Update] updating user")
	}
	return rowsAffectedOrNotFound(result, users.UserNotFoundErr)
}

// Delete soft deletes: the row stays for audit but disappears from every
// read path.
func (ur *SQLiteUserRepo) Delete(ctx context.Context, id string) error {
	result, err := ur.db.ExecContext(ctx,
		`UPDATE users
		 SET status = @status, deleted_at = @deleted_at, updated_at = @deleted_at
		 WHERE id = @id AND deleted_at IS NULL`,
		sql.Named("status", string(users.StatusDeleted)),
		sql.Named("deleted_at", time.Now().UTC()),
		sql.Named("id", id))
	if err != nil {
		return errors.Wrap(err, "[SQLiteUserRepo.Delete] deleting user")
	}
	return rowsAffectedOrNotFound(result, users.UserNotFoundErr)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var user users.User
	var status string
	err := row.Scan(
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
		return nil, users.UserNotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[scanUser] scanning user row")
	}
	user.Status = users.UserStatus(status)
	return &user, nil
}

func rowsAffectedOrNotFound(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[rowsAffectedOrNotFound] reading rows affected")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
