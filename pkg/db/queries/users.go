package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
)

// FindUserByEmail retrieves an account by its case-folded email.
// It returns nil, nil when no account matches.
func FindUserByEmail(ctx context.Context, q sqlx.QueryerContext, email string) (*db.User, error) {
	user := &db.User{}
	query := `SELECT email, password, role, created_at FROM users WHERE email = $1`
	err := sqlx.GetContext(ctx, q, user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debugf("User with email '%s' not found.", email)
			return nil, nil
		}
		log.Errorf("Error finding user by email '%s': %v", email, err)
		return nil, err
	}
	return user, nil
}

// CreateUser inserts an account and returns the number of rows written.
func CreateUser(ctx context.Context, q sqlx.ExtContext, user *db.User) (int64, error) {
	if user.Role == "" {
		user.Role = db.RoleStudent
	}
	query := `INSERT INTO users (email, password, role) VALUES (:email, :password, :role)`
	result, err := sqlx.NamedExecContext(ctx, q, query, user)
	if err != nil {
		log.Errorf("Error creating user '%s': %v", user.Email, err)
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateUserPassword replaces the password hash of an account.
func UpdateUserPassword(ctx context.Context, q sqlx.ExecerContext, email, passwordHash string) (int64, error) {
	query := `UPDATE users SET password = $1 WHERE email = $2`
	result, err := q.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		log.Errorf("Error updating password for '%s': %v", email, err)
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateUserCredentials replaces the password hash and role of an account.
func UpdateUserCredentials(ctx context.Context, q sqlx.ExecerContext, email, passwordHash, role string) (int64, error) {
	query := `UPDATE users SET password = $1, role = $2 WHERE email = $3`
	result, err := q.ExecContext(ctx, query, passwordHash, role, email)
	if err != nil {
		log.Errorf("Error updating credentials for '%s': %v", email, err)
		return 0, err
	}
	return result.RowsAffected()
}
