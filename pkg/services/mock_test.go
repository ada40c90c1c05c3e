package services

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var userColumns = []string{"email", "password", "role", "created_at"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	conn := sqlx.NewDb(raw, "postgres")
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func newTestAccounts(t *testing.T) *AccountService {
	t.Helper()
	tokens, err := NewTokenService("s3cret", "HS256", time.Hour, "")
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return NewAccountService(tokens, "sunbeam")
}

// bcryptOf matches a bound argument that is the bcrypt hash of password.
type bcryptOf string

func (b bcryptOf) Match(v driver.Value) bool {
	hash, ok := v.(string)
	return ok && CheckPassword(string(b), hash)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}
