package main

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
)

type bcryptOf string

func (b bcryptOf) Match(v driver.Value) bool {
	hash, ok := v.(string)
	return ok && services.CheckPassword(string(b), hash)
}

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

func TestUpsertAdminCreatesAccount(t *testing.T) {
	conn, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users").
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "password", "role", "created_at"}))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("admin@example.com", bcryptOf("admin123"), "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := upsertAdmin(context.Background(), conn, "admin@example.com", "admin123")
	if err != nil || !created {
		t.Fatalf("expected account to be created, got created=%v err=%v", created, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertAdminPromotesExistingAccount(t *testing.T) {
	conn, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users").
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "password", "role", "created_at"}).
			AddRow("ann@x.com", "old", "student", nil))
	mock.ExpectExec("UPDATE users SET password").
		WithArgs(bcryptOf("new"), "admin", "ann@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := upsertAdmin(context.Background(), conn, "ann@x.com", "new")
	if err != nil || created {
		t.Fatalf("expected existing account to be updated, got created=%v err=%v", created, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
