package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

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

func resetPool(t *testing.T) {
	t.Helper()
	mu.Lock()
	DB, opts = nil, nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		DB, opts = nil, nil
		mu.Unlock()
	})
}

func TestConnRequiresConfiguration(t *testing.T) {
	resetPool(t)
	if _, err := Conn(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestConnReturnsInstalledPool(t *testing.T) {
	resetPool(t)
	conn, _ := newMockDB(t)
	SetDB(conn)

	got, err := Conn()
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	if got != conn {
		t.Fatal("expected installed pool to be returned")
	}

	if err := Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestCloseDBReleasesPool(t *testing.T) {
	resetPool(t)
	conn, mock := newMockDB(t)
	mock.ExpectClose()
	SetDB(conn)

	CloseDB()
	if DB != nil {
		t.Fatal("expected pool to be released")
	}
	if _, err := Conn(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured after close, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTxCommits(t *testing.T) {
	conn, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := RunInTx(context.Background(), conn, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE users SET role = $1", RoleAdmin)
		return err
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	conn, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := RunInTx(context.Background(), conn, func(tx *sqlx.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	conn, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		if p := recover(); p == nil {
			t.Fatal("expected panic to propagate")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	}()
	_ = RunInTx(context.Background(), conn, func(tx *sqlx.Tx) error { panic("kaboom") })
}

func TestMigrateRejectsKeyValueDSN(t *testing.T) {
	if err := Migrate("host=localhost dbname=portal"); err == nil {
		t.Fatal("expected key/value DSN to be rejected")
	}
}
