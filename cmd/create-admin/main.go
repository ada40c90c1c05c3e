// Command create-admin creates the admin account, or resets the password and
// role of an existing one.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/sunbeam-portal/course-portal-api/pkg/config"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/db/queries"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
)

func main() {
	email := flag.String("email", "admin@example.com", "admin account email")
	password := flag.String("password", "admin123", "admin account password")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	cfg := config.LoadConfig()

	if err := db.InitDB(db.Options{Driver: cfg.DBDriver, URL: cfg.DatabaseURL, MaxOpenConns: 1}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := upsertAdmin(ctx, db.DB, services.NormalizeEmail(*email), *password)
	if err != nil {
		log.Errorf("Failed to create admin: %v", err)
		db.CloseDB()
		os.Exit(1)
	}
	if created {
		log.Infof("Admin user created: %s", *email)
	} else {
		log.Infof("Admin user updated: %s", *email)
	}
}

// upsertAdmin reports true when a new account was inserted.
func upsertAdmin(ctx context.Context, conn *sqlx.DB, email, password string) (bool, error) {
	hash, err := services.HashPassword(password)
	if err != nil {
		return false, err
	}

	created := false
	err = db.RunInTx(ctx, conn, func(tx *sqlx.Tx) error {
		existing, err := queries.FindUserByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = queries.UpdateUserCredentials(ctx, tx, email, hash, db.RoleAdmin)
			return err
		}
		created = true
		_, err = queries.CreateUser(ctx, tx, &db.User{Email: email, PasswordHash: hash, Role: db.RoleAdmin})
		return err
	})
	return created, err
}
