package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus" // Structured logger
	"github.com/sunbeam-portal/course-portal-api/pkg/config"
	"github.com/sunbeam-portal/course-portal-api/pkg/db"
	"github.com/sunbeam-portal/course-portal-api/pkg/handlers"
	"github.com/sunbeam-portal/course-portal-api/pkg/services"
)

func main() {
	log.SetOutput(gin.DefaultWriter)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.JSONFormatter{})
	log.Info("Starting Course Portal API...")

	cfg := config.LoadConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.Warnf("Unknown LOG_LEVEL '%s', keeping info", cfg.LogLevel)
	} else {
		log.SetLevel(level)
	}
	gin.SetMode(cfg.GinMode)

	if cfg.DBMigrate {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to apply database migrations: %v", err)
		}
	}

	if err := db.InitDB(db.Options{
		Driver:          cfg.DBDriver,
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	tokens, err := services.NewTokenService(cfg.JwtSecret, cfg.JwtAlgorithm, cfg.TokenTTL(), cfg.JwtIssuer)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	accounts := services.NewAccountService(tokens, cfg.DefaultStudentPassword)

	router := handlers.NewRouter(handlers.NewHandlers(cfg, accounts))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited gracefully.")
}
