package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-gymbooking/internal/catalog"
	"ms-gymbooking/internal/catalog/api"
	catalog_db "ms-gymbooking/internal/catalog/db"
	"ms-gymbooking/internal/logger"

	booking_db "ms-gymbooking/internal/booking/db"
)

func verifyConnections(log *logger.Logger) *bun.DB {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	_ = godotenv.Load()

	bunDB := verifyConnections(log)
	defer bunDB.Close()

	catalogService := catalog.NewService(
		&catalog_db.DB{Bun: bunDB},
		&booking_db.DB{Bun: bunDB},
		log,
	)
	handler := &api.Handler{Catalog: catalogService, Logger: log}

	r := chi.NewRouter()
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", handler.ListSessions)
		r.Get("/{sessionId}", handler.GetSession)
	})

	port := os.Getenv("CATALOG_PORT")
	if port == "" {
		port = ":8081"
	}

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Catalog Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("APP", "✅ Catalog service shutdown complete")
}
