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
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-gymbooking/internal/auth"
	"ms-gymbooking/internal/booking"
	booking_api "ms-gymbooking/internal/booking/api"
	booking_db "ms-gymbooking/internal/booking/db"
	booking_kafka "ms-gymbooking/internal/booking/kafka"
	"ms-gymbooking/internal/booking/qr"
	rediswrap "ms-gymbooking/internal/booking/redis"
	"ms-gymbooking/internal/catalog"
	catalog_api "ms-gymbooking/internal/catalog/api"
	catalog_db "ms-gymbooking/internal/catalog/db"
	"ms-gymbooking/internal/config"
	"ms-gymbooking/internal/kafka"
	"ms-gymbooking/internal/logger"
	membership_db "ms-gymbooking/internal/membership/db"
	"ms-gymbooking/internal/sse"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Redis.Addr == "" {
		log.Fatal("CONFIG", "REDIS_ADDR not set")
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Gateway initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	var publisher booking.EventPublisher
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		if cfg.Kafka.MockMode {
			log.Warn("KAFKA", "Mock mode enabled, skipping topic bootstrap")
		} else {
			requiredTopics := []string{cfg.Kafka.Topics.BookingEvents}
			if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
				log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
			} else {
				log.Info("KAFKA", "Required topics ensured successfully")
			}
		}

		publisher = booking_kafka.NewPublisher(producer, cfg.Kafka.Topics.BookingEvents)
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Warn("KAFKA", "Kafka disabled, booking events will not be published")
	}

	emitter := sse.NewBookingEventEmitter()

	ledgerDB := &booking_db.DB{Bun: bunDB}
	catalogService := catalog.NewService(&catalog_db.DB{Bun: bunDB}, ledgerDB, log)

	bookingService := booking.NewService(
		ledgerDB,
		catalogService,
		&membership_db.DB{Bun: bunDB},
		rediswrap.NewRedis(redisClient),
		publisher,
		emitter,
		log,
	)

	bookingHandler := &booking_api.Handler{
		Booking: bookingService,
		QR:      qr.NewGenerator(cfg.QRSecret),
		Events:  emitter,
		Logger:  log,
	}
	catalogHandler := &catalog_api.Handler{
		Catalog: catalogService,
		Logger:  log,
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/sessions", catalogHandler.ListSessions)
	r.Get("/api/sessions/{sessionId}", catalogHandler.GetSession)
	log.Info("ROUTER", "Public session catalog registered at /api/sessions")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		log.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.RequestBooking)
			r.Get("/", bookingHandler.MyBookings)
			r.Delete("/{bookingId}", bookingHandler.CancelBooking)
			r.Get("/{bookingId}/qr", bookingHandler.CheckInQR)
		})
		log.Info("ROUTER", "Booking routes registered under /api/bookings")

		r.Get("/api/sessions/{sessionId}/occupancy", bookingHandler.Occupancy)
		r.Get("/api/sessions/{sessionId}/events", bookingHandler.StreamSessionEvents)
		log.Info("ROUTER", "Occupancy and event stream registered under /api/sessions")

		r.Route("/api/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireBookingManager)
				r.Route("/bookings", func(r chi.Router) {
					r.Post("/", bookingHandler.AdminCreateBooking)
					r.Get("/", bookingHandler.ListBookings)
					r.Get("/stats", bookingHandler.BookingStats)
					r.Patch("/{bookingId}", bookingHandler.UpdateBookingStatus)
					r.Delete("/{bookingId}", bookingHandler.AdminDeleteBooking)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSessionManager)
				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", catalogHandler.CreateSession)
					r.Put("/{sessionId}", catalogHandler.UpdateSession)
					r.Delete("/{sessionId}", catalogHandler.DeleteSession)
				})
			})
		})
		log.Info("ROUTER", "Admin routes registered under /api/admin")
	})

	// No write timeout: the SSE stream at /api/sessions/{id}/events must be
	// able to stay open past any fixed deadline.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Booking Gateway running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}
	log.Info("APP", "✅ Booking gateway shutdown complete")
}
