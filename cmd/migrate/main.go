package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-gymbooking/internal/database/migrations"
	"ms-gymbooking/internal/models"
)

func main() {
	var (
		dir    = flag.String("dir", "./migrations", "path to SQL migration files")
		action = flag.String("action", "up", "up | down | version | bootstrap")
		seed   = flag.Bool("seed", false, "insert sample data after bootstrap")
	)
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN not set")
	}

	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	switch *action {
	case "up", "down", "version":
		runner := migrations.NewRunner(db, migrations.MigrateOptions{
			MigrationsDir: *dir,
			AutoMigrate:   true,
			SeedData:      *seed,
		})
		switch *action {
		case "up":
			if err := runner.Up(); err != nil {
				log.Fatalf("Migration failed: %v", err)
			}
		case "down":
			if err := runner.Down(); err != nil {
				log.Fatalf("Rollback failed: %v", err)
			}
		case "version":
			version, dirty, err := runner.Version()
			if err != nil {
				log.Fatalf("Failed to read version: %v", err)
			}
			log.Printf("Schema version: %d (dirty: %v)", version, dirty)
		}
	case "bootstrap":
		log.Println("Creating tables...")
		if err := createTables(ctx, db); err != nil {
			log.Fatalf("Bootstrap failed: %v", err)
		}
		if *seed {
			log.Println("Seeding sample data...")
			if err := seedData(ctx, db); err != nil {
				log.Fatalf("Seed failed: %v", err)
			}
		}
		log.Println("✅ Done.")
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

func createTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.MembershipLevel)(nil),
		(*models.User)(nil),
		(*models.Session)(nil),
		(*models.Booking)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func seedData(ctx context.Context, db *bun.DB) error {
	basicLimit := 2
	standardLimit := 4

	levels := []models.MembershipLevel{
		{ID: "level-basic", Name: "Basic", WeeklyLimit: &basicLimit, Priority: 0, DefaultDurationDays: intPtr(30)},
		{ID: "level-standard", Name: "Standard", WeeklyLimit: &standardLimit, Priority: 0, DefaultDurationDays: intPtr(30)},
		{ID: "level-platinum", Name: "Platinum", WeeklyLimit: nil, Priority: models.PriorityPrivileged, DefaultDurationDays: intPtr(365)},
	}
	if _, err := db.NewInsert().Model(&levels).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return err
	}

	expires := time.Now().AddDate(0, 1, 0)
	standard := "level-standard"
	platinum := "level-platinum"
	users := []models.User{
		{ID: uuid.NewString(), Email: "alice@example.com", FullName: "Alice Fernando", Role: models.RoleUser, MembershipLevelID: &standard, SubscriptionExpiresAt: &expires, CreatedAt: time.Now()},
		{ID: uuid.NewString(), Email: "bob@example.com", FullName: "Bob Perera", Role: models.RoleUser, MembershipLevelID: &platinum, SubscriptionExpiresAt: &expires, CreatedAt: time.Now()},
	}
	if _, err := db.NewInsert().Model(&users).On("CONFLICT (email) DO NOTHING").Exec(ctx); err != nil {
		return err
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	sessions := []models.Session{
		{ID: uuid.NewString(), Name: "Morning HIIT", Date: dateOnly(tomorrow), StartTime: "07:00", EndTime: "08:00", Capacity: 12, CreatedAt: time.Now()},
		{ID: uuid.NewString(), Name: "Evening Yoga", Date: dateOnly(tomorrow), StartTime: "18:00", EndTime: "19:30", Capacity: 20, CreatedAt: time.Now()},
	}
	if _, err := db.NewInsert().Model(&sessions).Exec(ctx); err != nil {
		return err
	}

	return nil
}

func intPtr(v int) *int { return &v }

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
