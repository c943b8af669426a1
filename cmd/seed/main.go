// Command main runs the database seeder for Oneiro.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"oneiro/internal/config"
	"oneiro/internal/seed"
	"oneiro/internal/store"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numDreams := flag.Int("dreams", 300, "Number of dreams to create")
	shareRatio := flag.Float64("share", 0.3, "Fraction of dreams shared to the community")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a specific seeder preset (e.g. Mega)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring other flags)\n", *preset)
	} else {
		log.Printf("Target: %d users, %d dreams, share=%.2f, clean=%v\n",
			*numUsers, *numDreams, *shareRatio, *shouldClean)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := store.Open(cfg, slog.Default())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := store.EnsureSchema(ctx, db, slog.Default()); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Run seeder
	opts := seed.Options{
		NumUsers:   *numUsers,
		NumDreams:  *numDreams,
		ShareRatio: *shareRatio,
	}
	s := seed.NewSeeder(db, opts)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if *preset != "" {
		if err := s.ApplyPreset(ctx, *preset); err != nil {
			log.Fatalf("❌ Preset seeding failed: %v", err)
		}
	} else {
		if err := s.Run(ctx, opts); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DemoPassword)
}
