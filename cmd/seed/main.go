// Command main runs the database seeder for Muster.
package main

import (
	"context"
	"flag"
	"log"

	"muster/internal/config"
	"muster/internal/database"
	"muster/internal/seed"
)

func main() {
	numLeagues := flag.Int("leagues", 5, "Number of demo leagues to create")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Store the demo password unhashed (development only)")
	fakerSeed := flag.Int64("seed", 0, "Seed for generated names, 0 for random")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d leagues, clean=%v\n", *numLeagues, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() && (*shouldClean || *skipBcrypt) {
		log.Fatal("Refusing to clean or store plain passwords in production")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumLeagues:  *numLeagues,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
		Seed:        *fakerSeed,
	}, nil)
	if err := s.Run(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done.")
	log.Printf("Seeded accounts have the password: %s", seed.DefaultPassword)
}
