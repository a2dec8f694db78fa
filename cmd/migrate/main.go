package main

import (
	"fmt"
	"log"

	"splitpot/backend/config"
	"splitpot/backend/database"
	"splitpot/backend/migrations"
)

func main() {
	cfg := config.Load()

	// InitDB applies pending migrations
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	defer database.Close()

	applied, err := migrations.Applied(database.DB)
	if err != nil {
		log.Fatalf("Failed to list migrations: %v", err)
	}
	for _, name := range applied {
		fmt.Println("applied:", name)
	}
	fmt.Println("Migrations completed successfully!")
}
