package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/database"
	"github.com/rs/zerolog"
)

func main() {
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewSQLite(cfg.DatabasePath, zerolog.Nop())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "up":
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Up failed: %v", err)
		}
		fmt.Println("Migrated up successfully")
	case "down":
		if err := database.MigrateDown(db); err != nil {
			log.Fatalf("Down failed: %v", err)
		}
		fmt.Println("Migrated down successfully")
	case "version":
		version, dirty, err := database.MigrateVersion(db)
		if err != nil {
			log.Fatalf("Version failed: %v", err)
		}
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage: migrate <command>")
	fmt.Println("Commands: up, down, version")
}
