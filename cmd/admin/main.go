package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"poupa/internal/domain/banksync"
	"poupa/internal/domain/connection"
	"poupa/internal/infrastructure/pluggy"
	"poupa/internal/infrastructure/postgres"
	"poupa/internal/shared/config"
)

const usage = `Poupa Admin CLI - Management commands for the Poupa API

Usage:
  admin <command> [options]

Commands:
  sync      Run a bank sync pass for one connection or every connection of the given users
  migrate   Apply the database schema

Examples:
  # Sync every connection of a user
  admin sync --user-id=1

  # Sync a single connection
  admin sync --user-id=1 --connection-id=0b6f3c9e-5d7a-4e0b-9a0e-2f9d1c8b7a61

  # Sync every user that has connections
  admin sync --all --timeout=30m

  # Create or update tables
  admin migrate
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "sync":
		runSync(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage + "\n")
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	userIDStr := fs.String("user-id", "", "User ID(s) to sync (comma-separated for multiple)")
	allUsers := fs.Bool("all", false, "Sync all users with connections")
	connectionID := fs.String("connection-id", "", "Sync only this connection (requires a single --user-id)")
	timeoutStr := fs.String("timeout", "10m", "Timeout for the operation (e.g., 5m, 1h)")

	fs.Usage = func() {
		fmt.Println("Usage: admin sync [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *userIDStr == "" && !*allUsers {
		fmt.Println("Error: must specify --user-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	var userIDs []int64
	if !*allUsers {
		userIDs, err = parseUserIDs(*userIDStr)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *connectionID != "" && len(userIDs) != 1 {
		log.Fatalf("--connection-id requires exactly one --user-id")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	connectionRepo := postgres.NewConnectionRepository(db)
	connectionService := connection.NewService(connectionRepo)
	store := banksync.NewStore(connectionRepo, postgres.NewAccountRepository(db), postgres.NewTransactionRepository(db))
	client := pluggy.NewClient(pluggy.Config{
		BaseURL:      cfg.Pluggy.BaseURL,
		ClientID:     cfg.Pluggy.ClientID,
		ClientSecret: cfg.Pluggy.ClientSecret,
		Timeout:      cfg.Pluggy.Timeout,
	})
	syncService := banksync.NewService(client, connectionService, store,
		banksync.WithLookbackMonths(cfg.Sync.LookbackMonths),
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if *allUsers {
		userIDs, err = connectionService.ListUserIDs(ctx)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
		log.Printf("Found %d users with connections", len(userIDs))
	}

	if len(userIDs) == 0 {
		log.Println("No users to process")
		return
	}

	startTime := time.Now()
	failed := 0

	if *connectionID != "" {
		result, err := syncService.Sync(ctx, *connectionID, "", userIDs[0])
		printOutcome(userIDs[0], banksync.Outcome{
			Connection: &connection.Connection{ID: *connectionID},
			Result:     result,
			Err:        err,
		})
		if err != nil {
			failed++
		}
	} else {
		for _, uid := range userIDs {
			outcomes, err := syncService.SyncAllForUser(ctx, uid)
			if err != nil {
				log.Printf("User %d: %v", uid, err)
				failed++
				continue
			}
			fmt.Printf("\n=== User %d ===\n", uid)
			if len(outcomes) == 0 {
				fmt.Println("  No connections")
			}
			for _, o := range outcomes {
				printOutcome(uid, o)
				if o.Err != nil {
					failed++
				}
			}
		}
	}

	log.Printf("Sync completed in %v with %d failure(s)", time.Since(startTime), failed)
	if failed > 0 {
		os.Exit(2)
	}
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database schema up to date")
}

// parseUserIDs parses a comma-separated list of positive user ids.
func parseUserIDs(s string) ([]int64, error) {
	var ids []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid user ID '%s'", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printOutcome(userID int64, o banksync.Outcome) {
	name := o.Connection.InstitutionName
	if name == "" {
		name = o.Connection.ID
	}
	if o.Err != nil {
		fmt.Printf("  %-30s FAILED: %v\n", name, o.Err)
		return
	}
	fmt.Printf("  %-30s accounts=%d new_transactions=%d\n", name, o.Result.Accounts, o.Result.Transactions)
}
