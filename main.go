// ABOUTME: Entry point for the nocioun CLI
// ABOUTME: Routes auth, sync, and status commands based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kaonmir/Nocioun-sub000/cli"
	"github.com/kaonmir/Nocioun-sub000/db"
)

const version = "0.2.0"

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: XDG data dir)")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("nocioun version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "auth":
		if len(commandArgs) == 0 {
			fmt.Println("Error: auth requires a provider (google or notion)")
			printUsage()
			os.Exit(1)
		}
		switch commandArgs[0] {
		case "google":
			if err := cli.AuthGoogleCommand(commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "notion":
			if err := cli.AuthNotionCommand(commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		default:
			fmt.Printf("Error: unknown auth provider %q\n", commandArgs[0])
			os.Exit(1)
		}

	case "sync":
		database, err := openDatabase(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.SyncCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "status":
		database, err := openDatabase(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := cli.StatusCommand(database, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Error: unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}
}

func openDatabase(path string) (*sql.DB, error) {
	if path == "" {
		path = db.DefaultPath()
	}
	return db.OpenDatabase(path)
}

func printUsage() {
	fmt.Println(`nocioun - sync Google Contacts to a Notion database

Usage:
  nocioun auth google              Authenticate with Google (browser OAuth)
  nocioun auth notion --token T    Store a Notion integration token
  nocioun sync --database-id ID    Run a sync (incremental when possible)
      --full                       Force a full sync
      --page-size N                Contacts per page (default 200)
      --mapping FILE               Custom field mapping JSON
  nocioun status                   Show sync state and recent runs

Flags:
  --db-path PATH                   Override the local state database location
  --version                        Show version`)
}
