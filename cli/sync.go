// ABOUTME: Sync and status CLI commands
// ABOUTME: Wires credentials, fetcher, and upsert engine into one run and renders the report
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/kaonmir/Nocioun-sub000/db"
	"github.com/kaonmir/Nocioun-sub000/models"
	"github.com/kaonmir/Nocioun-sub000/notion"
	"github.com/kaonmir/Nocioun-sub000/sync"
)

const contactsService = "contacts"

// SyncCommand runs one contact sync pass against a Notion database.
func SyncCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	databaseID := fs.String("database-id", "", "Notion database ID (required)")
	pageSize := fs.Int64("page-size", 200, "Contacts per page (max 1000)")
	full := fs.Bool("full", false, "Force a full sync even when a sync token exists")
	mappingPath := fs.String("mapping", "", "Path to a field mapping JSON file")
	_ = fs.Parse(args)

	if *databaseID == "" {
		return fmt.Errorf("--database-id is required")
	}

	ctx := context.Background()

	if err := sync.CheckCredentials(); err != nil {
		return err
	}

	mappings, err := sync.LoadMappings(*mappingPath)
	if err != nil {
		return err
	}

	googleToken, err := sync.LoadGoogleToken()
	if err != nil {
		return fmt.Errorf("failed to load google token: %w", err)
	}
	notionToken, err := sync.LoadNotionToken()
	if err != nil {
		return fmt.Errorf("failed to load notion token: %w", err)
	}

	peopleClient, err := sync.NewPeopleClient(ctx, googleToken)
	if err != nil {
		return err
	}

	notionClient := notion.NewClient(notionToken, *databaseID, sync.JoinKeyProperty)

	fmt.Println("Syncing Google Contacts to Notion...")

	if err := notionClient.EnsureSchema(ctx, mappings); err != nil {
		return fmt.Errorf("failed to prepare database schema: %w", err)
	}

	fetcher := sync.NewFetcher(peopleClient, db.NewTokenStore(database, contactsService), *pageSize)
	upserter := sync.NewUpserter(notionClient, sync.NewConverter(mappings))
	orchestrator := sync.NewOrchestrator(fetcher, upserter, db.NewRunLog(database))
	orchestrator.SetCredentialCheck(sync.CheckCredentials)

	report, err := orchestrator.Run(ctx, *full)
	if err != nil {
		return err
	}

	printReport(report)

	return nil
}

func printReport(report *models.SyncReport) {
	mode := "incremental"
	if report.IsFullSync {
		mode = "full"
	}

	fmt.Printf("\n✓ Sync complete (%s)\n", mode)
	fmt.Printf("  ✓ Fetched %d changed contacts\n", report.Fetched)
	if report.Created > 0 {
		fmt.Printf("  ✓ Created %d pages\n", report.Created)
	}
	if report.Updated > 0 {
		fmt.Printf("  ✓ Updated %d pages\n", report.Updated)
	}
	if report.Archived > 0 {
		fmt.Printf("  ✓ Archived %d pages\n", report.Archived)
	}
	if report.Failed > 0 {
		fmt.Printf("  ✗ %d records failed:\n", report.Failed)
		for _, failure := range report.Failures {
			fmt.Printf("    ✗ %s (%s): %v\n", failure.ResourceName, failure.Stage, failure.Err)
		}
	}
	if report.Fetched == 0 && report.Archived == 0 {
		fmt.Println("  ✓ Everything up to date")
	}
}

// StatusCommand prints the sync state and recent runs.
func StatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	limit := fs.Int("limit", 5, "Number of recent runs to show")
	_ = fs.Parse(args)

	state, err := db.GetSyncState(database, contactsService)
	if err != nil {
		return err
	}

	if state == nil {
		fmt.Println("No sync has run yet.")
		return nil
	}

	fmt.Printf("Service: %s\n", state.Service)
	fmt.Printf("Status:  %s\n", state.Status)
	if state.LastSyncTime != nil {
		fmt.Printf("Last sync: %s\n", state.LastSyncTime.Format("2006-01-02 15:04:05"))
	}
	if state.LastSyncToken != nil && *state.LastSyncToken != "" {
		fmt.Println("Sync token: stored")
	} else {
		fmt.Println("Sync token: none (next run will be a full sync)")
	}
	if state.ErrorMessage != nil {
		fmt.Printf("Last error: %s\n", *state.ErrorMessage)
	}

	runs, err := db.RecentRuns(database, contactsService, *limit)
	if err != nil {
		return err
	}

	if len(runs) > 0 {
		fmt.Println("\nRecent runs:")
		for _, run := range runs {
			mode := "incremental"
			if run.IsFullSync {
				mode = "full"
			}
			outcome := "ok"
			if run.ErrorMessage != nil {
				outcome = "error"
			}
			fmt.Printf("  %s  %-11s  fetched=%d upserted=%d archived=%d failed=%d  %s\n",
				run.StartedAt.Format("2006-01-02 15:04"), mode,
				run.Fetched, run.Upserted, run.Archived, run.Failed, outcome)
		}
	}

	return nil
}
