// ABOUTME: Sync orchestrator sequencing fetch, upsert, and archival
// ABOUTME: Isolates per-record failures and reports run counts
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaonmir/Nocioun-sub000/models"
)

// RunRecorder persists run-level state around an orchestrator run. It is
// optional; a nil recorder disables persistence.
type RunRecorder interface {
	BeginRun(ctx context.Context, run *models.SyncRun) error
	FinishRun(ctx context.Context, run *models.SyncRun) error
}

// Orchestrator wires the fetcher and upsert engine into one sync run.
type Orchestrator struct {
	fetcher     *Fetcher
	upserter    *Upserter
	recorder    RunRecorder
	credentials func() error
	verbose     bool
}

// NewOrchestrator creates an orchestrator. recorder may be nil.
func NewOrchestrator(fetcher *Fetcher, upserter *Upserter, recorder RunRecorder) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, upserter: upserter, recorder: recorder, verbose: true}
}

// SetCredentialCheck installs a check run before anything else. A failure
// is fatal for the run and never retried.
func (o *Orchestrator) SetCredentialCheck(check func() error) { o.credentials = check }

// SetVerbose controls per-record progress output.
func (o *Orchestrator) SetVerbose(v bool) { o.verbose = v }

// Run executes one sync pass: fetch changed and deleted contacts, upsert
// every changed contact, archive every deleted one, and report counts.
//
// A conversion or upsert failure for one contact is counted and reported
// but never aborts the batch; the same holds for archival failures. Only
// fetch-level failures (credentials, exhausted transport retries) abort
// the run.
func (o *Orchestrator) Run(ctx context.Context, forceFull bool) (*models.SyncReport, error) {
	if o.credentials != nil {
		if err := o.credentials(); err != nil {
			return nil, err
		}
	}

	report := &models.SyncReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	run := &models.SyncRun{
		ID:        report.RunID,
		Service:   "contacts",
		StartedAt: report.StartedAt,
	}
	if o.recorder != nil {
		if err := o.recorder.BeginRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record run start: %w", err)
		}
	}

	result, err := o.fetch(ctx, forceFull)
	if err != nil {
		o.finishRun(ctx, run, report, err)
		return nil, err
	}

	report.IsFullSync = result.IsFullSync
	report.Fetched = len(result.People)

	for _, person := range result.People {
		created, conv, err := o.upserter.Upsert(ctx, person)
		if err != nil {
			stage := "upsert"
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				stage = "convert"
			}
			report.Failed++
			report.Failures = append(report.Failures, models.RecordFailure{
				ResourceName: person.ResourceName,
				Stage:        stage,
				Err:          err,
			})
			if o.verbose {
				fmt.Printf("  ✗ Failed to sync %s: %v\n", person.ResourceName, err)
			}
			continue
		}

		if created {
			report.Created++
		} else {
			report.Updated++
		}

		if o.verbose && len(conv.PrimaryFallbacks) > 0 {
			fmt.Printf("  → %s: no primary entry for %v, used first value\n",
				person.ResourceName, conv.PrimaryFallbacks)
		}
	}

	for _, person := range result.DeletedPeople {
		if err := o.upserter.ArchiveByResourceName(ctx, person.ResourceName); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, models.RecordFailure{
				ResourceName: person.ResourceName,
				Stage:        "archive",
				Err:          err,
			})
			if o.verbose {
				fmt.Printf("  ✗ Failed to archive %s: %v\n", person.ResourceName, err)
			}
			continue
		}
		report.Archived++
	}

	report.FinishedAt = time.Now()
	o.finishRun(ctx, run, report, nil)

	return report, nil
}

func (o *Orchestrator) fetch(ctx context.Context, forceFull bool) (*models.SyncResult, error) {
	if forceFull {
		return o.fetcher.FullSync(ctx)
	}
	return o.fetcher.Sync(ctx)
}

func (o *Orchestrator) finishRun(ctx context.Context, run *models.SyncRun, report *models.SyncReport, runErr error) {
	if o.recorder == nil {
		return
	}

	now := time.Now()
	run.IsFullSync = report.IsFullSync
	run.Fetched = report.Fetched
	run.Upserted = report.Created + report.Updated
	run.Archived = report.Archived
	run.Failed = report.Failed
	run.FinishedAt = &now
	if runErr != nil {
		msg := runErr.Error()
		run.ErrorMessage = &msg
	}

	if err := o.recorder.FinishRun(ctx, run); err != nil && o.verbose {
		fmt.Printf("  ✗ Failed to record run: %v\n", err)
	}
}
