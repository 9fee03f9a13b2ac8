// ABOUTME: Data models for contact sync
// ABOUTME: Defines FieldMapping, SyncResult, and SyncReport structs
package models

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/people/v1"
)

// FieldMapping associates one Google contact field key with a Notion
// property name and type. A mapping with an empty Name is unmapped and the
// field is skipped during conversion.
type FieldMapping struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Field keys accepted in a mapping.
const (
	FieldDisplayName  = "display_name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldOrganization = "organization"
	FieldJobTitle     = "job_title"
	FieldAddress      = "address"
	FieldBirthday     = "birthday"
	FieldBiography    = "biography"
)

// SyncResult holds the outcome of one fetch: the contacts that need
// upserting, the contacts reported deleted upstream, and whether the fetch
// was a full enumeration or an incremental replay.
type SyncResult struct {
	People        []*people.Person
	DeletedPeople []*people.Person
	IsFullSync    bool
}

// SyncReport summarizes one orchestrator run.
type SyncReport struct {
	RunID      uuid.UUID
	IsFullSync bool
	Fetched    int
	Created    int
	Updated    int
	Archived   int
	Failed     int
	Failures   []RecordFailure
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordFailure records one isolated per-contact failure.
type RecordFailure struct {
	ResourceName string
	Stage        string // "convert", "upsert", or "archive"
	Err          error
}

// SyncRun is one persisted orchestrator run, backing the status command.
type SyncRun struct {
	ID           uuid.UUID
	Service      string
	IsFullSync   bool
	Fetched      int
	Upserted     int
	Archived     int
	Failed       int
	ErrorMessage *string
	StartedAt    time.Time
	FinishedAt   *time.Time
}
