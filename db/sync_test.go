package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kaonmir/Nocioun-sub000/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestTokenStoreLoadAbsent(t *testing.T) {
	database := setupTestDB(t)
	store := NewTokenStore(database, "contacts")

	token, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("expected ok=false when no token is stored")
	}
	if token != "" {
		t.Errorf("expected empty token, got %q", token)
	}
}

func TestTokenStoreSaveAndLoad(t *testing.T) {
	database := setupTestDB(t)
	store := NewTokenStore(database, "contacts")
	ctx := context.Background()

	if err := store.Save(ctx, "token-1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	token, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || token != "token-1" {
		t.Errorf("expected token-1, got %q (ok=%v)", token, ok)
	}

	// Save overwrites.
	if err := store.Save(ctx, "token-2"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	token, ok, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || token != "token-2" {
		t.Errorf("expected token-2, got %q (ok=%v)", token, ok)
	}
}

func TestTokenStoreIsolatedByService(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	contacts := NewTokenStore(database, "contacts")
	other := NewTokenStore(database, "other")

	if err := contacts.Save(ctx, "token-1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, ok, err := other.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("expected no token for a different service")
	}
}

func TestSyncStateLifecycle(t *testing.T) {
	database := setupTestDB(t)

	state, err := GetSyncState(database, "contacts")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state before first sync, got %+v", state)
	}

	if err := UpdateSyncStatus(database, "contacts", "syncing", nil); err != nil {
		t.Fatalf("UpdateSyncStatus failed: %v", err)
	}

	state, err = GetSyncState(database, "contacts")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state == nil || state.Status != "syncing" {
		t.Fatalf("expected syncing status, got %+v", state)
	}

	errMsg := "boom"
	if err := UpdateSyncStatus(database, "contacts", "error", &errMsg); err != nil {
		t.Fatalf("UpdateSyncStatus failed: %v", err)
	}

	state, err = GetSyncState(database, "contacts")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.ErrorMessage == nil || *state.ErrorMessage != "boom" {
		t.Errorf("expected error message recorded, got %+v", state.ErrorMessage)
	}
}

func TestRunLogLifecycle(t *testing.T) {
	database := setupTestDB(t)
	runLog := NewRunLog(database)
	ctx := context.Background()

	run := &models.SyncRun{
		ID:        uuid.New(),
		Service:   "contacts",
		StartedAt: time.Now(),
	}

	if err := runLog.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	state, err := GetSyncState(database, "contacts")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.Status != "syncing" {
		t.Errorf("expected syncing status during run, got %s", state.Status)
	}

	now := time.Now()
	run.IsFullSync = true
	run.Fetched = 5
	run.Upserted = 4
	run.Archived = 1
	run.Failed = 1
	run.FinishedAt = &now

	if err := runLog.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	state, err = GetSyncState(database, "contacts")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.Status != "idle" {
		t.Errorf("expected idle status after run, got %s", state.Status)
	}

	runs, err := RecentRuns(database, "contacts", 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID {
		t.Errorf("expected run id %s, got %s", run.ID, got.ID)
	}
	if !got.IsFullSync || got.Fetched != 5 || got.Upserted != 4 || got.Archived != 1 || got.Failed != 1 {
		t.Errorf("run counts not persisted: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at recorded")
	}
}

func TestRunLogErrorStatus(t *testing.T) {
	database := setupTestDB(t)
	runLog := NewRunLog(database)
	ctx := context.Background()

	run := &models.SyncRun{ID: uuid.New(), Service: "contacts", StartedAt: time.Now()}
	if err := runLog.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	errMsg := "fetch failed"
	now := time.Now()
	run.ErrorMessage = &errMsg
	run.FinishedAt = &now
	if err := runLog.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	state, err := GetSyncState(database, "contacts")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.Status != "error" {
		t.Errorf("expected error status, got %s", state.Status)
	}
	if state.ErrorMessage == nil || *state.ErrorMessage != "fetch failed" {
		t.Errorf("expected error message recorded, got %v", state.ErrorMessage)
	}
}

func TestRecentRunsOrdering(t *testing.T) {
	database := setupTestDB(t)
	runLog := NewRunLog(database)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := &models.SyncRun{
			ID:        uuid.New(),
			Service:   "contacts",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		ids = append(ids, run.ID)
		if err := runLog.BeginRun(ctx, run); err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
	}

	runs, err := RecentRuns(database, "contacts", 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] {
		t.Errorf("expected newest run first")
	}
}
