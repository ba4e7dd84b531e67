package core

import (
	"fmt"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
)

// runTracker records a batch in the run store. A zero tracker records nothing.
type runTracker struct {
	store contract.RunStore
	id    string
}

// beginRun opens a run when a run store is configured. Failures only disable tracking.
func beginRun(cfg *contract.Config, mgr contract.CacheManager, start time.Time) runTracker {
	if mgr == nil {
		return runTracker{}
	}
	store := mgr.GetRunStore()
	if store == nil {
		return runTracker{}
	}
	id, err := store.BeginRun(start, cfg.Params())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return runTracker{}
	}
	return runTracker{store: store, id: id}
}

func (t runTracker) active() bool {
	return t.store != nil && t.id != ""
}

func (t runTracker) recordPatches(records []schema.PatchRecord) {
	if !t.active() {
		return
	}
	if err := t.store.RecordPatches(t.id, records); err != nil {
		logTrackingError("RecordPatches", t.id, err)
	}
}

func (t runTracker) recordPanel(rows []schema.PanelRow) {
	if !t.active() {
		return
	}
	if err := t.store.RecordPanel(t.id, rows); err != nil {
		logTrackingError("RecordPanel", t.id, err)
	}
}

func (t runTracker) end(totalGames int) {
	if !t.active() {
		return
	}
	if err := t.store.EndRun(t.id, time.Now(), totalGames); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// abort closes a run whose batch failed so it does not stay open. No games count as processed.
func (t runTracker) abort(cause error) {
	if !t.active() {
		return
	}
	contract.LogWarn(fmt.Sprintf("Run %s aborted", t.id), cause)
	t.end(0)
}

// logTrackingError logs run store failures to stderr without disrupting the batch.
func logTrackingError(operation, runID string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s on %s", operation, runID), err)
}
