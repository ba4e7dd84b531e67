package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
)

// Table names for run tracking.
const (
	runsTable         = "patchpanel_runs"
	patchRecordsTable = "patchpanel_patch_records"
	panelRowsTable    = "patchpanel_panel_rows"
)

// runTables lists the run store tables in dependency order.
var runTables = []string{runsTable, patchRecordsTable, panelRowsTable}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	newID   func() string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore migrates the schema to the latest version and opens the run store.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend, newID: uuid.NewString}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported run backend: %s", backend)
	}

	if err := MigrateRuns(backend, connStr, -1, io.Discard); err != nil {
		return nil, fmt.Errorf("failed to migrate run store: %w", err)
	}

	db, err := openDB(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	return &RunStoreImpl{db: db, backend: backend, newID: uuid.NewString}, nil
}

// disabled reports whether the store is the no-op backend.
func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (string, error) {
	runID := rs.newID()
	if rs.disabled() {
		return runID, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, start_time, config_params) VALUES (%s)`,
		quoteTableName(runsTable, rs.backend), bindList(rs.backend, 1, 3))
	if _, err := rs.db.Exec(query, runID, formatTime(startTime, rs.backend), string(configJSON)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordPatches stores the patch records of a run in one transaction.
func (rs *RunStoreImpl) RecordPatches(runID string, records []schema.PatchRecord) error {
	if rs.disabled() || len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, seq, app_id, title, body, published_at, source_timestamp, is_major, reason) VALUES (%s)`,
		quoteTableName(patchRecordsTable, rs.backend), bindList(rs.backend, 1, 9))

	return rs.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i, rec := range records {
			isMajor := 0
			if rec.IsMajor {
				isMajor = 1
			}
			if _, err := stmt.Exec(runID, i, rec.AppID, rec.Title, rec.Body, formatTime(rec.PublishedAt, rs.backend),
				rec.SourceTimestamp, isMajor, string(rec.Reason)); err != nil {
				return fmt.Errorf("failed to insert patch record %d: %w", i, err)
			}
		}
		return nil
	})
}

// RecordPanel stores the panel rows of a run in one transaction.
func (rs *RunStoreImpl) RecordPanel(runID string, rows []schema.PanelRow) error {
	if rs.disabled() || len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, app_id, rel_month, name, event_date, month, avg_players, peak_players, owners_estimate, metacritic_score, treatment, review_count, review_percent_positive) VALUES (%s)`,
		quoteTableName(panelRowsTable, rs.backend), bindList(rs.backend, 1, 13))

	return rs.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, row := range rows {
			if _, err := stmt.Exec(runID, row.AppID, row.RelMonth, row.Name, formatDate(row.EventDate, schema.DateLayout),
				formatDate(row.Month, schema.DateLayout), row.AvgPlayers, row.PeakPlayers, row.OwnersEstimate,
				row.MetacriticScore, row.Treatment, row.ReviewCount, row.ReviewPercentPositive); err != nil {
				return fmt.Errorf("failed to insert panel row %d/%d: %w", row.AppID, row.RelMonth, err)
			}
		}
		return nil
	})
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID string, endTime time.Time, totalGames int) error {
	if rs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	row := rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, bindList(rs.backend, 1, 1)), runID)
	startTime, err := rs.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	binds := placeholders(rs.backend, 1, 4)
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_games = %s WHERE run_id = %s`,
		quotedTableName, binds[0], binds[1], binds[2], binds[3])
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, totalGames, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastID string
		var lastTime any
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1", quotedRuns))
		if rs.backend == schema.SQLiteBackend {
			var s string
			lastTime = &s
		} else {
			var t time.Time
			lastTime = &t
		}
		if err := row.Scan(&lastID, lastTime); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunID = lastID
		t, err := rs.toTime(lastTime)
		if err != nil {
			return status, err
		}
		status.LastRunTime = t

		oldest, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY start_time ASC LIMIT 1", quotedRuns)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_games), 0) FROM %s", quotedRuns)).Scan(&status.TotalGames); err != nil {
			return status, fmt.Errorf("failed to get total games: %w", err)
		}
	}

	for _, table := range runTables {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs ordered by start time.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, start_time, end_time, run_duration_ms, total_games, config_params FROM %s ORDER BY start_time",
		quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		if rs.backend == schema.SQLiteBackend {
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &startStr, &endStr, &record.RunDurationMs, &record.TotalGames, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = parseSQLiteTime(startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				end, err := parseSQLiteTime(*endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		} else if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalGames, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (rs *RunStoreImpl) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// scanTime reads a single timestamp column written by formatTime.
func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if rs.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return parseSQLiteTime(s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// toTime converts a scanned timestamp destination into a time.Time.
func (rs *RunStoreImpl) toTime(dest any) (time.Time, error) {
	switch v := dest.(type) {
	case *string:
		return parseSQLiteTime(*v)
	case *time.Time:
		return *v, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected time destination %T", dest)
	}
}

// formatDate renders an optional date for storage.
func formatDate(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(layout)
}
