package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/concierge/concierge/internal/models"
)

// SQLiteAdjustmentLog keeps a durable audit trail of every calibration
// adjustment, queryable by component long after the originating entry has
// scrolled out of the mining window.
type SQLiteAdjustmentLog struct {
	db *sql.DB
}

// NewSQLiteAdjustmentLog opens (or creates) the audit database at dbPath
func NewSQLiteAdjustmentLog(dbPath string) (*SQLiteAdjustmentLog, error) {
	dbPath = expandPath(dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log := &SQLiteAdjustmentLog{db: db}
	if err := log.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return log, nil
}

// initSchema creates the adjustments table
func (l *SQLiteAdjustmentLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS adjustments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id TEXT NOT NULL,
		component TEXT NOT NULL,
		parameter TEXT NOT NULL,
		old_value REAL,
		new_value REAL NOT NULL,
		reason TEXT,
		applied_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_component ON adjustments(component);
	CREATE INDEX IF NOT EXISTS idx_adjustments_applied_at ON adjustments(applied_at);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Record appends one applied adjustment to the trail
func (l *SQLiteAdjustmentLog) Record(ctx context.Context, entryID string, adj models.Adjustment) error {
	query := `
	INSERT INTO adjustments (entry_id, component, parameter, old_value, new_value, reason, applied_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var oldValue interface{}
	if v, ok := adj.OldValue.(float64); ok {
		oldValue = v
	}
	newValue, _ := adj.NewValue.(float64)

	_, err := l.db.ExecContext(ctx, query,
		entryID, adj.Component, adj.Parameter, oldValue, newValue, adj.Reason,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record adjustment: %w", err)
	}
	return nil
}

// ByComponent returns the most recent adjustments applied to a component
func (l *SQLiteAdjustmentLog) ByComponent(ctx context.Context, component string, limit int) ([]models.Adjustment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT component, parameter, old_value, new_value, reason
	FROM adjustments
	WHERE component = ?
	ORDER BY applied_at DESC
	LIMIT ?
	`

	rows, err := l.db.QueryContext(ctx, query, component, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var out []models.Adjustment
	for rows.Next() {
		var adj models.Adjustment
		var oldValue sql.NullFloat64
		var newValue float64
		if err := rows.Scan(&adj.Component, &adj.Parameter, &oldValue, &newValue, &adj.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		if oldValue.Valid {
			adj.OldValue = oldValue.Float64
		}
		adj.NewValue = newValue
		out = append(out, adj)
	}

	return out, rows.Err()
}

// Close closes the audit database
func (l *SQLiteAdjustmentLog) Close() error {
	return l.db.Close()
}
