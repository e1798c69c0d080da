package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteHistoryDB is the embedded audit log. It records watches and alerts
// for later inspection; the engine never reads it back into live state.
type SQLiteHistoryDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

var _ interfaces.IHistoryStore = (*SQLiteHistoryDB)(nil)

// -----------------------------------------------------------------------------

func NewSQLiteHistoryDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteHistoryDB, error) {
	return &SQLiteHistoryDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) createTables() error {
	// Audit tables persist across restarts, so IF NOT EXISTS instead of a
	// drop-and-recreate.
	query := `
		CREATE TABLE IF NOT EXISTS watch_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT,
			campaign_id TEXT,
			article_id TEXT,
			title TEXT,
			brand TEXT,
			watched_sizes TEXT,
			added_at TIMESTAMP,
			removed_at TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create watch_history: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS alert_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_key TEXT,
			simple_sku TEXT,
			size TEXT,
			quantity INTEGER,
			reserved INTEGER,
			created_at TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create alert_history: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) RecordWatchAdded(w *models.MWatchedProduct) error {
	sizes := make([]string, 0, len(w.WatchedSizes))
	for sku := range w.WatchedSizes {
		sizes = append(sizes, sku)
	}
	sort.Strings(sizes)

	_, err := d.DB.Exec(`
		INSERT INTO watch_history (key, campaign_id, article_id, title, brand, watched_sizes, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, w.Key, w.CampaignID, w.ArticleID, w.ProductInfo.Title, w.ProductInfo.Brand, strings.Join(sizes, ","), w.AddedAt.UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) RecordWatchRemoved(key string) error {
	_, err := d.DB.Exec(`
		UPDATE watch_history SET removed_at = ?
		WHERE key = ? AND removed_at IS NULL
	`, time.Now().UTC(), key)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) RecordAlert(event models.MTransitionEvent, reserved bool) error {
	_, err := d.DB.Exec(`
		INSERT INTO alert_history (product_key, simple_sku, size, quantity, reserved, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ProductKey, event.SimpleSku, event.Size, event.Quantity, boolToInt(reserved), time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) ListWatchHistory(limit int) ([]models.MWatchHistoryEntry, error) {
	rows, err := d.DB.Query(`
		SELECT key, campaign_id, article_id, title, brand, watched_sizes, added_at, removed_at
		FROM watch_history
		ORDER BY added_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MWatchHistoryEntry
	for rows.Next() {
		var e models.MWatchHistoryEntry
		var sizes string
		var removedAt sql.NullTime
		if err := rows.Scan(&e.Key, &e.CampaignID, &e.ArticleID, &e.Title, &e.Brand, &sizes, &e.AddedAt, &removedAt); err != nil {
			return nil, err
		}
		e.WatchedSizes = splitSizes(sizes)
		if removedAt.Valid {
			t := removedAt.Time
			e.RemovedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) ListAlertHistory(limit int) ([]models.MAlertHistoryEntry, error) {
	rows, err := d.DB.Query(`
		SELECT product_key, simple_sku, size, quantity, reserved, created_at
		FROM alert_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MAlertHistoryEntry
	for rows.Next() {
		var e models.MAlertHistoryEntry
		var reserved int
		if err := rows.Scan(&e.ProductKey, &e.SimpleSku, &e.Size, &e.Quantity, &reserved, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Reserved = reserved != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteHistoryDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func splitSizes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
