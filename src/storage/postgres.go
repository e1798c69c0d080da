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

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresHistoryDB is the shared-server flavor of the audit log, for
// deployments where the embedded file is not an option.
type PostgresHistoryDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

var _ interfaces.IHistoryStore = (*PostgresHistoryDB)(nil)

// -----------------------------------------------------------------------------

func NewPostgresHistoryDB(cfg *models.MConfig, log *logger.Logger) (*PostgresHistoryDB, error) {
	return &PostgresHistoryDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresHistoryDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS watch_history (
			id SERIAL PRIMARY KEY,
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
			id SERIAL PRIMARY KEY,
			product_key TEXT,
			simple_sku TEXT,
			size TEXT,
			quantity INTEGER,
			reserved BOOLEAN,
			created_at TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create alert_history: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) RecordWatchAdded(w *models.MWatchedProduct) error {
	sizes := make([]string, 0, len(w.WatchedSizes))
	for sku := range w.WatchedSizes {
		sizes = append(sizes, sku)
	}
	sort.Strings(sizes)

	_, err := d.DB.Exec(`
		INSERT INTO watch_history (key, campaign_id, article_id, title, brand, watched_sizes, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, w.Key, w.CampaignID, w.ArticleID, w.ProductInfo.Title, w.ProductInfo.Brand, strings.Join(sizes, ","), w.AddedAt.UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) RecordWatchRemoved(key string) error {
	_, err := d.DB.Exec(`
		UPDATE watch_history SET removed_at = $1
		WHERE key = $2 AND removed_at IS NULL
	`, time.Now().UTC(), key)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) RecordAlert(event models.MTransitionEvent, reserved bool) error {
	_, err := d.DB.Exec(`
		INSERT INTO alert_history (product_key, simple_sku, size, quantity, reserved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ProductKey, event.SimpleSku, event.Size, event.Quantity, reserved, time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) ListWatchHistory(limit int) ([]models.MWatchHistoryEntry, error) {
	rows, err := d.DB.Query(`
		SELECT key, campaign_id, article_id, title, brand, watched_sizes, added_at, removed_at
		FROM watch_history
		ORDER BY added_at DESC
		LIMIT $1
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

func (d *PostgresHistoryDB) ListAlertHistory(limit int) ([]models.MAlertHistoryEntry, error) {
	rows, err := d.DB.Query(`
		SELECT product_key, simple_sku, size, quantity, reserved, created_at
		FROM alert_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MAlertHistoryEntry
	for rows.Next() {
		var e models.MAlertHistoryEntry
		if err := rows.Scan(&e.ProductKey, &e.SimpleSku, &e.Size, &e.Quantity, &e.Reserved, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresHistoryDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
