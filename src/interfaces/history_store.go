package interfaces

import "lounge-monitor/src/models"

// -----------------------------------------------------------------------------
// IHistoryStore defines the contract for the audit log. It records what was
// watched and what alerted; it never holds live engine state, so a restart
// still requires re-submitting credentials, session and watches.
// -----------------------------------------------------------------------------

type IHistoryStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// RecordWatchAdded appends a watch-history row.
	RecordWatchAdded(w *models.MWatchedProduct) error

	// RecordWatchRemoved stamps the removal time on a watch-history row.
	RecordWatchRemoved(key string) error

	// -----------------------------------------------------------------------------

	// RecordAlert appends an alert-history row.
	RecordAlert(event models.MTransitionEvent, reserved bool) error

	// -----------------------------------------------------------------------------

	// ListWatchHistory returns the most recent watch-history rows.
	ListWatchHistory(limit int) ([]models.MWatchHistoryEntry, error)

	// ListAlertHistory returns the most recent alert-history rows.
	ListAlertHistory(limit int) ([]models.MAlertHistoryEntry, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
