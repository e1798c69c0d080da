package interfaces

import "lounge-monitor/src/models"

// -----------------------------------------------------------------------------
// INotifier defines the outbound alert channel. Sends are fire-and-forget:
// implementations log delivery failures and never surface them to the poll
// loop.
// -----------------------------------------------------------------------------

type INotifier interface {

	// -----------------------------------------------------------------------------

	// NotifyStock sends exactly one alert for a transition event. When a
	// reservation was attempted its outcome is embedded in the message.
	NotifyStock(info models.MProductInfo, event models.MTransitionEvent, reservation *models.MReservationResult) error

	// -----------------------------------------------------------------------------

	// NotifyTokenExpired fires the single deduplicated credentials-expired
	// alert. Returns false when the alert was suppressed by the dedup flag.
	NotifyTokenExpired(errMsg string) bool

	// ResetTokenExpired re-arms the credentials-expired alert after a
	// credential update or a successful refresh.
	ResetTokenExpired()

	// -----------------------------------------------------------------------------

	// NotifyTokenRefreshed reports a successful automatic token refresh.
	NotifyTokenRefreshed() error

	// NotifyTokenRefreshFailed reports a failed automatic token refresh.
	NotifyTokenRefreshFailed(errMsg string) error
}
