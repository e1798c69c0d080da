package interfaces

import "lounge-monitor/src/models"

// -----------------------------------------------------------------------------
// IEventSink receives monitor events for live consumers (the websocket hub).
// Publish never blocks the caller; slow consumers are the sink's problem.
// -----------------------------------------------------------------------------

type IEventSink interface {
	Publish(event models.MMonitorEvent)
}
