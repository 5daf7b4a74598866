package interfaces

import "holiday-pipeline/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger pushes collection progress to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast queues an event for every connected listener.
	Broadcast(event models.MCollectionEvent)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
