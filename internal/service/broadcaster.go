package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToOwners(surveyID string, msgType string, payload interface{})
}

// Event types pushed to survey owners
const (
	EventSubmissionReceived   = "submission_received"
	EventAnalyticsInvalidated = "analytics_invalidated"
)

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToOwners(string, string, interface{}) {}
