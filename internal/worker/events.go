package worker

// ContentCollectedPayload is published on config.TopicContentCollected for
// every record the backend stores.
type ContentCollectedPayload struct {
	DocID         string `json:"doc_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
