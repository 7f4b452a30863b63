package config

const (
	// TopicContentCollected carries {doc_id, correlation_id} for every record accepted by /collect.
	TopicContentCollected = "content.collected"

	// ChannelChecker is the consumer channel of the content checker worker.
	ChannelChecker = "checker"
)
