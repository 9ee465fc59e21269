package observability

// EventEnvelope wraps everything published to the topic exchange.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	RequestID string      `json:"request_id,omitempty"`
	Payload   interface{} `json:"payload"`
}
