package amqp

import (
	"encoding/json"
	"time"
)

// DatasetReloadedMessage announces that a new sales snapshot is available.
// Consumers reload their table from their own source; the message only
// carries metadata.
type DatasetReloadedMessage struct {
	Source    string    `json:"source"`
	Records   int       `json:"records"`
	Skipped   int       `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetReloadedMessage(source string, records, skipped int) *DatasetReloadedMessage {
	return &DatasetReloadedMessage{
		Source:    source,
		Records:   records,
		Skipped:   skipped,
		Timestamp: time.Now(),
	}
}

func (m *DatasetReloadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetReloadedMessageFromJSON(data []byte) (*DatasetReloadedMessage, error) {
	var msg DatasetReloadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
