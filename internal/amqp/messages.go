package amqp

import (
	"encoding/json"
	"time"
)

// AlertRequestMessage asks the worker to run one anomaly-detection pass.
// It carries only the reference day; the worker loads the ledger itself and
// the once-per-day guard makes duplicate requests harmless.
type AlertRequestMessage struct {
	Day       string    `json:"day"` // YYYY-MM-DD
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlertRequestMessage creates a request for the day containing now.
func NewAlertRequestMessage(now time.Time, reason string) *AlertRequestMessage {
	return &AlertRequestMessage{
		Day:       now.UTC().Format("2006-01-02"),
		Reason:    reason,
		Timestamp: now,
	}
}

func (m *AlertRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AlertRequestMessageFromJSON(data []byte) (*AlertRequestMessage, error) {
	var msg AlertRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
