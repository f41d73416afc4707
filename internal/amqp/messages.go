package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetsync/internal/core"
)

// ReconcileRequestMessage asks a worker to reconcile one exported report.
// The report is referenced by path; the worker reads it from shared storage.
type ReconcileRequestMessage struct {
	ReportPath string    `json:"report_path"`
	Month      int       `json:"month,omitempty"` // overrides the report's month when set
	DryRun     bool      `json:"dry_run,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReconcileRequestMessage creates a request stamped with the current time
func NewReconcileRequestMessage(reportPath string, month int, dryRun bool) *ReconcileRequestMessage {
	return &ReconcileRequestMessage{
		ReportPath: reportPath,
		Month:      month,
		DryRun:     dryRun,
		Timestamp:  time.Now(),
	}
}

// Validate checks the fields a worker needs before running.
func (m *ReconcileRequestMessage) Validate() error {
	if m.ReportPath == "" {
		return core.ErrEmptyReportPath
	}
	if m.Month != 0 {
		if err := core.ValidateMonth(m.Month); err != nil {
			return fmt.Errorf("month %d: %w", m.Month, err)
		}
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReconcileRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReconcileRequestMessageFromJSON decodes and validates a message.
func ReconcileRequestMessageFromJSON(data []byte) (*ReconcileRequestMessage, error) {
	var msg ReconcileRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
