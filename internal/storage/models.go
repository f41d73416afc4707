package storage

import "time"

// Run is one recorded reconciliation pass.
type Run struct {
	ID          string     `json:"id"`
	Month       int        `json:"month"`
	MonthLabel  string     `json:"month_label"`
	MonthColumn string     `json:"month_column"`
	DryRun      bool       `json:"dry_run"`
	Entries     int        `json:"entries"`
	Unmatched   int        `json:"unmatched"`
	Step        string     `json:"step,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
	Writes      []RunWrite `json:"writes,omitempty"`
}

// RunWrite is a single planned cell write, in plan order.
type RunWrite struct {
	Address string `json:"address"`
	Value   string `json:"value"`
}

// Failed reports whether the run stopped with an error.
func (r Run) Failed() bool {
	return r.Error != ""
}
