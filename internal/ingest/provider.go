// Package ingest holds what import providers have in common.
package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int      `json:"sessions_received"`
	SessionsInserted int      `json:"sessions_inserted"`
	SessionsSkipped  int      `json:"sessions_skipped"`
	SetsReceived     int      `json:"sets_received"`
	SetsInserted     int      `json:"sets_inserted"`
	Unmatched        []string `json:"unmatched,omitempty"`
	Message          string   `json:"message,omitempty"`
}
