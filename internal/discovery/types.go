package discovery

import (
	"encoding/json"
	"time"
)

// candidateList is the common response envelope of the contenders and
// squeeze endpoints. Candidate records stay raw here; shape handling
// belongs to the normalizer.
type candidateList struct {
	Candidates []json.RawMessage `json:"candidates"`
	Count      int               `json:"count"`
}

// SystemHealth is the out-of-band upstream health signal carried in
// the X-System-State and X-Reason-Stats response headers.
type SystemHealth struct {
	State       string         `json:"state"`
	ReasonStats map[string]int `json:"reason_stats,omitempty"`
	ObservedAt  time.Time      `json:"observed_at"`
}

// StateStaleData is the upstream state that disables trade execution
const StateStaleData = "stale_data"

// SafeToTrade reports whether order submission is allowed under this
// health signal. Stale upstream data blocks trading; ingestion itself
// keeps running either way.
func (h SystemHealth) SafeToTrade() bool {
	if h.State == StateStaleData {
		return false
	}
	if n, ok := h.ReasonStats[StateStaleData]; ok && n > 0 {
		return false
	}
	return true
}
