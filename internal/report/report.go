// Package report defines the run report shapes the orchestrator produces
// and the CLI renders.
package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that marshals as integer milliseconds,
// matching the durationMs field names in the JSON report.
type Duration time.Duration

// MarshalJSON emits whole milliseconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// Milliseconds returns the duration as whole milliseconds.
func (d Duration) Milliseconds() int64 {
	return time.Duration(d).Milliseconds()
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// State is a feed's position in its pipeline lifecycle.
type State string

const (
	StatePending      State = "pending"
	StateExtracting   State = "extracting"
	StateTransforming State = "transforming"
	StateLoading      State = "loading"

	// Terminal states.
	StateSucceeded         State = "succeeded"
	StateSucceededDegraded State = "succeeded_degraded"
	StateFailed            State = "failed"
)

// Terminal reports whether the state ends a feed's pipeline.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateSucceededDegraded, StateFailed:
		return true
	}
	return false
}

// Feed is one feed's outcome within a run.
type Feed struct {
	Name             string   `json:"name"`
	State            State    `json:"state"`
	RecordsExtracted int      `json:"recordsExtracted"`
	RecordsLoaded    int      `json:"recordsLoaded"`
	RecordsRejected  int      `json:"recordsRejected"`
	Duration         Duration `json:"durationMs"`
	Degraded         bool     `json:"degraded"`
	Error            string   `json:"error,omitempty"`
}

// Run aggregates the outcomes of every feed processed in one invocation.
type Run struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Duration  Duration  `json:"durationMs"`
	Simulated bool      `json:"simulated"`
	Feeds     []Feed    `json:"feeds"`
}

// Failed returns the number of feeds that ended in StateFailed.
func (r Run) Failed() int {
	failed := 0
	for _, f := range r.Feeds {
		if f.State == StateFailed {
			failed++
		}
	}
	return failed
}

// OK reports whether the run finished with no failed feed.
func (r Run) OK() bool { return r.Failed() == 0 }

// Summary is a one-line human rendering of the run outcome.
func (r Run) Summary() string {
	mode := ""
	if r.Simulated {
		mode = " (dry run)"
	}
	return fmt.Sprintf("%d feeds, %d failed%s", len(r.Feeds), r.Failed(), mode)
}
