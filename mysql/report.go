package mysql

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// TableResult holds one table's outcome. Counts on a failed table cover
// the batches committed before the failure; they are reported with the
// error but excluded from run totals.
type TableResult struct {
	Table          string
	Inserted       int
	Updated        int
	Skipped        int
	SkippedKeyOnly int
	Err            error
}

type TableError struct {
	Table   string `json:"table" yaml:"table"`
	Message string `json:"error" yaml:"error"`
}

// RunSummary accumulates results across the whole run. It is appended to
// only by the orchestrator's single control thread, in table discovery
// order.
type RunSummary struct {
	RunID          string       `json:"runId" yaml:"runId"`
	Started        time.Time    `json:"started" yaml:"started"`
	Duration       string       `json:"duration" yaml:"duration"`
	Tables         int          `json:"tables" yaml:"tables"`
	Inserted       int          `json:"inserted" yaml:"inserted"`
	Updated        int          `json:"updated" yaml:"updated"`
	Skipped        int          `json:"skipped" yaml:"skipped"`
	SkippedKeyOnly int          `json:"skippedKeyOnly,omitempty" yaml:"skippedKeyOnly,omitempty"`
	Errors         []TableError `json:"errors,omitempty" yaml:"errors,omitempty"`

	started time.Time
}

func newRunSummary() *RunSummary {
	now := time.Now()
	return &RunSummary{RunID: uuid.NewString(), Started: now.UTC(), started: now}
}

func (s *RunSummary) record(res TableResult) {
	s.Tables++
	if res.Err != nil {
		s.Errors = append(s.Errors, TableError{Table: res.Table, Message: res.Err.Error()})
		return
	}
	s.Inserted += res.Inserted
	s.Updated += res.Updated
	s.Skipped += res.Skipped
	s.SkippedKeyOnly += res.SkippedKeyOnly
}

func (s *RunSummary) finish() {
	s.Duration = time.Since(s.started).Round(time.Millisecond).String()
}

// Failed reports whether any table ended in an error. The process still
// exits zero in that case; a non-zero exit is reserved for runs that
// never got off the ground.
func (s *RunSummary) Failed() bool { return len(s.Errors) > 0 }

func (s *RunSummary) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Sync run %s finished in %s\n", s.RunID, s.Duration)
	fmt.Fprintf(w, "  tables:   %d\n", s.Tables)
	fmt.Fprintf(w, "  inserted: %d\n", s.Inserted)
	fmt.Fprintf(w, "  updated:  %d\n", s.Updated)
	fmt.Fprintf(w, "  skipped:  %d\n", s.Skipped)
	if s.SkippedKeyOnly > 0 {
		fmt.Fprintf(w, "  skipped (key-only tables): %d\n", s.SkippedKeyOnly)
	}
	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "  failed tables:\n")
		for _, e := range s.Errors {
			fmt.Fprintf(w, "    - %s: %s\n", e.Table, e.Message)
		}
	}
}

func (s *RunSummary) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (s *RunSummary) RenderYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}
