package diagnose

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/solver"
)

// Verdict is the final per-goal classification carried by the report.
type Verdict string

const (
	VerdictProved         Verdict = "proved"
	VerdictRefuted        Verdict = "refuted"
	VerdictUnknown        Verdict = "unknown"
	VerdictSkipped        Verdict = "skipped"
	VerdictErrored        Verdict = "errored"
	VerdictEncodingFailed Verdict = "encoding_failed"
)

// Entry is the diagnosed result for one goal. Fields beyond Verdict are
// populated per-verdict: counterexamples for refuted, unsat analysis for
// proved, cause for unknown, reason for skipped and failed goals.
type Entry struct {
	GoalID   string                  `json:"goal_id"`
	Category contract.Category       `json:"category"`
	Source   contract.SourceLocation `json:"source"`
	Verdict  Verdict                 `json:"verdict"`

	// Reason carries the skip reason, error detail, or unknown reason text.
	Reason string `json:"reason,omitempty"`

	// Cause classifies an Unknown verdict.
	Cause UnknownCause `json:"cause,omitempty"`

	Counterexample *Counterexample `json:"counterexample,omitempty"`

	// Minimal is the reduced counterexample; it never contains a binding
	// absent from Counterexample.
	Minimal *Counterexample `json:"minimal,omitempty"`

	Unsat *UnsatAnalysis `json:"unsat,omitempty"`

	Metrics solver.Metrics `json:"metrics"`

	// Explanation is a one-paragraph human rendering of the verdict.
	Explanation string `json:"explanation"`
}

// Report aggregates the diagnosed entries of one verification run. Entries
// are keyed by goal ID and sorted, so two runs over the same goals produce
// reports in the same order regardless of worker scheduling.
type Report struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Elapsed  time.Duration `json:"elapsed"`
	Entries  []Entry       `json:"entries"`
	Summary  Summary       `json:"summary"`
	Strict   bool          `json:"strict"`
}

// Summary counts entries by verdict.
type Summary struct {
	Total          int `json:"total"`
	Proved         int `json:"proved"`
	Refuted        int `json:"refuted"`
	Unknown        int `json:"unknown"`
	Skipped        int `json:"skipped"`
	Errored        int `json:"errored"`
	EncodingFailed int `json:"encoding_failed"`

	// ByCategory breaks the counts down per contract category. Goals
	// without a category only appear in the top-level counts.
	ByCategory map[string]*Summary `json:"by_category,omitempty"`
}

func (s *Summary) observe(v Verdict) {
	s.Total++
	switch v {
	case VerdictProved:
		s.Proved++
	case VerdictRefuted:
		s.Refuted++
	case VerdictUnknown:
		s.Unknown++
	case VerdictSkipped:
		s.Skipped++
	case VerdictErrored:
		s.Errored++
	case VerdictEncodingFailed:
		s.EncodingFailed++
	}
}

// Passed reports whether the run found no violations: every goal proved, or
// in non-strict mode, proved or inconclusive. Strict mode fails closed on
// anything short of a proof.
//
// Passed is downstream gate policy only. The verdicts themselves are
// fail-closed in both modes: an Unknown or Skipped goal keeps that verdict in
// the report and is never rendered as proved.
func (r *Report) Passed() bool {
	if r.Summary.Refuted > 0 || r.Summary.Errored > 0 || r.Summary.EncodingFailed > 0 {
		return false
	}
	if r.Strict && (r.Summary.Unknown > 0 || r.Summary.Skipped > 0) {
		return false
	}
	return true
}

// Finalize sorts entries by goal ID and recomputes the summary.
func (r *Report) Finalize() {
	sort.Slice(r.Entries, func(i, j int) bool { return r.Entries[i].GoalID < r.Entries[j].GoalID })
	s := Summary{}
	for _, e := range r.Entries {
		s.observe(e.Verdict)
		if e.Category == "" {
			continue
		}
		if s.ByCategory == nil {
			s.ByCategory = make(map[string]*Summary)
		}
		cs := s.ByCategory[string(e.Category)]
		if cs == nil {
			cs = &Summary{}
			s.ByCategory[string(e.Category)] = cs
		}
		cs.observe(e.Verdict)
	}
	r.Summary = s
}

// explain renders a human-readable account of one entry, in the style of a
// contract violation message: category, source location, then evidence.
func explain(goal *contract.Goal, e *Entry) string {
	category := string(goal.Category)
	if category == "" {
		category = "goal"
	}
	loc := goal.Source.String()
	if loc == "" {
		loc = goal.ID
	}
	var b strings.Builder

	switch e.Verdict {
	case VerdictProved:
		fmt.Fprintf(&b, "%s at %s holds", category, loc)
		if e.Unsat != nil && !e.Unsat.Exhaustive {
			fmt.Fprintf(&b, " (%s)", e.Unsat.Caveat)
		}
	case VerdictRefuted:
		fmt.Fprintf(&b, "%s violated at %s", category, loc)
		ce := e.Minimal
		if ce == nil {
			ce = e.Counterexample
		}
		if ce != nil && len(ce.Bindings) > 0 {
			fmt.Fprintf(&b, ": counterexample %s", strings.ReplaceAll(ce.String(), "\n", ", "))
		}
	case VerdictUnknown:
		fmt.Fprintf(&b, "%s at %s could not be decided (%s)", category, loc, e.Cause)
	case VerdictSkipped:
		fmt.Fprintf(&b, "%s at %s skipped before solving: %s", category, loc, e.Reason)
	case VerdictErrored:
		fmt.Fprintf(&b, "%s at %s failed: %s", category, loc, e.Reason)
	case VerdictEncodingFailed:
		fmt.Fprintf(&b, "%s at %s could not be encoded: %s", category, loc, e.Reason)
	}
	return b.String()
}
