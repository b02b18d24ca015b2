package harness

import "github.com/roach88/tagrel/internal/model"

// TraceEvent is one journaled command.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Token   string `json:"token"`
	Command string `json:"command"`
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists journaled commands in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step mismatches and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Relations is the final forest in pre-order.
	Relations []model.GroupDescription `json:"relations"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Relations: []model.GroupDescription{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed returns how many trace events were rejected.
func (r *Result) Failed() int {
	n := 0
	for _, e := range r.Trace {
		if e.Outcome == model.OutcomeFailed {
			n++
		}
	}
	return n
}
