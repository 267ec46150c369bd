// Package engine decides which event actions the current viewer is offered.
package engine

import "context"

// Subject carries the viewer-relative flags the server attaches to an event or review.
type Subject struct {
	CanEdit bool
}

// Input is what a decision is made from. Event and Review are nil when the page has none.
type Input struct {
	Authenticated bool
	Event         *Subject
	Review        *Subject
}

// Decision lists the actions the viewer may take. The zero value denies everything.
type Decision struct {
	CreateEvent  bool
	EditEvent    bool
	DeleteEvent  bool
	RSVP         bool
	SubmitReview bool
	EditReview   bool
}

// Evaluator evaluates action policy using OPA or other engines.
type Evaluator interface {
	// Evaluate returns the allowed actions for in. Engine failures yield a deny-all decision.
	Evaluate(ctx context.Context, in Input) (Decision, error)
}

// Static returns the same decision for every input.
type Static Decision

// Evaluate implements Evaluator.
func (s Static) Evaluate(context.Context, Input) (Decision, error) {
	return Decision(s), nil
}
