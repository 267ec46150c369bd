package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.eventhub.actions"

// DefaultPolicy gates edits on the server-supplied can_edit flag and everything else on
// being signed in. Ownership is never recomputed from organizer ids.
const DefaultPolicy = `package eventhub.actions

default create_event := false
default edit_event := false
default delete_event := false
default rsvp := false
default submit_review := false
default edit_review := false

create_event if input.authenticated
rsvp if input.authenticated
submit_review if input.authenticated

edit_event if {
	input.authenticated
	input.event.can_edit == true
}

delete_event if {
	input.authenticated
	input.event.can_edit == true
}

edit_review if {
	input.authenticated
	input.review.can_edit == true
}
`

// OPAEvaluator evaluates action policy with an OPA Rego query prepared once.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles modules (file name to Rego source) and prepares the action query.
// With no modules it uses DefaultPolicy.
func NewOPAEvaluator(ctx context.Context, modules map[string]string) (*OPAEvaluator, error) {
	if len(modules) == 0 {
		modules = map[string]string{"actions.rego": DefaultPolicy}
	}
	opts := []func(*rego.Rego){rego.Query(policyQuery)}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}
	q, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// HealthCheck evaluates the prepared query against an anonymous viewer.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(Input{})))
	if err != nil {
		return fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return errors.New("policy query returned no result")
	}
	return nil
}

// Evaluate implements Evaluator. Evaluation errors are logged and deny every action.
func (e *OPAEvaluator) Evaluate(ctx context.Context, in Input) (Decision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(in)))
	if err != nil {
		log.Printf("policy: evaluation failed: %v, denying all actions", err)
		return Decision{}, nil
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		log.Printf("policy: query returned no result, denying all actions")
		return Decision{}, nil
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		log.Printf("policy: unexpected result type %T, denying all actions", rs[0].Expressions[0].Value)
		return Decision{}, nil
	}
	flag := func(name string) bool {
		v, _ := doc[name].(bool)
		return v
	}
	return Decision{
		CreateEvent:  flag("create_event"),
		EditEvent:    flag("edit_event"),
		DeleteEvent:  flag("delete_event"),
		RSVP:         flag("rsvp"),
		SubmitReview: flag("submit_review"),
		EditReview:   flag("edit_review"),
	}, nil
}

func buildInput(in Input) map[string]interface{} {
	input := map[string]interface{}{
		"authenticated": in.Authenticated,
	}
	if in.Event != nil {
		input["event"] = map[string]interface{}{"can_edit": in.Event.CanEdit}
	}
	if in.Review != nil {
		input["review"] = map[string]interface{}{"can_edit": in.Review.CanEdit}
	}
	return input
}
