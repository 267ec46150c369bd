package engine

import (
	"context"
	"testing"
)

func newEvaluator(t *testing.T, modules map[string]string) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator(context.Background(), modules)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	e := newEvaluator(t, nil)
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_DefaultPolicy(t *testing.T) {
	e := newEvaluator(t, nil)
	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{
			name: "anonymous",
			in:   Input{Event: &Subject{CanEdit: true}},
			want: Decision{},
		},
		{
			name: "signed in without event",
			in:   Input{Authenticated: true},
			want: Decision{CreateEvent: true, RSVP: true, SubmitReview: true},
		},
		{
			name: "attendee",
			in:   Input{Authenticated: true, Event: &Subject{}},
			want: Decision{CreateEvent: true, RSVP: true, SubmitReview: true},
		},
		{
			name: "organizer",
			in:   Input{Authenticated: true, Event: &Subject{CanEdit: true}},
			want: Decision{CreateEvent: true, EditEvent: true, DeleteEvent: true, RSVP: true, SubmitReview: true},
		},
		{
			name: "own review",
			in:   Input{Authenticated: true, Review: &Subject{CanEdit: true}},
			want: Decision{CreateEvent: true, RSVP: true, SubmitReview: true, EditReview: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	// Read-only deployment: nobody may create events.
	const readOnly = `package eventhub.actions

default create_event := false
rsvp if input.authenticated
`
	e := newEvaluator(t, map[string]string{"readonly.rego": readOnly})
	got, err := e.Evaluate(context.Background(), Input{Authenticated: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.CreateEvent || !got.RSVP || got.EditEvent {
		t.Errorf("Evaluate = %+v, want only RSVP", got)
	}
}

func TestOPAEvaluator_InvalidPolicy(t *testing.T) {
	_, err := NewOPAEvaluator(context.Background(), map[string]string{"bad.rego": "package eventhub.actions\n\nallow if {"})
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestStatic(t *testing.T) {
	var ev Evaluator = Static(Decision{RSVP: true})
	got, _ := ev.Evaluate(context.Background(), Input{})
	if !got.RSVP || got.CreateEvent {
		t.Errorf("Static = %+v", got)
	}
}
